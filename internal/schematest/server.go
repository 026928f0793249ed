// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package schematest provides an in-process API backend that publishes a
// generated OpenAPI document, for tests that download schemas.
package schematest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SchemaPath is where the backend publishes its API description.
const SchemaPath = "/apispec_1.json"

// DevOrigin is the frontend dev server origin allowed by CORS.
const DevOrigin = "http://localhost:5173"

// Server is a running backend. The embedded httptest.Server is closed by
// t.Cleanup.
type Server struct {
	*httptest.Server

	api      huma.API
	document []byte

	mu       sync.Mutex
	status   int
	requests int
}

// New starts a backend with a small ping/item API and serves its OpenAPI
// document at SchemaPath.
func New(t testing.TB) *Server {
	t.Helper()

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{DevOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	cfg := huma.DefaultConfig("Example API", "1.0.0")
	cfg.Info.Description = "Backend used by client generation tests"
	api := humachi.New(r, cfg)
	registerRoutes(api)

	document, err := json.Marshal(api.OpenAPI())
	if err != nil {
		t.Fatalf("marshalling OpenAPI document: %v", err)
	}

	s := &Server{api: api, document: document, status: http.StatusOK}
	r.Get(SchemaPath, s.serveSchema)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// SchemaURL is the absolute URL of the published document.
func (s *Server) SchemaURL() string { return s.URL + SchemaPath }

// Document returns the exact bytes served at SchemaPath.
func (s *Server) Document() []byte {
	out := make([]byte, len(s.document))
	copy(out, s.document)
	return out
}

// API exposes the huma API so tests can register more operations. The
// document is fixed at New; operations added later are not published.
func (s *Server) API() huma.API { return s.api }

// FailWith makes SchemaPath answer with status and an error body. Pass
// http.StatusOK to restore the document.
func (s *Server) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Requests reports how many times SchemaPath was requested.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) serveSchema(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	status := s.status
	s.requests++
	s.mu.Unlock()

	if status != http.StatusOK {
		http.Error(w, http.StatusText(status), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.document)
}

// PingBody is the JSON body of the ping response.
type PingBody struct {
	Status string `json:"status" example:"ok" doc:"Backend status"`
}

// PingResponse wraps the ping response.
type PingResponse struct {
	Body PingBody
}

// Item is a record exposed by the example API.
type Item struct {
	ID   string `json:"id" doc:"Item identifier"`
	Name string `json:"name" minLength:"1" doc:"Display name"`
}

// ListItemsResponse wraps the item listing.
type ListItemsResponse struct {
	Body struct {
		Items []Item `json:"items"`
	}
}

// GetItemInput selects one item.
type GetItemInput struct {
	ID string `path:"id" doc:"Item identifier"`
}

// GetItemResponse wraps a single item.
type GetItemResponse struct {
	Body Item
}

func registerRoutes(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "ping",
		Method:      http.MethodGet,
		Path:        "/api/ping",
		Summary:     "Ping",
		Tags:        []string{"system"},
	}, func(_ context.Context, _ *struct{}) (*PingResponse, error) {
		return &PingResponse{Body: PingBody{Status: "ok"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-items",
		Method:      http.MethodGet,
		Path:        "/api/items",
		Summary:     "List items",
		Tags:        []string{"items"},
	}, func(_ context.Context, _ *struct{}) (*ListItemsResponse, error) {
		resp := &ListItemsResponse{}
		resp.Body.Items = []Item{{ID: "1", Name: "first"}}
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-item",
		Method:      http.MethodGet,
		Path:        "/api/items/{id}",
		Summary:     "Get item",
		Tags:        []string{"items"},
	}, func(_ context.Context, in *GetItemInput) (*GetItemResponse, error) {
		if in.ID != "1" {
			return nil, huma.Error404NotFound("item not found")
		}
		return &GetItemResponse{Body: Item{ID: "1", Name: "first"}}, nil
	})
}
