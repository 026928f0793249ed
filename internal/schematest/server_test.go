// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package schematest_test

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/sigil-dev/clientgen/internal/schematest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestServer_PublishesDocument(t *testing.T) {
	srv := schematest.New(t)

	resp, body := get(t, srv.SchemaURL(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, srv.Document(), body)
	assert.Equal(t, 1, srv.Requests())

	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	assert.NotEmpty(t, doc.OpenAPI)
	assert.Contains(t, doc.Paths, "/api/ping")
	assert.Contains(t, doc.Paths, "/api/items")
	assert.Contains(t, doc.Paths, "/api/items/{id}")
}

func TestServer_OperationsAnswer(t *testing.T) {
	srv := schematest.New(t)

	resp, body := get(t, srv.URL+"/api/items/1", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"name":"first"`)

	resp, _ = get(t, srv.URL+"/api/items/2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_FailWith(t *testing.T) {
	srv := schematest.New(t)

	srv.FailWith(http.StatusServiceUnavailable)
	resp, _ := get(t, srv.SchemaURL(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	srv.FailWith(http.StatusOK)
	resp, body := get(t, srv.SchemaURL(), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, srv.Document(), body)
	assert.Equal(t, 2, srv.Requests())
}

func TestServer_AllowsDevOrigin(t *testing.T) {
	srv := schematest.New(t)

	resp, _ := get(t, srv.SchemaURL(), map[string]string{"Origin": schematest.DevOrigin})
	assert.Equal(t, schematest.DevOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	resp, _ = get(t, srv.SchemaURL(), map[string]string{"Origin": "http://evil.example.com"})
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServer_DocumentIsACopy(t *testing.T) {
	srv := schematest.New(t)
	doc := srv.Document()
	doc[0] = 'X'
	assert.NotEqual(t, doc, srv.Document())
}
