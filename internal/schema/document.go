// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
)

//go:embed document.schema.json
var documentSchema []byte

const documentSchemaURL = "https://clientgen.local/schemas/api-description.json"

// Document summarizes a local API description.
type Document struct {
	// Format is "openapi" or "swagger".
	Format     string
	Version    string
	Title      string
	APIVersion string
	Paths      int
}

var compileDocumentSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(documentSchemaURL, bytes.NewReader(documentSchema)); err != nil {
		return nil, err
	}
	return compiler.Compile(documentSchemaURL)
})

// Inspect reads path and checks that it holds an OpenAPI 3 or Swagger 2.0
// document. Only the top-level shape is checked; the generator performs the
// full validation.
func Inspect(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeSchemaReadFailure, "reading schema", cgerr.FieldPath(path))
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeSchemaDocumentInvalid, "schema is not valid JSON", cgerr.FieldPath(path))
	}

	sch, err := compileDocumentSchema()
	if err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeCLIInternalFailure, "compiling API description schema")
	}
	if err := sch.Validate(raw); err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeSchemaDocumentInvalid, "schema is not an OpenAPI or Swagger document", cgerr.FieldPath(path))
	}

	var head struct {
		OpenAPI string `json:"openapi"`
		Swagger string `json:"swagger"`
		Info    struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeSchemaDocumentInvalid, "decoding schema", cgerr.FieldPath(path))
	}

	doc := &Document{
		Format:     "openapi",
		Version:    head.OpenAPI,
		Title:      head.Info.Title,
		APIVersion: head.Info.Version,
		Paths:      len(head.Paths),
	}
	if head.Swagger != "" {
		doc.Format, doc.Version = "swagger", head.Swagger
	}
	return doc, nil
}
