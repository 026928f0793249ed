// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package schema downloads the API description document that the client
// generator consumes.
package schema

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
)

// Result describes a completed download.
type Result struct {
	URL       string
	Path      string
	Bytes     int64
	SHA256    string
	FetchedAt time.Time
}

// Fetcher downloads a schema document and replaces a local copy atomically.
type Fetcher struct {
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the HTTP client. The client's own Timeout applies.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: timeout},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url and replaces dest with the response body. The body is
// streamed into a staging file beside dest which is renamed over dest only
// after every byte has been written and synced, so readers see either the
// previous document or the new one. On error dest is left untouched.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (*Result, error) {
	if strings.TrimSpace(url) == "" {
		return nil, cgerr.New(cgerr.CodeSchemaFetchInvalidInput, "schema url must not be empty")
	}
	if strings.TrimSpace(dest) == "" {
		return nil, cgerr.New(cgerr.CodeSchemaFetchInvalidInput, "schema path must not be empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeSchemaFetchInvalidInput, "building schema request", cgerr.FieldURL(url))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err, url)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, cgerr.New(cgerr.CodeSchemaFetchUpstreamFailure, "schema endpoint returned "+resp.Status,
			cgerr.FieldURL(url),
			cgerr.Field("status", resp.StatusCode),
		)
	}

	body := &recordingReader{r: resp.Body}
	n, sum, err := replaceFile(dest, body)
	if err != nil {
		if body.err != nil {
			return nil, classifyTransport(body.err, url)
		}
		return nil, cgerr.Wrap(err, cgerr.CodeSchemaWriteFailure, "writing schema", cgerr.FieldPath(dest))
	}

	res := &Result{
		URL:       url,
		Path:      dest,
		Bytes:     n,
		SHA256:    sum,
		FetchedAt: f.now(),
	}
	f.logger.Debug("schema downloaded", "url", url, "path", dest, "bytes", n, "sha256", sum)
	return res, nil
}

// replaceFile streams r into a staging file next to dest and renames it into
// place. The staging file is removed on every failure path.
func replaceFile(dest string, r io.Reader) (n int64, sum string, err error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, "", err
	}

	perm := os.FileMode(0o644)
	if info, statErr := os.Stat(dest); statErr == nil {
		perm = info.Mode().Perm()
	}

	staging := filepath.Join(dir, "."+filepath.Base(dest)+"-"+uuid.NewString()+".tmp")
	file, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return 0, "", err
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(staging)
		}
	}()

	h := sha256.New()
	n, err = io.Copy(io.MultiWriter(file, h), r)
	if err != nil {
		return 0, "", err
	}
	if err = file.Sync(); err != nil {
		return 0, "", err
	}
	if err = file.Close(); err != nil {
		return 0, "", err
	}
	if err = os.Rename(staging, dest); err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// recordingReader remembers the first read error so a failed copy can be
// attributed to the network rather than the filesystem.
type recordingReader struct {
	r   io.Reader
	err error
}

func (rr *recordingReader) Read(p []byte) (int, error) {
	n, err := rr.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) && rr.err == nil {
		rr.err = err
	}
	return n, err
}

func classifyTransport(err error, url string) error {
	if isTimeout(err) {
		return cgerr.Wrap(err, cgerr.CodeSchemaFetchTimeout, "downloading schema timed out", cgerr.FieldURL(url))
	}
	return cgerr.Wrap(err, cgerr.CodeSchemaFetchUpstreamFailure, "downloading schema", cgerr.FieldURL(url))
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
