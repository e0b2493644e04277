package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source delivers a policy document.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (Document, error)
}

// StaticSource serves a compiled-in document.
type StaticSource struct {
	doc Document
}

// NewStaticSource wraps doc. A nil doc falls back to DefaultDocument.
func NewStaticSource(doc Document) *StaticSource {
	if doc == nil {
		doc = DefaultDocument()
	}
	return &StaticSource{doc: doc}
}

func (s *StaticSource) Name() string { return "static" }

// Fetch returns the wrapped document.
func (s *StaticSource) Fetch(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.doc, nil
}

// FileSource reads a YAML or JSON policy document from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return "file" }

// Fetch reads and decodes the file. JSON documents decode through the YAML
// parser as well.
func (s FileSource) Fetch(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("rbac: policy file %s: %w", s.Path, ErrNoPolicy)
		}
		return nil, fmt.Errorf("rbac: read policy file: %w", err)
	}
	return DecodeDocument(raw)
}

// DecodeDocument parses a YAML or JSON policy document.
func DecodeDocument(raw []byte) (Document, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, fmt.Errorf("rbac: decode policy: %w", ErrNoPolicy)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("rbac: decode policy: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("rbac: decode policy: %w", ErrNoPolicy)
	}
	return doc, nil
}

// HTTPSource fetches a JSON policy document from a backend endpoint.
type HTTPSource struct {
	URL    string
	Client *http.Client
	// Token is sent as a bearer token when set.
	Token string
}

func (s HTTPSource) Name() string { return "http" }

// Fetch performs a single GET; retrying is left to the caller.
func (s HTTPSource) Fetch(ctx context.Context) (Document, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("rbac: build policy request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rbac: fetch policy: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("rbac: fetch policy: %w", ErrNoPolicy)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("rbac: fetch policy: unexpected status %d", resp.StatusCode)
	}

	var doc Document
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("rbac: decode policy response: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("rbac: fetch policy: %w", ErrNoPolicy)
	}
	return doc, nil
}

// ChainSource tries each source in order and returns the first document
// fetched successfully.
type ChainSource struct {
	Sources []Source
}

// NewChainSource builds a chain over sources.
func NewChainSource(sources ...Source) *ChainSource {
	return &ChainSource{Sources: sources}
}

// Name joins the member names, e.g. "postgres>static".
func (c *ChainSource) Name() string {
	names := make([]string, len(c.Sources))
	for i, s := range c.Sources {
		names[i] = s.Name()
	}
	return strings.Join(names, ">")
}

// Fetch returns the first successful document. A cancelled context stops the
// chain immediately.
func (c *ChainSource) Fetch(ctx context.Context) (Document, error) {
	doc, _, err := c.FetchNamed(ctx)
	return doc, err
}

// FetchNamed is Fetch that also reports which member served the document.
func (c *ChainSource) FetchNamed(ctx context.Context) (Document, string, error) {
	if len(c.Sources) == 0 {
		return nil, "", fmt.Errorf("rbac: empty source chain: %w", ErrNoPolicy)
	}
	var errs []error
	for _, s := range c.Sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		doc, err := s.Fetch(ctx)
		if err == nil {
			return doc, s.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
	}
	return nil, "", errors.Join(errs...)
}
