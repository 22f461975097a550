// Package gist implements the remote document store on the GitHub Gist API:
// one gist, one file, holding the full snapshot as a JSON string.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"bizbook/internal/core"
	"bizbook/internal/remote"
)

const (
	DefaultFilename = "business-data.json"

	defaultBaseURL = "https://api.github.com"
	acceptHeader   = "application/vnd.github.v3+json"
)

// Config holds the credentials addressing the remote document.
type Config struct {
	Token    string
	GistID   string
	Filename string // defaults to DefaultFilename

	// BaseURL and HTTPClient are overridable for tests.
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	http     *http.Client
	url      string
	token    string
	filename string
}

var _ remote.DocumentStore = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("missing gist token")
	}
	if strings.TrimSpace(cfg.GistID) == "" {
		return nil, errors.New("missing gist id")
	}
	filename := cfg.Filename
	if filename == "" {
		filename = DefaultFilename
	}
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newPooledHTTPClient()
	}
	return &Client{
		http:     httpClient,
		url:      strings.TrimRight(base, "/") + "/gists/" + cfg.GistID,
		token:    cfg.Token,
		filename: filename,
	}, nil
}

// newPooledHTTPClient builds an HTTP client with connection pooling and
// keep-alive tuned for repeated calls against one API host.
func newPooledHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Wire shape of the gist document: {"files": {"<name>": {"content": "..."}}}.
type (
	gistFile struct {
		Content string `json:"content"`
	}
	gistDocument struct {
		Files map[string]gistFile `json:"files"`
	}
)

// Fetch reads the gist and decodes the snapshot from the configured file.
// A missing file or malformed content is an error; the caller falls back to
// local storage.
func (c *Client) Fetch(ctx context.Context) (core.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("build gist request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("fetch gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.Snapshot{}, fmt.Errorf("fetch gist: HTTP %d %s", resp.StatusCode, resp.Status)
	}

	var doc gistDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode gist document: %w", err)
	}
	file, ok := doc.Files[c.filename]
	if !ok {
		return core.Snapshot{}, fmt.Errorf("%s not found in gist", c.filename)
	}

	var snap core.Snapshot
	if err := json.Unmarshal([]byte(file.Content), &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Normalize()
	return snap, nil
}

// Replace overwrites the gist file with the serialized snapshot. The PATCH
// replaces the named file's whole content; there is no merge.
func (c *Client) Replace(ctx context.Context, snap core.Snapshot) error {
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	body, err := json.Marshal(gistDocument{
		Files: map[string]gistFile{c.filename: {Content: string(payload)}},
	})
	if err != nil {
		return fmt.Errorf("encode gist document: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gist request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update gist: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("update gist: HTTP %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", acceptHeader)
}
