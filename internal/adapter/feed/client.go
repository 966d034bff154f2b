// Package feed fetches agency incident feeds over HTTP or from local files.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/incident-feed-etl/internal/domain"
)

// maxBodyBytes bounds a single feed document.
const maxBodyBytes = 32 << 20

// Document is the feed wire format.
type Document struct {
	Incidents []domain.RawRecord `json:"incidents"`
}

// Source fetches one feed. HTTP sources use conditional requests and return
// the previous records when the server answers 304 Not Modified.
type Source struct {
	location   string
	httpClient *http.Client
	logger     *slog.Logger

	mu           sync.Mutex
	etag         string
	lastModified string
	last         []domain.RawRecord
}

// NewSource creates a feed source for an http(s) URL, a file:// URL, or a
// plain filesystem path. timeout bounds each HTTP request.
func NewSource(location string, timeout time.Duration, logger *slog.Logger) *Source {
	return &Source{
		location: location,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Location returns the URL or path this source reads.
func (s *Source) Location() string {
	return s.location
}

// Fetch reads and decodes the feed.
func (s *Source) Fetch(ctx context.Context) ([]domain.RawRecord, error) {
	if isHTTP(s.location) {
		return s.fetchHTTP(ctx)
	}
	return s.fetchFile()
}

func (s *Source) fetchHTTP(ctx context.Context) ([]domain.RawRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.location, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	s.mu.Lock()
	if s.etag != "" {
		req.Header.Set("If-None-Match", s.etag)
	}
	if s.lastModified != "" {
		req.Header.Set("If-Modified-Since", s.lastModified)
	}
	s.mu.Unlock()

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotModified:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.logger.Debug("feed not modified", "url", s.location)
		return s.last, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed error: status %d: %s", resp.StatusCode, body)
	}

	records, err := decode(resp.Body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.etag = resp.Header.Get("ETag")
	s.lastModified = resp.Header.Get("Last-Modified")
	s.last = records
	s.mu.Unlock()
	return records, nil
}

func (s *Source) fetchFile() ([]domain.RawRecord, error) {
	f, err := os.Open(strings.TrimPrefix(s.location, "file://"))
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()
	return decode(f)
}

func decode(r io.Reader) ([]domain.RawRecord, error) {
	var doc Document
	if err := json.NewDecoder(io.LimitReader(r, maxBodyBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}
	return doc.Incidents, nil
}

func isHTTP(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
