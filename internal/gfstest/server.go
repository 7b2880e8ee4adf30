// Package gfstest serves fake GFS files and catalogs over HTTP for tests.
package gfstest

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/openwx-service/internal/domain"
)

// Message is one GRIB2 message in a fake file. Payload defaults to a short
// body starting with the GRIB magic.
type Message struct {
	Parameter string
	Level     string
	Payload   []byte
}

// File is a fake GRIB2 file with its catalog.
type File struct {
	Data    []byte
	Catalog string
}

// BuildFile lays messages out back to back and writes a matching catalog.
func BuildFile(run time.Time, forecastHour int, msgs ...Message) File {
	var data []byte
	var idx strings.Builder
	for i, m := range msgs {
		payload := m.Payload
		if payload == nil {
			payload = DefaultPayload(m.Parameter, m.Level)
		}
		fmt.Fprintf(&idx, "%d:%d:d=%s:%s:%s:%d hour fcst:\n",
			i+1, len(data), run.UTC().Format(domain.RunLayout), m.Parameter, m.Level, forecastHour)
		data = append(data, payload...)
	}
	return File{Data: data, Catalog: idx.String()}
}

// DefaultPayload is the body BuildFile uses for a message without one.
func DefaultPayload(parameter, level string) []byte {
	return []byte("GRIB" + parameter + "|" + level + "7777")
}

// Server is an httptest server laid out like the GFS bucket.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	requests []*http.Request
}

// NewServer starts an empty server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{files: make(map[string][]byte)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Locator returns a locator pointing at the server.
func (s *Server) Locator(product domain.Product) domain.Locator {
	return domain.Locator{BaseURL: s.URL, Product: product}
}

// Add publishes a file and its catalog at the locator's URLs.
func (s *Server) Add(product domain.Product, run time.Time, forecastHour int, f File) {
	loc := s.Locator(product)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[strings.TrimPrefix(loc.FileURL(run, forecastHour), s.URL)] = f.Data
	s.files[strings.TrimPrefix(loc.CatalogURL(run, forecastHour), s.URL)] = []byte(f.Catalog)
}

// Requests returns the requests received so far.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// RangeRequests returns only the requests that carried a Range header.
func (s *Server) RangeRequests() []*http.Request {
	var out []*http.Request
	for _, r := range s.Requests() {
		if r.Header.Get("Range") != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	content, ok := s.files[r.URL.Path]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, r.URL.Path, time.Time{}, bytes.NewReader(content))
}
