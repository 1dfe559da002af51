package wordlist

//go:generate mockgen -source=source.go -destination=mock/source_mock.go

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const maxBodyBytes = 8 << 20

// Source yields the raw lines of a word list.
type Source interface {
	Lines(ctx context.Context) ([]string, error)
}

type FileSource struct {
	Path string
}

func (s FileSource) Lines(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read word list %s: %w", s.Path, err)
	}
	return strings.Split(string(data), "\n"), nil
}

type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (s HTTPSource) Lines(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", s.URL, err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch word list %s: %w", s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch word list %s: unexpected status %s", s.URL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read word list %s: %w", s.URL, err)
	}
	return strings.Split(string(body), "\n"), nil
}

// NewSource picks an HTTP source for http(s) URLs and a file source otherwise.
func NewSource(location string, timeout time.Duration) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSource{URL: location, Client: &http.Client{Timeout: timeout}}
	}
	return FileSource{Path: location}
}
