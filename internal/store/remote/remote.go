// Package remote is a store target that speaks the SPARQL 1.1 protocol to a
// repository server (kind http) or to a pair of query and update endpoints
// (kind sparql).
//
// Writes made inside a transaction are buffered and sent as one update
// request on Commit. Reads always go to the server, so they do not see
// buffered writes.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roach88/rdfio/internal/config"
	"github.com/roach88/rdfio/internal/sparql"
	"github.com/roach88/rdfio/internal/store"
)

func init() {
	store.Register(config.KindHTTP, openStore)
	store.Register(config.KindSPARQL, openStore)
}

// ErrReadOnly is returned by writes to an endpoint without an update URL.
var ErrReadOnly = errors.New("endpoint has no update URL")

// maxErrorBody caps how much of a failed response is kept in HTTPError.
const maxErrorBody = 4096

// HTTPError is a non-2xx response from the server.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("server returned %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
}

// IsHTTPError reports whether err is or wraps an HTTPError.
func IsHTTPError(err error) bool {
	var target *HTTPError
	return errors.As(err, &target)
}

// Repository holds the endpoints of one remote store.
type Repository struct {
	client    *http.Client
	queryURL  string
	updateURL string
}

func openStore(_ context.Context, cfg config.Store) (store.Repository, error) {
	switch cfg.Kind {
	case config.KindHTTP:
		return NewRepository(cfg.URL, cfg.Timeout)
	default:
		return NewEndpoint(cfg.QueryURL, cfg.UpdateURL, cfg.Timeout)
	}
}

// NewRepository targets a repository server: queries go to url and updates
// to url + "/statements".
func NewRepository(rawURL string, timeout time.Duration) (*Repository, error) {
	base := strings.TrimSuffix(rawURL, "/")
	return NewEndpoint(base, base+"/statements", timeout)
}

// NewEndpoint targets separate query and update endpoints. An empty
// updateURL makes the store read-only.
func NewEndpoint(queryURL, updateURL string, timeout time.Duration) (*Repository, error) {
	for _, u := range []string{queryURL, updateURL} {
		if u == "" {
			continue
		}
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", u, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", u)
		}
	}
	if queryURL == "" {
		return nil, errors.New("query URL is required")
	}
	return &Repository{
		client:    &http.Client{Timeout: timeout},
		queryURL:  queryURL,
		updateURL: updateURL,
	}, nil
}

// Connect returns a new connection. No request is made until it is used.
func (r *Repository) Connect(ctx context.Context) (store.Connection, error) {
	return &conn{repo: r}, nil
}

// Close releases idle HTTP connections.
func (r *Repository) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

// query POSTs a SPARQL query and returns the response body on success.
// The caller closes it.
func (r *Repository) query(ctx context.Context, q string) (io.ReadCloser, error) {
	resp, err := r.post(ctx, r.queryURL, "query", q, sparql.ResultsMediaType)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// update POSTs a SPARQL update.
func (r *Repository) update(ctx context.Context, u string) error {
	if r.updateURL == "" {
		return ErrReadOnly
	}
	resp, err := r.post(ctx, r.updateURL, "update", u, "")
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (r *Repository) post(ctx context.Context, endpoint, field, text, accept string) (*http.Response, error) {
	form := url.Values{field: {text}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", field, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%s request: %w", field, &HTTPError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))})
	}
	return resp, nil
}
