package control

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/rateforge/rateforge/internal/tracing"
)

// newTestClient points a plain-HTTP client at the given test server.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewClient(Options{Host: u.Hostname(), Port: port})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestListNodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/state/nodes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"uuid": "2ac0c622-a118-4c6b-909f-dbb3d5f42794", "host": "10.0.0.1"},
			{"uuid": "c566b0c9-22e8-4360-b741-0b6d817bce02", "host": "10.0.0.2"}
		]`))
	}))
	defer srv.Close()

	nodes, err := newTestClient(t, srv).ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	if nodes[0].Host != "10.0.0.1" || nodes[1].UUID != "c566b0c9-22e8-4360-b741-0b6d817bce02" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}

func TestListNodesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	nodes, err := newTestClient(t, srv).ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 0 {
		t.Fatalf("got %d nodes, want 0", len(nodes))
	}
}

func TestVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/version" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"version": "1.15.0"}`))
	}))
	defer srv.Close()

	version, err := newTestClient(t, srv).Version(context.Background())
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != "1.15.0" {
		t.Fatalf("version = %q, want 1.15.0", version)
	}
}

func TestAPIErrorOnServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).ListNodes(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", apiErr.StatusCode)
	}
}

func TestListNodesWithTracer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"uuid": "2ac0c622-a118-4c6b-909f-dbb3d5f42794", "host": "10.0.0.1"}]`))
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	c, err := NewClient(Options{Host: u.Hostname(), Port: port, Tracer: tracing.NoopTracer()})
	if err != nil {
		t.Fatal(err)
	}

	nodes, err := c.ListNodes(context.Background())
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(Options{}); err == nil {
		t.Fatal("expected error for missing host")
	}
}
