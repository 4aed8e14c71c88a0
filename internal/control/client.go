// Package control provides a thin REST client for the cluster control
// service. The benchmark core only depends on the shape "issue one request,
// observe that it completed"; this client supplies those requests.
package control

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"

	"github.com/rateforge/rateforge/internal/tracing"
)

const defaultPort = 4523

// Node is one cluster agent known to the control service.
type Node struct {
	UUID string
	Host string
}

// APIError represents a non-2xx control service response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("control service: HTTP %d: %s", e.StatusCode, e.Body)
}

// Options configure a control service Client.
type Options struct {
	Host string // control service hostname (required)
	Port int    // API port; defaults to 4523

	// TLS client identity. When CACertPath is empty the client speaks
	// plain HTTP, which only makes sense against test servers.
	CACertPath string
	CertPath   string
	KeyPath    string

	Timeout time.Duration
	Tracer  trace.Tracer // optional; spans around every API call
}

// Client issues authenticated REST calls against the control service.
type Client struct {
	base   string
	httpc  *http.Client
	tracer trace.Tracer
}

// NewClient builds a client with a tuned transport, loading the TLS client
// identity from disk when certificate paths are configured.
func NewClient(opt Options) (*Client, error) {
	if opt.Host == "" {
		return nil, errors.New("control service host is required")
	}
	port := opt.Port
	if port == 0 {
		port = defaultPort
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   32,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	scheme := "http"
	if opt.CACertPath != "" {
		tlsConf, err := newTLSConfig(opt.CACertPath, opt.CertPath, opt.KeyPath)
		if err != nil {
			return nil, err
		}
		transport.TLSClientConfig = tlsConf
		scheme = "https"
	}

	timeout := opt.Timeout
	if timeout < 0 {
		timeout = 0
	}

	return &Client{
		base: fmt.Sprintf("%s://%s:%d/v1", scheme, opt.Host, port),
		httpc: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		tracer: opt.Tracer,
	}, nil
}

func newTLSConfig(caPath, certPath, keyPath string) (*tls.Config, error) {
	caPEM, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read cluster CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates parsed from %s", caPath)
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load user certificate pair: %w", err)
	}
	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// ListNodes returns the agents currently known to the control service.
// This is the read request the load scenario repeats.
func (c *Client) ListNodes(ctx context.Context) ([]Node, error) {
	body, err := c.get(ctx, "/state/nodes")
	if err != nil {
		return nil, err
	}
	var nodes []Node
	gjson.ParseBytes(body).ForEach(func(_, value gjson.Result) bool {
		nodes = append(nodes, Node{
			UUID: value.Get("uuid").String(),
			Host: value.Get("host").String(),
		})
		return true
	})
	return nodes, nil
}

// Version returns the control service software version.
func (c *Client) Version(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/version")
	if err != nil {
		return "", err
	}
	version := gjson.GetBytes(body, "version").String()
	if version == "" {
		return "", errors.New("control service: version missing from response")
	}
	return version, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.tracer == nil {
		return c.doGet(ctx, path)
	}
	ctx, span := tracing.StartCallSpan(ctx, c.tracer, http.MethodGet, path)
	body, err := c.doGet(ctx, path)
	tracing.EndSpan(span, err)
	return body, err
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
