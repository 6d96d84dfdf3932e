package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/internal/providers/shared/tlsconfig"
	"github.com/crmarques/restresource/transport"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultMediaType   = "application/json"
	requestIDHeader    = "X-Request-ID"
	tracerName         = "github.com/crmarques/restresource/transport/http"
	maxResponseBytes   = 1 << 20
)

var _ transport.Transport = (*HTTPTransport)(nil)

// HTTPTransport sends resource requests to a single base URL.
type HTTPTransport struct {
	baseURL        *url.URL
	defaultHeaders map[string]string
	auth           authConfig
	client         *http.Client
	limiter        *rate.Limiter
	tracer         trace.Tracer
	requestID      func() string
}

type Option func(*HTTPTransport)

// WithHTTPClient replaces the default client. The configured timeout is not
// applied to it.
func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTPTransport) {
		if client != nil {
			t.client = client
		}
	}
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *HTTPTransport) {
		if provider != nil {
			t.tracer = provider.Tracer(tracerName)
		}
	}
}

// WithRequestIDGenerator overrides the X-Request-ID source.
func WithRequestIDGenerator(generate func() string) Option {
	return func(t *HTTPTransport) {
		if generate != nil {
			t.requestID = generate
		}
	}
}

func NewHTTPTransport(cfg config.Transport, opts ...Option) (*HTTPTransport, error) {
	baseURL, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	auth, err := buildAuthConfig(cfg.Auth)
	if err != nil {
		return nil, err
	}

	limiter, err := buildLimiter(cfg.RateLimit)
	if err != nil {
		return nil, err
	}

	tlsConfig, err := tlsconfig.BuildTLSConfig(cfg.TLS, "transport")
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout < 0 {
		return nil, validationError("transport.timeout must not be negative", nil)
	}
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	roundTripper := http.DefaultTransport.(*http.Transport).Clone()
	if tlsConfig != nil {
		roundTripper.TLSClientConfig = tlsConfig
	}

	t := &HTTPTransport{
		baseURL:        baseURL,
		defaultHeaders: cloneStringMap(cfg.DefaultHeaders),
		auth:           auth,
		client: &http.Client{
			Timeout:   timeout,
			Transport: roundTripper,
		},
		limiter:   limiter,
		tracer:    otel.Tracer(tracerName),
		requestID: newRequestID,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(t)
	}
	return t, nil
}

func (t *HTTPTransport) BaseURL() string {
	return t.baseURL.String()
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, validationError("transport.base-url is required", nil)
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, validationError("transport.base-url is invalid", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, validationError("transport.base-url must use http or https", nil)
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed, nil
}

func buildLimiter(cfg *config.RateLimit) (*rate.Limiter, error) {
	if cfg == nil {
		return nil, nil
	}
	if cfg.RequestsPerSecond <= 0 {
		return nil, validationError("transport.rate-limit.requests-per-second must be positive", nil)
	}
	burst := cfg.Burst
	if burst < 0 {
		return nil, validationError("transport.rate-limit.burst must not be negative", nil)
	}
	if burst == 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst), nil
}

func cloneStringMap(values map[string]string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	cloned := make(map[string]string, len(values))
	for key, value := range values {
		cloned[key] = value
	}
	return cloned
}
