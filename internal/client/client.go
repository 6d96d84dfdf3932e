package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"github.com/crmarques/restresource/action"
	"github.com/crmarques/restresource/cache"
	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/debugctx"
	"github.com/crmarques/restresource/factory"
	"github.com/crmarques/restresource/faults"
	"github.com/crmarques/restresource/internal/providers/cache/memory"
	"github.com/crmarques/restresource/internal/providers/cache/sqlite"
	"github.com/crmarques/restresource/internal/providers/interceptor/jq"
	httptransport "github.com/crmarques/restresource/internal/providers/transport/http"
	"github.com/crmarques/restresource/transport"
)

// Client holds one generated resource per catalog entry, all sharing a
// transport and a cache provider.
type Client struct {
	transport transport.Transport
	caches    cache.Provider
	resources map[string]*factory.Resource
	closers   []func() error
}

type Option func(*options)

type options struct {
	transport        transport.Transport
	transportOptions []httptransport.Option
	recorder         factory.Recorder
	logger           *logr.Logger
}

// WithTransport replaces the HTTP transport built from the catalog.
func WithTransport(t transport.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

func WithTransportOptions(opts ...httptransport.Option) Option {
	return func(o *options) {
		o.transportOptions = append(o.transportOptions, opts...)
	}
}

func WithRecorder(recorder factory.Recorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// Build wires the catalog into resources. The returned client must be closed
// to release persistent caches.
func Build(ctx context.Context, catalog config.Catalog, opts ...Option) (*Client, error) {
	resolved := options{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&resolved)
	}

	c := &Client{resources: map[string]*factory.Resource{}}

	c.transport = resolved.transport
	if c.transport == nil {
		httpTransport, err := httptransport.NewHTTPTransport(catalog.Transport, resolved.transportOptions...)
		if err != nil {
			return nil, err
		}
		c.transport = httpTransport
	}

	caches, closer, err := buildCacheProvider(ctx, catalog.Cache, resolved)
	if err != nil {
		return nil, err
	}
	c.caches = caches
	if closer != nil {
		c.closers = append(c.closers, closer)
	}

	factoryOptions := make([]factory.Option, 0, 2)
	if resolved.recorder != nil {
		factoryOptions = append(factoryOptions, factory.WithRecorder(resolved.recorder))
	}
	if resolved.logger != nil {
		factoryOptions = append(factoryOptions, factory.WithLogger(*resolved.logger))
	}

	deps := factory.Dependencies{Transport: c.transport, Cache: c.caches}
	for _, item := range catalog.Resources {
		actions, err := buildActions(item)
		if err != nil {
			_ = c.Close()
			return nil, err
		}

		built, err := factory.New(deps, item.Namespace(), item.URL, item.Params, actions, factoryOptions...)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("resource %q: %w", item.Name, err)
		}
		c.resources[item.Name] = built
	}

	debugctx.Printf(ctx, "client built resources=%d cache=%q", len(c.resources), catalog.Cache.EffectiveBackend())
	return c, nil
}

func buildCacheProvider(ctx context.Context, cfg config.Cache, resolved options) (cache.Provider, func() error, error) {
	switch cfg.EffectiveBackend() {
	case config.CacheBackendMemory:
		return memory.NewProvider(), nil, nil
	case config.CacheBackendSQLite:
		logger := debugctx.Logger(ctx)
		if resolved.logger != nil {
			logger = *resolved.logger
		}
		provider, err := sqlite.Open(cfg.Path, sqlite.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return provider, provider.Close, nil
	default:
		return nil, nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("cache.backend %q is not supported", cfg.Backend), nil)
	}
}

func buildActions(item config.Resource) (map[string]action.Descriptor, error) {
	if len(item.Actions) == 0 {
		return nil, nil
	}

	actions := make(map[string]action.Descriptor, len(item.Actions))
	for name, declared := range item.Actions {
		descriptor := action.Descriptor{
			Method:      declared.Method,
			IsArray:     declared.IsArray,
			Params:      declared.Params,
			URL:         declared.URL,
			Headers:     declared.Headers,
			BypassCache: declared.BypassCache,
		}

		if declared.Interceptor != nil && strings.TrimSpace(declared.Interceptor.ResponseJQ) != "" {
			intercept, err := jq.ResponseInterceptor(declared.Interceptor.ResponseJQ)
			if err != nil {
				return nil, fmt.Errorf("resource %q action %q: %w", item.Name, name, err)
			}
			descriptor.Interceptor.Response = intercept
		}
		actions[name] = descriptor
	}
	return actions, nil
}

func (c *Client) Resource(name string) (*factory.Resource, error) {
	found, ok := c.resources[name]
	if !ok {
		return nil, faults.NewTypedError(faults.NotFoundError, fmt.Sprintf("resource %q is not declared in the catalog", name), nil)
	}
	return found, nil
}

func (c *Client) ResourceNames() []string {
	names := make([]string, 0, len(c.resources))
	for name := range c.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Client) Caches() cache.Provider {
	return c.caches
}

func (c *Client) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
