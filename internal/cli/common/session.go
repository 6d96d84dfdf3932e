package common

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/debugctx"
	"github.com/crmarques/restresource/internal/client"
	"github.com/crmarques/restresource/internal/telemetry"
)

const serviceName = "restresource"

// CommandDependencies carries the collaborators commands are built with.
type CommandDependencies struct {
	// NewLoader resolves the catalog loader for an explicit --config path.
	NewLoader     func(path string) config.CatalogLoader
	ClientOptions []client.Option
}

// Session is the per-command client bundle. Close releases caches and flushes
// traces.
type Session struct {
	Catalog  config.Catalog
	Client   *client.Client
	Registry *prometheus.Registry

	shutdownTracing func(context.Context) error
}

func LoadCatalog(ctx context.Context, deps CommandDependencies, globalFlags *GlobalFlags) (config.Catalog, error) {
	if deps.NewLoader == nil {
		return config.Catalog{}, ValidationError("catalog loader is not configured", nil)
	}
	path := ""
	if globalFlags != nil {
		path = globalFlags.Config
	}
	return deps.NewLoader(path).Load(ctx)
}

func OpenSession(ctx context.Context, deps CommandDependencies, globalFlags *GlobalFlags) (*Session, error) {
	catalog, err := LoadCatalog(ctx, deps, globalFlags)
	if err != nil {
		return nil, err
	}

	endpoint := ""
	if globalFlags != nil {
		endpoint = globalFlags.OTLPEndpoint
	}
	shutdown, err := telemetry.SetupTracing(ctx, endpoint, serviceName)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	opts := []client.Option{
		client.WithRecorder(telemetry.NewMetrics(registry)),
		client.WithLogger(debugctx.Logger(ctx)),
	}
	opts = append(opts, deps.ClientOptions...)

	built, err := client.Build(ctx, catalog, opts...)
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	debugctx.Printf(ctx, "session opened resources=%d otlp=%t", len(built.ResourceNames()), endpoint != "")
	return &Session{
		Catalog:         catalog,
		Client:          built,
		Registry:        registry,
		shutdownTracing: shutdown,
	}, nil
}

func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.Client != nil {
		errs = append(errs, s.Client.Close())
	}
	if s.shutdownTracing != nil {
		errs = append(errs, s.shutdownTracing(ctx))
	}
	return errors.Join(errs...)
}
