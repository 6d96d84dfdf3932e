package file

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/debugctx"
)

var _ config.CatalogLoader = (*FileCatalogLoader)(nil)
var _ config.CatalogValidator = (*FileCatalogLoader)(nil)

// EnvOverrides are the environment variables that take precedence over the
// catalog file.
type EnvOverrides struct {
	ConfigPath   string        `env:"RESTRESOURCE_CONFIG"`
	BaseURL      string        `env:"RESTRESOURCE_BASE_URL"`
	Timeout      time.Duration `env:"RESTRESOURCE_TIMEOUT"`
	BearerToken  string        `env:"RESTRESOURCE_BEARER_TOKEN"`
	CacheBackend string        `env:"RESTRESOURCE_CACHE_BACKEND"`
	CachePath    string        `env:"RESTRESOURCE_CACHE_PATH"`
}

// ParseEnv reads EnvOverrides from environment, or from the process
// environment when environment is nil.
func ParseEnv(environment map[string]string) (EnvOverrides, error) {
	var overrides EnvOverrides

	opts := env.Options{}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(&overrides, opts); err != nil {
		return EnvOverrides{}, validationError("invalid environment overrides", err)
	}
	return overrides, nil
}

// ApplyOverrides returns catalog with every non-empty override applied. A
// bearer token override replaces any configured auth mode.
func ApplyOverrides(catalog config.Catalog, overrides EnvOverrides) config.Catalog {
	if overrides.BaseURL != "" {
		catalog.Transport.BaseURL = overrides.BaseURL
	}
	if overrides.Timeout != 0 {
		catalog.Transport.Timeout = overrides.Timeout
	}
	if overrides.BearerToken != "" {
		catalog.Transport.Auth = &config.Auth{BearerToken: overrides.BearerToken}
	}
	if overrides.CacheBackend != "" {
		catalog.Cache.Backend = overrides.CacheBackend
	}
	if overrides.CachePath != "" {
		catalog.Cache.Path = overrides.CachePath
	}
	return catalog
}

type FileCatalogLoader struct {
	path        string
	environment map[string]string
}

type LoaderOption func(*FileCatalogLoader)

// WithEnvironment replaces the process environment as the override source.
func WithEnvironment(environment map[string]string) LoaderOption {
	return func(l *FileCatalogLoader) {
		l.environment = environment
	}
}

// NewFileCatalogLoader reads path, or RESTRESOURCE_CONFIG, or the default
// catalog path, in that order.
func NewFileCatalogLoader(path string, opts ...LoaderOption) *FileCatalogLoader {
	loader := &FileCatalogLoader{path: path}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(loader)
	}
	return loader
}

func (l *FileCatalogLoader) Load(ctx context.Context) (config.Catalog, error) {
	overrides, err := ParseEnv(l.environment)
	if err != nil {
		return config.Catalog{}, err
	}

	path, err := resolveCatalogPath(l.path, overrides.ConfigPath)
	if err != nil {
		return config.Catalog{}, err
	}

	catalog, err := decodeCatalogFile(path)
	if err != nil {
		return config.Catalog{}, err
	}

	catalog = ApplyOverrides(catalog, overrides)
	if err := validateCatalog(catalog); err != nil {
		return config.Catalog{}, err
	}

	debugctx.Printf(ctx, "catalog loaded path=%q resources=%d cache=%q", path, len(catalog.Resources), catalog.Cache.EffectiveBackend())
	return catalog, nil
}

func (l *FileCatalogLoader) Validate(_ context.Context, catalog config.Catalog) error {
	return validateCatalog(catalog)
}
