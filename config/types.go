package config

import "time"

const (
	CatalogFileEnvVar  = "RESTRESOURCE_CONFIG"
	DefaultCatalogPath = "~/.restresource/catalog.yaml"
	CacheBackendMemory = "memory"
	CacheBackendSQLite = "sqlite"
)

// Catalog declares the transport, the cache backend and the resources a
// client is generated for.
type Catalog struct {
	Transport Transport  `yaml:"transport"`
	Cache     Cache      `yaml:"cache,omitempty"`
	Resources []Resource `yaml:"resources"`
}

type Transport struct {
	BaseURL        string            `yaml:"base-url"`
	Timeout        time.Duration     `yaml:"timeout,omitempty"`
	DefaultHeaders map[string]string `yaml:"default-headers,omitempty"`
	Auth           *Auth             `yaml:"auth,omitempty"`
	RateLimit      *RateLimit        `yaml:"rate-limit,omitempty"`
	TLS            *TLS              `yaml:"tls,omitempty"`
}

// Auth holds at most one credential mode.
type Auth struct {
	BearerToken  string           `yaml:"bearer-token,omitempty"`
	BasicAuth    *BasicAuth       `yaml:"basic-auth,omitempty"`
	CustomHeader *HeaderTokenAuth `yaml:"custom-header,omitempty"`
}

type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type HeaderTokenAuth struct {
	Header string `yaml:"header"`
	Token  string `yaml:"token"`
}

type TLS struct {
	CACertFile         string `yaml:"ca-cert-file,omitempty"`
	ClientCertFile     string `yaml:"client-cert-file,omitempty"`
	ClientKeyFile      string `yaml:"client-key-file,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure-skip-verify,omitempty"`
}

type RateLimit struct {
	RequestsPerSecond float64 `yaml:"requests-per-second"`
	Burst             int     `yaml:"burst,omitempty"`
}

type Cache struct {
	Backend string `yaml:"backend,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// EffectiveBackend defaults an empty backend to memory.
func (c Cache) EffectiveBackend() string {
	if c.Backend == "" {
		return CacheBackendMemory
	}
	return c.Backend
}

type Resource struct {
	Name           string            `yaml:"name"`
	CacheNamespace string            `yaml:"cache-namespace,omitempty"`
	URL            string            `yaml:"url"`
	Params         map[string]any    `yaml:"params,omitempty"`
	Actions        map[string]Action `yaml:"actions,omitempty"`
}

// Namespace falls back to the resource name.
func (r Resource) Namespace() string {
	if r.CacheNamespace == "" {
		return r.Name
	}
	return r.CacheNamespace
}

type Action struct {
	Method      string            `yaml:"method"`
	IsArray     bool              `yaml:"is-array,omitempty"`
	URL         string            `yaml:"url,omitempty"`
	Params      map[string]any    `yaml:"params,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	BypassCache bool              `yaml:"bypass-cache,omitempty"`
	Interceptor *Interceptor      `yaml:"interceptor,omitempty"`
}

type Interceptor struct {
	ResponseJQ string `yaml:"response-jq,omitempty"`
}
