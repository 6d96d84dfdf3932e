package factory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-logr/logr"

	"github.com/crmarques/restresource/action"
	"github.com/crmarques/restresource/cache"
	"github.com/crmarques/restresource/debugctx"
	"github.com/crmarques/restresource/params"
	"github.com/crmarques/restresource/resource"
	"github.com/crmarques/restresource/route"
	"github.com/crmarques/restresource/transport"
)

// Dependencies are the external collaborators every resource is built on.
type Dependencies struct {
	Transport transport.Transport
	Cache     cache.Provider
}

type Option func(*options)

type options struct {
	logger   *logr.Logger
	recorder Recorder
}

// WithLogger routes pipeline debug lines to logger instead of the context
// logger.
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// Resource is a generated client for one remote resource type. It exposes one
// entry point per action through Invoke and the per-instance shorthand
// through InvokeOn.
type Resource struct {
	namespace string
	template  *route.Template
	defaults  map[string]any
	actions   map[string]action.Descriptor
	cache     cache.Adapter
	deps      Dependencies
	opts      options
}

// New builds a resource bound to cacheNamespace. Caller actions are merged over
// the default get/save/query/remove/delete table.
func New(
	deps Dependencies,
	cacheNamespace string,
	urlTemplate string,
	defaultParams map[string]any,
	actions map[string]action.Descriptor,
	opts ...Option,
) (*Resource, error) {
	if deps.Transport == nil {
		return nil, validationError("transport is required", nil)
	}
	if deps.Cache == nil {
		return nil, validationError("cache provider is required", nil)
	}
	namespace := strings.TrimSpace(cacheNamespace)
	if namespace == "" {
		return nil, validationError("cache namespace is required", nil)
	}

	template, err := route.Compile(urlTemplate)
	if err != nil {
		return nil, err
	}

	merged := action.Merge(action.Defaults(), actions)
	for name, descriptor := range merged {
		if strings.TrimSpace(descriptor.Method) == "" {
			return nil, validationError(fmt.Sprintf("action %q has no HTTP method", name), nil)
		}
		if descriptor.URL != "" {
			if _, err := route.Compile(descriptor.URL); err != nil {
				return nil, err
			}
		}
	}

	resolved := options{recorder: noopRecorder{}}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&resolved)
	}

	return &Resource{
		namespace: namespace,
		template:  template,
		defaults:  params.Merge(nil, defaultParams),
		actions:   merged,
		cache:     deps.Cache.Namespace(namespace),
		deps:      deps,
		opts:      resolved,
	}, nil
}

// Bind derives a resource with extra default params. Actions, template and
// cache namespace are shared.
func (r *Resource) Bind(additionalDefaults map[string]any) *Resource {
	derived := *r
	derived.defaults = params.Merge(r.defaults, additionalDefaults)
	return &derived
}

func (r *Resource) Namespace() string {
	return r.namespace
}

// Cache exposes the bound adapter so collaborators can pre-seed or
// invalidate entries.
func (r *Resource) Cache() cache.Adapter {
	return r.cache
}

func (r *Resource) Template() string {
	return r.template.String()
}

func (r *Resource) Defaults() map[string]any {
	return params.Merge(nil, r.defaults)
}

func (r *Resource) Action(name string) (action.Descriptor, bool) {
	descriptor, ok := r.actions[name]
	return descriptor, ok
}

func (r *Resource) ActionNames() []string {
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Peek returns a settled instance for a cached entity without any I/O.
func (r *Resource) Peek(id any) (*resource.Instance, bool) {
	cached, ok := r.cache.Get(id, nil)
	if !ok {
		return nil, false
	}
	fields, ok := cached.(map[string]any)
	if !ok {
		return nil, false
	}

	instance := resource.NewInstance(fields)
	instance.MarkPending(resource.ResolvedPromise(instance))
	instance.MarkResolved()
	return instance, true
}

func (r *Resource) logger(ctx context.Context) logr.Logger {
	if r.opts.logger != nil {
		return *r.opts.logger
	}
	return debugctx.Logger(ctx)
}
