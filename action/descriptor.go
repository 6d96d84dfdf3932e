package action

import (
	"net/http"
	"strings"

	"github.com/crmarques/restresource/resource"
	"github.com/crmarques/restresource/transport"
)

const (
	Get    = "get"
	Save   = "save"
	Query  = "query"
	Remove = "remove"
	Delete = "delete"
)

// Descriptor declares one named verb of a resource.
type Descriptor struct {
	Method  string
	IsArray bool
	// Params are merged over the factory defaults.
	Params map[string]any
	// URL overrides the resource template for this action only.
	URL         string
	Headers     map[string]string
	Interceptor Interceptor
	// BypassCache skips the cache lookup; responses are still stored.
	BypassCache bool
}

func (d Descriptor) HasBody() bool {
	return transport.HasBody(d.Method)
}

func (d Descriptor) NormalizedMethod() string {
	return strings.ToUpper(strings.TrimSpace(d.Method))
}

// Response is what interceptors receive once the cache or the network has
// answered. Data, Headers and Status are empty for cache hits.
type Response struct {
	Resource resource.Target
	Data     any
	Headers  http.Header
	Status   int
	Cached   bool
}

// Interceptor transforms the outcome before it reaches the caller callbacks.
type Interceptor struct {
	// Response maps a settled response to the value handed to onSuccess and
	// the promise. Nil unwraps to Response.Resource.
	Response func(response Response) (any, error)
	// ResponseError may recover from a failure by returning a value. Nil
	// leaves the failure untouched.
	ResponseError func(err error) (any, error)
}

func DefaultResponseInterceptor(response Response) (any, error) {
	return response.Resource, nil
}

// Defaults returns the built-in action table.
func Defaults() map[string]Descriptor {
	return map[string]Descriptor{
		Get:    {Method: http.MethodGet},
		Save:   {Method: http.MethodPost},
		Query:  {Method: http.MethodGet, IsArray: true},
		Remove: {Method: http.MethodDelete},
		Delete: {Method: http.MethodDelete},
	}
}

// Merge returns the defaults overlaid with actions; entries with the same name
// replace the default entirely.
func Merge(defaults map[string]Descriptor, actions map[string]Descriptor) map[string]Descriptor {
	merged := make(map[string]Descriptor, len(defaults)+len(actions))
	for name, descriptor := range defaults {
		merged[name] = descriptor
	}
	for name, descriptor := range actions {
		merged[name] = descriptor
	}
	return merged
}
