package file

import (
	"fmt"
	"strings"

	"github.com/crmarques/restresource/config"
)

func validateCatalog(catalog config.Catalog) error {
	if strings.TrimSpace(catalog.Transport.BaseURL) == "" {
		return validationError("transport.base-url is required", nil)
	}
	if catalog.Transport.Timeout < 0 {
		return validationError("transport.timeout must not be negative", nil)
	}

	if err := validateCache(catalog.Cache); err != nil {
		return err
	}

	seen := map[string]struct{}{}
	for idx, item := range catalog.Resources {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return validationError(fmt.Sprintf("resources[%d].name must not be empty", idx), nil)
		}
		if _, exists := seen[name]; exists {
			return validationError(fmt.Sprintf("duplicate resource name %q", name), nil)
		}
		seen[name] = struct{}{}

		if err := validateResource(item); err != nil {
			return err
		}
	}
	return nil
}

func validateCache(cache config.Cache) error {
	switch cache.EffectiveBackend() {
	case config.CacheBackendMemory:
		return nil
	case config.CacheBackendSQLite:
		if strings.TrimSpace(cache.Path) == "" {
			return validationError("cache.path is required for the sqlite backend", nil)
		}
		return nil
	default:
		return validationError(fmt.Sprintf("cache.backend %q is not supported", cache.Backend), nil)
	}
}

func validateResource(item config.Resource) error {
	if strings.TrimSpace(item.URL) == "" {
		return validationError(fmt.Sprintf("resource %q url must not be empty", item.Name), nil)
	}

	for name, declared := range item.Actions {
		if strings.TrimSpace(name) == "" {
			return validationError(fmt.Sprintf("resource %q has an action without a name", item.Name), nil)
		}
		if strings.TrimSpace(declared.Method) == "" {
			return validationError(fmt.Sprintf("resource %q action %q method must not be empty", item.Name, name), nil)
		}
		if declared.Interceptor != nil && strings.TrimSpace(declared.Interceptor.ResponseJQ) == "" {
			return validationError(fmt.Sprintf("resource %q action %q interceptor.response-jq must not be empty", item.Name, name), nil)
		}
	}
	return nil
}
