package file

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/yamlutil"
)

func decodeCatalogFile(path string) (config.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config.Catalog{}, notFoundError("catalog file "+path+" not found", err)
		}
		return config.Catalog{}, internalError("failed to read catalog file", err)
	}
	return DecodeCatalog(data)
}

// DecodeCatalog decodes a YAML catalog, rejecting unknown fields.
func DecodeCatalog(data []byte) (config.Catalog, error) {
	var catalog config.Catalog
	if err := yamlutil.DecodeStrict(data, &catalog); err != nil {
		return config.Catalog{}, validationError("invalid catalog yaml", err)
	}

	return catalog, nil
}

func EncodeCatalog(catalog config.Catalog) ([]byte, error) {
	data, err := yamlutil.Marshal(catalog)
	if err != nil {
		return nil, internalError("failed to encode catalog", err)
	}
	return data, nil
}

func resolveCatalogPath(explicitPath string, envPath string) (string, error) {
	path := strings.TrimSpace(explicitPath)
	if path == "" {
		path = strings.TrimSpace(envPath)
	}
	if path == "" {
		path = config.DefaultCatalogPath
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", internalError("failed to resolve user home directory", err)
		}
		path = filepath.Join(homeDir, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == "." {
		return "", validationError("catalog path is invalid", errors.New("resolved to current directory"))
	}
	return cleanPath, nil
}
