package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/faults"
)

// BuildTLSConfig returns nil when settings is nil so callers keep the default
// client TLS behavior. scope prefixes the config keys in error messages.
func BuildTLSConfig(settings *config.TLS, scope string) (*tls.Config, error) {
	if settings == nil {
		return nil, nil
	}

	tlsConfig := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: settings.InsecureSkipVerify, //nolint:gosec // opt-in for test servers
	}

	if caFile := strings.TrimSpace(settings.CACertFile); caFile != "" {
		pool, err := loadCertPool(caFile, scope)
		if err != nil {
			return nil, err
		}
		tlsConfig.RootCAs = pool
	}

	certFile := strings.TrimSpace(settings.ClientCertFile)
	keyFile := strings.TrimSpace(settings.ClientKeyFile)
	if (certFile == "") != (keyFile == "") {
		return nil, validationError(fmt.Sprintf("%s.tls requires both client-cert-file and client-key-file", scope), nil)
	}
	if certFile != "" {
		certificate, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, validationError(fmt.Sprintf("%s.tls client certificate pair is invalid", scope), err)
		}
		tlsConfig.Certificates = []tls.Certificate{certificate}
	}

	return tlsConfig, nil
}

func loadCertPool(path string, scope string) (*x509.CertPool, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, validationError(fmt.Sprintf("%s.tls.ca-cert-file could not be read", scope), err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBytes) {
		return nil, validationError(fmt.Sprintf("%s.tls.ca-cert-file is not valid PEM", scope), nil)
	}
	return pool, nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
