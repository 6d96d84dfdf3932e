package http

import (
	"net/http"
	"strings"

	"github.com/crmarques/restresource/config"
)

type authMode int

const (
	authModeNone authMode = iota
	authModeBasic
	authModeBearer
	authModeCustomHeader
)

type authConfig struct {
	mode         authMode
	basicAuth    config.BasicAuth
	bearerToken  string
	customHeader config.HeaderTokenAuth
}

func buildAuthConfig(cfg *config.Auth) (authConfig, error) {
	if cfg == nil {
		return authConfig{}, nil
	}

	setCount := 0
	if strings.TrimSpace(cfg.BearerToken) != "" {
		setCount++
	}
	if cfg.BasicAuth != nil {
		setCount++
	}
	if cfg.CustomHeader != nil {
		setCount++
	}
	switch {
	case setCount == 0:
		return authConfig{}, nil
	case setCount > 1:
		return authConfig{}, validationError("transport.auth must define at most one auth mode", nil)
	}

	switch {
	case cfg.BasicAuth != nil:
		basic := *cfg.BasicAuth
		if basic.Username == "" || basic.Password == "" {
			return authConfig{}, validationError("transport.auth.basic-auth requires username and password", nil)
		}
		return authConfig{mode: authModeBasic, basicAuth: basic}, nil
	case cfg.CustomHeader != nil:
		custom := *cfg.CustomHeader
		if custom.Header == "" || custom.Token == "" {
			return authConfig{}, validationError("transport.auth.custom-header requires header and token", nil)
		}
		return authConfig{mode: authModeCustomHeader, customHeader: custom}, nil
	default:
		return authConfig{mode: authModeBearer, bearerToken: strings.TrimSpace(cfg.BearerToken)}, nil
	}
}

func (t *HTTPTransport) applyAuth(request *http.Request) {
	switch t.auth.mode {
	case authModeBasic:
		request.SetBasicAuth(t.auth.basicAuth.Username, t.auth.basicAuth.Password)
	case authModeBearer:
		request.Header.Set("Authorization", "Bearer "+t.auth.bearerToken)
	case authModeCustomHeader:
		request.Header.Set(t.auth.customHeader.Header, t.auth.customHeader.Token)
	}
}
