package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/crmarques/restresource/resource"
	"github.com/crmarques/restresource/route"
	"github.com/crmarques/restresource/transport"
)

// Send performs one HTTP exchange. Responses with status >= 400 are returned
// as transport.NewStatusError failures.
func (t *HTTPTransport) Send(ctx context.Context, request transport.Request) (transport.Response, error) {
	method := strings.ToUpper(strings.TrimSpace(request.Method))
	if method == "" {
		return transport.Response{}, validationError("request method is required", nil)
	}

	ctx, span := t.tracer.Start(
		ctx,
		"HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", request.Path),
		),
	)
	defer span.End()

	response, err := t.execute(ctx, method, request)
	if err != nil {
		if status := transport.StatusOf(err); status != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return transport.Response{}, err
	}

	span.SetAttributes(attribute.Int("http.response.status_code", response.Status))
	return response, nil
}

func (t *HTTPTransport) execute(ctx context.Context, method string, request transport.Request) (transport.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return transport.Response{}, transportError("rate limit wait failed", err)
		}
	}

	httpRequest, err := t.newRequest(ctx, method, request)
	if err != nil {
		return transport.Response{}, err
	}

	response, err := t.doRequest(ctx, httpRequest)
	if err != nil {
		return transport.Response{}, transportError("remote request failed", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes+1))
	if err != nil {
		return transport.Response{}, transportError("failed to read remote response body", err)
	}
	if len(body) > maxResponseBytes {
		return transport.Response{}, transportError(
			fmt.Sprintf("remote response body exceeds %d bytes", maxResponseBytes),
			nil,
		)
	}

	if response.StatusCode >= http.StatusBadRequest {
		return transport.Response{}, transport.NewStatusError(response.StatusCode, summarizeBody(body), response.Header.Clone())
	}

	data, err := decodeResponse(response.Header.Get("Content-Type"), body)
	if err != nil {
		return transport.Response{}, err
	}

	return transport.Response{
		Data:    data,
		Headers: response.Header.Clone(),
		Status:  response.StatusCode,
	}, nil
}

func (t *HTTPTransport) newRequest(ctx context.Context, method string, request transport.Request) (*http.Request, error) {
	targetURL, err := t.resolveRequestURL(request.Path, request.Query)
	if err != nil {
		return nil, err
	}

	requestBody, err := encodeRequestBody(request.Data)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if len(requestBody) > 0 {
		bodyReader = bytes.NewReader(requestBody)
	}

	httpRequest, err := http.NewRequestWithContext(ctx, method, targetURL, bodyReader)
	if err != nil {
		return nil, internalError("failed to create remote request", err)
	}

	httpRequest.Header.Set("Accept", defaultMediaType)
	if len(requestBody) > 0 {
		httpRequest.Header.Set("Content-Type", defaultMediaType)
	}
	setSortedHeaders(httpRequest.Header, t.defaultHeaders)
	setSortedHeaders(httpRequest.Header, request.Headers)
	if httpRequest.Header.Get(requestIDHeader) == "" {
		httpRequest.Header.Set(requestIDHeader, t.requestID())
	}
	t.applyAuth(httpRequest)

	return httpRequest, nil
}

// resolveRequestURL joins the base URL with an already encoded path. Query
// parameters use the same encoding as route templates.
func (t *HTTPTransport) resolveRequestURL(requestPath string, query map[string]any) (string, error) {
	if parsed, err := url.Parse(requestPath); err == nil && parsed.Scheme != "" {
		return "", validationError("request path must be relative to transport.base-url", nil)
	}

	rawPath, rawQuery, _ := strings.Cut(requestPath, "?")
	if rawPath != "" && !strings.HasPrefix(rawPath, "/") {
		rawPath = "/" + rawPath
	}

	target := strings.TrimRight(t.baseURL.String(), "/") + rawPath
	queries := make([]string, 0, 2)
	if rawQuery != "" {
		queries = append(queries, rawQuery)
	}
	if encoded := route.BuildQuery(query); encoded != "" {
		queries = append(queries, encoded)
	}
	if len(queries) > 0 {
		target += "?" + strings.Join(queries, "&")
	}

	if _, err := url.Parse(target); err != nil {
		return "", validationError("resolved request URL is invalid", err)
	}
	return target, nil
}

func setSortedHeaders(header http.Header, values map[string]string) {
	if len(values) == 0 {
		return
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		header.Set(key, values[key])
	}
}

func encodeRequestBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}

	switch typed := body.(type) {
	case []byte:
		return typed, nil
	case string:
		return []byte(typed), nil
	}

	normalized, err := resource.Normalize(body)
	if err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return nil, validationError("failed to encode JSON request body", err)
	}
	return encoded, nil
}

// decodeResponse decodes response bodies into plain values. Bodies declared
// as JSON, or without a content type, must decode. Other bodies are decoded
// when they parse and returned as a string otherwise.
func decodeResponse(contentType string, body []byte) (any, error) {
	value, err := resource.DecodeJSON(body)
	if err == nil {
		return value, nil
	}
	if isJSONMediaType(contentType) {
		return nil, transportError("remote response body is not valid JSON", err)
	}
	return string(body), nil
}

func isJSONMediaType(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == defaultMediaType || strings.HasSuffix(mediaType, "+json")
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "<empty>"
	}
	if len(trimmed) > 512 {
		return trimmed[:512] + "..."
	}
	return trimmed
}

func newRequestID() string {
	return uuid.NewString()
}
