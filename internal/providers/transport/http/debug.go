package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/crmarques/restresource/debugctx"
)

func (t *HTTPTransport) doRequest(ctx context.Context, request *http.Request) (*http.Response, error) {
	debugctx.Printf(
		ctx,
		"http request method=%q url=%q request_id=%q",
		request.Method,
		redactURLForDebug(request.URL),
		request.Header.Get(requestIDHeader),
	)

	response, err := t.client.Do(request)
	if err != nil {
		debugctx.Printf(
			ctx,
			"http request failed method=%q url=%q error=%v",
			request.Method,
			redactURLForDebug(request.URL),
			err,
		)
		return nil, err
	}

	debugctx.Printf(
		ctx,
		"http response method=%q url=%q status=%d",
		request.Method,
		redactURLForDebug(request.URL),
		response.StatusCode,
	)
	return response, nil
}

func redactURLForDebug(value *url.URL) string {
	if value == nil {
		return ""
	}

	cloned := *value
	cloned.User = nil

	query := cloned.Query()
	if len(query) > 0 {
		for key, values := range query {
			redacted := make([]string, len(values))
			for idx := range values {
				redacted[idx] = "<redacted>"
			}
			query[key] = redacted
		}
		cloned.RawQuery = query.Encode()
	}

	return cloned.String()
}
