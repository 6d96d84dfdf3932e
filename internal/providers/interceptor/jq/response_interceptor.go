package jq

import (
	"context"
	"strings"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/crmarques/restresource/action"
	"github.com/crmarques/restresource/faults"
	"github.com/crmarques/restresource/resource"
)

var codeCache sync.Map

// Variables bound while a response expression runs.
var variables = []string{"$status", "$cached"}

// ResponseInterceptor compiles expression into an action response
// interceptor. The expression receives the settled fields of the target
// (an object, or an array of objects for array actions) with $status and
// $cached bound. One result is returned as is, several as an array, none as
// nil.
func ResponseInterceptor(expression string) (func(action.Response) (any, error), error) {
	trimmed := strings.TrimSpace(expression)
	if trimmed == "" {
		return nil, validationError("response jq expression is empty", nil)
	}

	code, err := compile(trimmed)
	if err != nil {
		return nil, validationError("invalid response jq expression", err)
	}

	return func(response action.Response) (any, error) {
		input, err := targetInput(response)
		if err != nil {
			return nil, err
		}
		return Evaluate(context.Background(), code, input, response.Status, response.Cached)
	}, nil
}

// Evaluate runs a compiled response expression against input.
func Evaluate(ctx context.Context, code *gojq.Code, input any, status int, cached bool) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	iterator := code.RunWithContext(ctx, toJQValue(input), status, cached)
	results := make([]any, 0, 1)
	for {
		value, ok := iterator.Next()
		if !ok {
			break
		}
		if valueErr, isErr := value.(error); isErr {
			return nil, validationError("failed to evaluate response jq expression", valueErr)
		}
		results = append(results, value)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func compile(expression string) (*gojq.Code, error) {
	if cached, ok := codeCache.Load(expression); ok {
		if typed, ok := cached.(*gojq.Code); ok && typed != nil {
			return typed, nil
		}
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, err
	}
	code, err := gojq.Compile(query, gojq.WithVariables(variables))
	if err != nil {
		return nil, err
	}

	actual, _ := codeCache.LoadOrStore(expression, code)
	typed, _ := actual.(*gojq.Code)
	if typed == nil {
		return code, nil
	}
	return typed, nil
}

func targetInput(response action.Response) (any, error) {
	switch target := response.Resource.(type) {
	case *resource.Instance:
		return resource.Normalize(target.Snapshot())
	case *resource.Collection:
		items := target.Snapshot()
		values := make([]any, 0, len(items))
		for _, item := range items {
			values = append(values, item)
		}
		return resource.Normalize(values)
	case nil:
		return resource.Normalize(response.Data)
	default:
		return nil, validationError("unsupported response target for jq", nil)
	}
}

// toJQValue converts int64 numbers, which gojq does not accept, to int.
func toJQValue(value any) any {
	switch typed := value.(type) {
	case int64:
		return int(typed)
	case map[string]any:
		converted := make(map[string]any, len(typed))
		for key, item := range typed {
			converted[key] = toJQValue(item)
		}
		return converted
	case []any:
		converted := make([]any, len(typed))
		for idx, item := range typed {
			converted[idx] = toJQValue(item)
		}
		return converted
	}
	return value
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
