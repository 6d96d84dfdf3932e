package action

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/crmarques/restresource/faults"
)

const maxArguments = 4

type SuccessFunc func(value any, headers http.Header)

type ErrorFunc func(err error)

// Call is the canonical (params, data, onSuccess, onError) request
// descriptor of one action invocation.
type Call struct {
	Params    map[string]any
	Data      any
	OnSuccess SuccessFunc
	OnError   ErrorFunc
}

func WithSuccess(onSuccess SuccessFunc, onError ErrorFunc) Call {
	return Call{Params: map[string]any{}, OnSuccess: onSuccess, OnError: onError}
}

func WithParams(params map[string]any, onSuccess SuccessFunc, onError ErrorFunc) Call {
	return Call{Params: params, OnSuccess: onSuccess, OnError: onError}
}

func WithData(data any, onSuccess SuccessFunc, onError ErrorFunc) Call {
	return Call{Params: map[string]any{}, Data: data, OnSuccess: onSuccess, OnError: onError}
}

func WithParamsAndData(params map[string]any, data any, onSuccess SuccessFunc, onError ErrorFunc) Call {
	return Call{Params: params, Data: data, OnSuccess: onSuccess, OnError: onError}
}

// Resolve maps up to four positional arguments onto a Call. Callables are
// detected by kind: a trailing pair of callables is (onSuccess, onError); a
// single non-callable is data for body-bearing methods and params otherwise.
func Resolve(hasBody bool, args ...any) (Call, error) {
	if len(args) > maxArguments {
		return Call{}, faults.NewTypedError(
			faults.BadArgumentCount,
			fmt.Sprintf("expected up to 4 arguments [params, data, success, error], got %d arguments", len(args)),
			nil,
		)
	}

	arg := func(idx int) any {
		if idx < len(args) {
			return args[idx]
		}
		return nil
	}

	var (
		params       any
		data         any
		success      any
		failure      any
		single       any
		resolveFirst bool
	)

	switch len(args) {
	case 4, 3, 2:
		if len(args) == 4 {
			failure = arg(3)
			success = arg(2)
		}
		a1, a2 := arg(0), arg(1)
		switch {
		case isCallable(a2) && isCallable(a1):
			success = a1
			failure = a2
		case isCallable(a2):
			success = a2
			failure = arg(2)
			single = a1
			resolveFirst = true
		default:
			params = a1
			data = a2
			success = arg(2)
		}
	case 1:
		single = arg(0)
		resolveFirst = true
	}

	if resolveFirst {
		switch {
		case isCallable(single):
			success = single
		case hasBody:
			data = single
		default:
			params = single
		}
	}

	return buildCall(params, data, success, failure)
}

// ResolveInstance maps the (params?, onSuccess?, onError?) arguments of an
// instance shorthand call. A leading callable shifts to (onSuccess, onError).
func ResolveInstance(args ...any) (Call, error) {
	if len(args) > maxArguments-1 {
		return Call{}, faults.NewTypedError(
			faults.BadArgumentCount,
			fmt.Sprintf("expected up to 3 arguments [params, success, error], got %d arguments", len(args)),
			nil,
		)
	}

	padded := make([]any, maxArguments-1)
	copy(padded, args)
	if isCallable(padded[0]) {
		return buildCall(nil, nil, padded[0], padded[1])
	}
	return buildCall(padded[0], nil, padded[1], padded[2])
}

func buildCall(params any, data any, success any, failure any) (Call, error) {
	call := Call{Data: data}

	switch typed := params.(type) {
	case nil:
		call.Params = map[string]any{}
	case map[string]any:
		call.Params = typed
	default:
		return Call{}, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("params must be an object, got %T", params), nil)
	}

	var err error
	if call.OnSuccess, err = asSuccess(success); err != nil {
		return Call{}, err
	}
	if call.OnError, err = asError(failure); err != nil {
		return Call{}, err
	}
	return call, nil
}

func isCallable(value any) bool {
	if value == nil {
		return false
	}
	reflected := reflect.ValueOf(value)
	return reflected.Kind() == reflect.Func && !reflected.IsNil()
}

func asSuccess(value any) (SuccessFunc, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case SuccessFunc:
		return typed, nil
	case func(any, http.Header):
		return typed, nil
	case func(any):
		return func(value any, _ http.Header) { typed(value) }, nil
	case func():
		return func(any, http.Header) { typed() }, nil
	}
	return nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("%T cannot be used as a success callback", value), nil)
}

func asError(value any) (ErrorFunc, error) {
	switch typed := value.(type) {
	case nil:
		return nil, nil
	case ErrorFunc:
		return typed, nil
	case func(error):
		return typed, nil
	case func():
		return func(error) { typed() }, nil
	}
	return nil, faults.NewTypedError(faults.ValidationError, fmt.Sprintf("%T cannot be used as an error callback", value), nil)
}
