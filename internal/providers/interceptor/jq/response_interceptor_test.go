package jq

import (
	"reflect"
	"testing"

	"github.com/crmarques/restresource/action"
	"github.com/crmarques/restresource/faults"
	"github.com/crmarques/restresource/resource"
)

func TestResponseInterceptorValidation(t *testing.T) {
	t.Parallel()

	t.Run("empty_expression", func(t *testing.T) {
		t.Parallel()

		_, err := ResponseInterceptor("  ")
		if !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("parse_error", func(t *testing.T) {
		t.Parallel()

		_, err := ResponseInterceptor(".name |")
		if !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestResponseInterceptorOnInstance(t *testing.T) {
	t.Parallel()

	intercept, err := ResponseInterceptor(`{name: .name, next: (.id + 1), status: $status, cached: $cached}`)
	if err != nil {
		t.Fatalf("ResponseInterceptor returned error: %v", err)
	}

	instance := resource.NewInstance(map[string]any{"id": int64(7), "name": "X"})
	value, err := intercept(action.Response{Resource: instance, Status: 200})
	if err != nil {
		t.Fatalf("interceptor returned error: %v", err)
	}

	expected := map[string]any{"name": "X", "next": 8, "status": 200, "cached": false}
	if !reflect.DeepEqual(value, expected) {
		t.Fatalf("expected %#v, got %#v", expected, value)
	}
}

func TestResponseInterceptorOnCollection(t *testing.T) {
	t.Parallel()

	collection := resource.NewCollection()
	collection.Replace([]map[string]any{{"name": "a"}, {"name": "b"}})

	t.Run("single_result", func(t *testing.T) {
		t.Parallel()

		intercept, err := ResponseInterceptor(`map(.name)`)
		if err != nil {
			t.Fatalf("ResponseInterceptor returned error: %v", err)
		}
		value, err := intercept(action.Response{Resource: collection, Cached: true})
		if err != nil {
			t.Fatalf("interceptor returned error: %v", err)
		}
		if !reflect.DeepEqual(value, []any{"a", "b"}) {
			t.Fatalf("unexpected value %#v", value)
		}
	})

	t.Run("multiple_results", func(t *testing.T) {
		t.Parallel()

		intercept, err := ResponseInterceptor(`.[].name`)
		if err != nil {
			t.Fatalf("ResponseInterceptor returned error: %v", err)
		}
		value, err := intercept(action.Response{Resource: collection})
		if err != nil {
			t.Fatalf("interceptor returned error: %v", err)
		}
		if !reflect.DeepEqual(value, []any{"a", "b"}) {
			t.Fatalf("unexpected value %#v", value)
		}
	})

	t.Run("no_results", func(t *testing.T) {
		t.Parallel()

		intercept, err := ResponseInterceptor(`empty`)
		if err != nil {
			t.Fatalf("ResponseInterceptor returned error: %v", err)
		}
		value, err := intercept(action.Response{Resource: collection})
		if err != nil || value != nil {
			t.Fatalf("expected nil value, got %#v %v", value, err)
		}
	})
}

func TestResponseInterceptorRuntimeError(t *testing.T) {
	t.Parallel()

	intercept, err := ResponseInterceptor(`error("rejected")`)
	if err != nil {
		t.Fatalf("ResponseInterceptor returned error: %v", err)
	}

	_, err = intercept(action.Response{Resource: resource.NewInstance(nil)})
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
