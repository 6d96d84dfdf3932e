package action

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/crmarques/restresource/faults"
)

type callbackRecorder struct {
	calls []string
}

func (r *callbackRecorder) callback(label string) func() {
	return func() { r.calls = append(r.calls, label) }
}

// fired invokes the resolved callbacks and reports which labels they carried.
func (r *callbackRecorder) fired(call Call) (string, string) {
	r.calls = nil
	success, failure := "", ""
	if call.OnSuccess != nil {
		call.OnSuccess(nil, nil)
		success = r.calls[len(r.calls)-1]
	}
	if call.OnError != nil {
		call.OnError(errors.New("x"))
		failure = r.calls[len(r.calls)-1]
	}
	return success, failure
}

func TestResolve(t *testing.T) {
	t.Parallel()

	params := map[string]any{"id": 1}
	data := map[string]any{"name": "X"}

	tests := []struct {
		name        string
		hasBody     bool
		args        func(r *callbackRecorder) []any
		wantParams  map[string]any
		wantData    any
		wantSuccess string
		wantError   string
	}{
		{
			name:       "no_args",
			args:       func(*callbackRecorder) []any { return nil },
			wantParams: map[string]any{},
		},
		{
			name:        "one_callable_is_success",
			args:        func(r *callbackRecorder) []any { return []any{r.callback("s")} },
			wantParams:  map[string]any{},
			wantSuccess: "s",
		},
		{
			name:       "one_object_without_body_is_params",
			args:       func(*callbackRecorder) []any { return []any{params} },
			wantParams: params,
		},
		{
			name:       "one_object_with_body_is_data",
			hasBody:    true,
			args:       func(*callbackRecorder) []any { return []any{data} },
			wantParams: map[string]any{},
			wantData:   data,
		},
		{
			name:        "two_callables_are_success_and_error",
			args:        func(r *callbackRecorder) []any { return []any{r.callback("s"), r.callback("e")} },
			wantParams:  map[string]any{},
			wantSuccess: "s",
			wantError:   "e",
		},
		{
			name:        "params_and_success",
			args:        func(r *callbackRecorder) []any { return []any{params, r.callback("s")} },
			wantParams:  params,
			wantSuccess: "s",
		},
		{
			name:        "data_and_success_with_body",
			hasBody:     true,
			args:        func(r *callbackRecorder) []any { return []any{data, r.callback("s")} },
			wantParams:  map[string]any{},
			wantData:    data,
			wantSuccess: "s",
		},
		{
			name:       "params_and_data",
			args:       func(*callbackRecorder) []any { return []any{params, data} },
			wantParams: params,
			wantData:   data,
		},
		{
			name:        "params_data_success",
			args:        func(r *callbackRecorder) []any { return []any{params, data, r.callback("s")} },
			wantParams:  params,
			wantData:    data,
			wantSuccess: "s",
		},
		{
			name:        "params_success_error",
			args:        func(r *callbackRecorder) []any { return []any{params, r.callback("s"), r.callback("e")} },
			wantParams:  params,
			wantSuccess: "s",
			wantError:   "e",
		},
		{
			name:        "data_success_error_with_body",
			hasBody:     true,
			args:        func(r *callbackRecorder) []any { return []any{data, r.callback("s"), r.callback("e")} },
			wantParams:  map[string]any{},
			wantData:    data,
			wantSuccess: "s",
			wantError:   "e",
		},
		{
			name: "three_callables_use_first_two",
			args: func(r *callbackRecorder) []any {
				return []any{r.callback("s"), r.callback("e"), r.callback("ignored")}
			},
			wantParams:  map[string]any{},
			wantSuccess: "s",
			wantError:   "e",
		},
		{
			name: "full_signature",
			args: func(r *callbackRecorder) []any {
				return []any{params, data, r.callback("s"), r.callback("e")}
			},
			wantParams:  params,
			wantData:    data,
			wantSuccess: "s",
			wantError:   "e",
		},
		{
			name: "four_args_leading_callables_win",
			args: func(r *callbackRecorder) []any {
				return []any{r.callback("s"), r.callback("e"), r.callback("x"), r.callback("y")}
			},
			wantParams:  map[string]any{},
			wantSuccess: "s",
			wantError:   "e",
		},
		{
			name: "four_args_object_then_callables",
			args: func(r *callbackRecorder) []any {
				return []any{params, r.callback("s"), r.callback("e"), r.callback("late")}
			},
			wantParams:  params,
			wantSuccess: "s",
			wantError:   "e",
		},
		{
			name:       "nil_params_default_to_empty",
			args:       func(*callbackRecorder) []any { return []any{nil, data} },
			wantParams: map[string]any{},
			wantData:   data,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			recorder := &callbackRecorder{}
			call, err := Resolve(tt.hasBody, tt.args(recorder)...)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if !reflect.DeepEqual(call.Params, tt.wantParams) {
				t.Fatalf("expected params %#v, got %#v", tt.wantParams, call.Params)
			}
			if !reflect.DeepEqual(call.Data, tt.wantData) {
				t.Fatalf("expected data %#v, got %#v", tt.wantData, call.Data)
			}
			success, failure := recorder.fired(call)
			if success != tt.wantSuccess {
				t.Fatalf("expected success %q, got %q", tt.wantSuccess, success)
			}
			if failure != tt.wantError {
				t.Fatalf("expected error %q, got %q", tt.wantError, failure)
			}
		})
	}
}

func TestResolveBadArgumentCount(t *testing.T) {
	t.Parallel()

	_, err := Resolve(false, 1, 2, 3, 4, 5)
	if !faults.IsCategory(err, faults.BadArgumentCount) {
		t.Fatalf("expected BadArgumentCount, got %v", err)
	}
	if !strings.Contains(err.Error(), "got 5 arguments") {
		t.Fatalf("expected actual count in message, got %q", err.Error())
	}

	_, err = Resolve(false, make([]any, 9)...)
	if err == nil || !strings.Contains(err.Error(), "got 9 arguments") {
		t.Fatalf("expected count 9 in message, got %v", err)
	}
}

func TestResolveRejectsMistypedArguments(t *testing.T) {
	t.Parallel()

	_, err := Resolve(false, "not-a-map")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error for scalar params, got %v", err)
	}

	_, err = Resolve(false, map[string]any{}, map[string]any{}, "not-callable")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error for non-callable success, got %v", err)
	}

	onlySuccess := SuccessFunc(func(any, http.Header) {})
	_, err = Resolve(false, onlySuccess, onlySuccess)
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected validation error for success func in error slot, got %v", err)
	}
}

func TestResolveCallbackAdapters(t *testing.T) {
	t.Parallel()

	var got any
	var gotErr error
	call, err := Resolve(false, func(value any) { got = value }, func(err error) { gotErr = err })
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	call.OnSuccess("value", nil)
	call.OnError(errors.New("failed"))
	if got != "value" || gotErr == nil || gotErr.Error() != "failed" {
		t.Fatalf("adapters did not forward arguments: %v %v", got, gotErr)
	}
}

func TestResolveInstance(t *testing.T) {
	t.Parallel()

	recorder := &callbackRecorder{}
	call, err := ResolveInstance(recorder.callback("s"), recorder.callback("e"))
	if err != nil {
		t.Fatalf("ResolveInstance returned error: %v", err)
	}
	if len(call.Params) != 0 {
		t.Fatalf("expected empty params, got %#v", call.Params)
	}
	if success, failure := recorder.fired(call); success != "s" || failure != "e" {
		t.Fatalf("expected shifted callbacks, got %q %q", success, failure)
	}

	call, err = ResolveInstance(map[string]any{"force": true}, recorder.callback("s"))
	if err != nil {
		t.Fatalf("ResolveInstance returned error: %v", err)
	}
	if call.Params["force"] != true {
		t.Fatalf("expected params, got %#v", call.Params)
	}
	if success, failure := recorder.fired(call); success != "s" || failure != "" {
		t.Fatalf("unexpected callbacks %q %q", success, failure)
	}

	_, err = ResolveInstance(1, 2, 3, 4)
	if !faults.IsCategory(err, faults.BadArgumentCount) {
		t.Fatalf("expected BadArgumentCount, got %v", err)
	}
}

func TestNamedBuilders(t *testing.T) {
	t.Parallel()

	params := map[string]any{"id": 1}
	if call := WithParams(params, nil, nil); !reflect.DeepEqual(call.Params, params) || call.Data != nil {
		t.Fatalf("unexpected WithParams call %#v", call)
	}
	if call := WithData("d", nil, nil); call.Data != "d" || len(call.Params) != 0 {
		t.Fatalf("unexpected WithData call %#v", call)
	}
	if call := WithParamsAndData(params, "d", nil, nil); call.Data != "d" || call.Params["id"] != 1 {
		t.Fatalf("unexpected WithParamsAndData call %#v", call)
	}
	if call := WithSuccess(func(any, http.Header) {}, nil); call.OnSuccess == nil || call.Params == nil {
		t.Fatalf("unexpected WithSuccess call %#v", call)
	}
}

func TestDefaultsAndMerge(t *testing.T) {
	t.Parallel()

	defaults := Defaults()
	if !defaults[Query].IsArray || defaults[Query].Method != http.MethodGet {
		t.Fatalf("unexpected query default %#v", defaults[Query])
	}
	if !defaults[Save].HasBody() || defaults[Get].HasBody() {
		t.Fatalf("unexpected body semantics for defaults")
	}

	merged := Merge(defaults, map[string]Descriptor{
		Get:      {Method: "get", IsArray: true},
		"update": {Method: http.MethodPut},
	})
	if !merged[Get].IsArray || merged[Get].NormalizedMethod() != http.MethodGet {
		t.Fatalf("expected caller entry to override get, got %#v", merged[Get])
	}
	if len(merged) != 6 {
		t.Fatalf("expected 6 actions, got %d", len(merged))
	}
	if len(Defaults()[Get].Params) != 0 || Defaults()[Get].IsArray {
		t.Fatalf("merge must not mutate defaults")
	}
}
