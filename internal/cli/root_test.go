package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/crmarques/restresource/config"
	"github.com/crmarques/restresource/faults"
	filecatalog "github.com/crmarques/restresource/internal/providers/config/file"
)

type volumeServer struct {
	server    *httptest.Server
	calls     atomic.Int32
	abandoned chan struct{}
}

func newVolumeServer(t *testing.T) *volumeServer {
	t.Helper()

	vs := &volumeServer{abandoned: make(chan struct{}, 1)}
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			vs.calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			next.ServeHTTP(w, r)
		})
	})
	router.Get("/api/volume", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"alpha"},{"id":2,"name":"beta"}]`))
	})
	router.Get("/api/volume/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "slow" {
			select {
			case <-r.Context().Done():
				vs.abandoned <- struct{}{}
			case <-time.After(5 * time.Second):
			}
			return
		}
		if chi.URLParam(r, "id") == "404" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"missing"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":` + chi.URLParam(r, "id") + `,"name":"alpha"}`))
	})
	router.Post("/api/volume", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		body["id"] = 9
		_ = json.NewEncoder(w).Encode(body)
	})

	vs.server = httptest.NewServer(router)
	t.Cleanup(vs.server.Close)
	return vs
}

func writeCatalog(t *testing.T, baseURL string, cache config.Cache) string {
	t.Helper()

	catalog := config.Catalog{
		Transport: config.Transport{BaseURL: baseURL},
		Cache:     cache,
		Resources: []config.Resource{
			{
				Name:   "volume",
				URL:    "/api/volume/:id",
				Params: map[string]any{"id": "@id"},
				Actions: map[string]config.Action{
					"names": {
						Method:      http.MethodGet,
						IsArray:     true,
						URL:         "/api/volume",
						Interceptor: &config.Interceptor{ResponseJQ: "map(.name)"},
					},
				},
			},
		},
	}

	encoded, err := filecatalog.EncodeCatalog(catalog)
	if err != nil {
		t.Fatalf("EncodeCatalog returned error: %v", err)
	}
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, encoded, 0o600); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}
	return path
}

func testDependencies() Dependencies {
	return Dependencies{
		NewLoader: func(path string) config.CatalogLoader {
			return filecatalog.NewFileCatalogLoader(path, filecatalog.WithEnvironment(map[string]string{}))
		},
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	root := NewRootCommand(testDependencies())
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestInvokeCommand(t *testing.T) {
	t.Parallel()

	t.Run("get_prints_compact_json", func(t *testing.T) {
		t.Parallel()

		vs := newVolumeServer(t)
		catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

		stdout, _, err := runCLI(t, "", "--config", catalogPath, "invoke", "volume", "get", "-p", "id=7")
		if err != nil {
			t.Fatalf("invoke returned error: %v", err)
		}
		if got := strings.TrimSpace(stdout); got != `{"id":7,"name":"alpha"}` {
			t.Fatalf("unexpected output %q", got)
		}
	})

	t.Run("query_prints_yaml", func(t *testing.T) {
		t.Parallel()

		vs := newVolumeServer(t)
		catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

		stdout, _, err := runCLI(t, "", "--config", catalogPath, "-o", "yaml", "invoke", "volume", "query")
		if err != nil {
			t.Fatalf("invoke returned error: %v", err)
		}
		if !strings.Contains(stdout, "name: alpha") || !strings.Contains(stdout, "name: beta") {
			t.Fatalf("expected both volumes in yaml output, got:\n%s", stdout)
		}
	})

	t.Run("save_reads_payload_from_stdin", func(t *testing.T) {
		t.Parallel()

		vs := newVolumeServer(t)
		catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

		stdout, _, err := runCLI(t, `{"name":"gamma"}`, "--config", catalogPath, "invoke", "volume", "save", "-f", "-")
		if err != nil {
			t.Fatalf("invoke returned error: %v", err)
		}
		if got := strings.TrimSpace(stdout); got != `{"id":9,"name":"gamma"}` {
			t.Fatalf("unexpected output %q", got)
		}
	})

	t.Run("custom_action_applies_jq_interceptor", func(t *testing.T) {
		t.Parallel()

		vs := newVolumeServer(t)
		catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

		stdout, _, err := runCLI(t, "", "--config", catalogPath, "invoke", "volume", "names")
		if err != nil {
			t.Fatalf("invoke returned error: %v", err)
		}
		if got := strings.TrimSpace(stdout); got != `["alpha","beta"]` {
			t.Fatalf("unexpected output %q", got)
		}
	})

	t.Run("metrics_summary_on_stderr", func(t *testing.T) {
		t.Parallel()

		vs := newVolumeServer(t)
		catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

		_, stderr, err := runCLI(t, "", "--config", catalogPath, "--metrics", "invoke", "volume", "get", "-p", "id=7")
		if err != nil {
			t.Fatalf("invoke returned error: %v", err)
		}
		want := `restresource_transport_requests_total{action="get",method="GET",namespace="volume",outcome="ok"} 1`
		if !strings.Contains(stderr, want) {
			t.Fatalf("expected %q in stderr, got:\n%s", want, stderr)
		}
	})

	t.Run("status_error_maps_to_not_found", func(t *testing.T) {
		t.Parallel()

		vs := newVolumeServer(t)
		catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

		_, _, err := runCLI(t, "", "--config", catalogPath, "invoke", "volume", "get", "-p", "id=404")
		if err == nil {
			t.Fatal("expected error for missing volume")
		}
		if code := ExitCodeForError(err); code != 3 {
			t.Fatalf("expected exit code 3, got %d (%v)", code, err)
		}
	})

	t.Run("rejects_unknown_resource_and_action", func(t *testing.T) {
		t.Parallel()

		vs := newVolumeServer(t)
		catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

		_, _, err := runCLI(t, "", "--config", catalogPath, "invoke", "disk", "get")
		if !faults.IsCategory(err, faults.NotFoundError) {
			t.Fatalf("expected NotFoundError for unknown resource, got %v", err)
		}

		_, _, err = runCLI(t, "", "--config", catalogPath, "invoke", "volume", "resize")
		if !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("expected ValidationError for unknown action, got %v", err)
		}
		if vs.calls.Load() != 0 {
			t.Fatalf("expected no requests, got %d", vs.calls.Load())
		}
	})

	t.Run("rejects_payload_for_bodyless_action", func(t *testing.T) {
		t.Parallel()

		vs := newVolumeServer(t)
		catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

		_, _, err := runCLI(t, `{"id":7}`, "--config", catalogPath, "invoke", "volume", "get", "-f", "-")
		if !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("rejects_invalid_params", func(t *testing.T) {
		t.Parallel()

		_, _, err := runCLI(t, "", "invoke", "volume", "get", "-p", "id")
		if !faults.IsCategory(err, faults.ValidationError) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}

func TestSQLiteCacheSurvivesInvocations(t *testing.T) {
	t.Parallel()

	vs := newVolumeServer(t)
	catalogPath := writeCatalog(t, vs.server.URL, config.Cache{
		Backend: config.CacheBackendSQLite,
		Path:    filepath.Join(t.TempDir(), "cache.db"),
	})

	for range 2 {
		if _, _, err := runCLI(t, "", "--config", catalogPath, "invoke", "volume", "get", "-p", "id=7"); err != nil {
			t.Fatalf("invoke returned error: %v", err)
		}
	}
	if got := vs.calls.Load(); got != 1 {
		t.Fatalf("expected second invocation to be served from cache, got %d requests", got)
	}

	stdout, _, err := runCLI(t, "", "--config", catalogPath, "cache", "get", "volume", "7")
	if err != nil {
		t.Fatalf("cache get returned error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `{"id":7,"name":"alpha"}` {
		t.Fatalf("unexpected cached snapshot %q", got)
	}

	if _, _, err := runCLI(t, "", "--config", catalogPath, "cache", "invalidate", "volume", "7"); err != nil {
		t.Fatalf("cache invalidate returned error: %v", err)
	}
	_, _, err = runCLI(t, "", "--config", catalogPath, "cache", "get", "volume", "7")
	if !faults.IsCategory(err, faults.NotFoundError) {
		t.Fatalf("expected NotFoundError after invalidation, got %v", err)
	}
}

func TestCatalogCommands(t *testing.T) {
	t.Parallel()

	catalogPath := writeCatalog(t, "https://api.example.com", config.Cache{})

	t.Run("resources_lists_effective_actions", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "", "--config", catalogPath, "catalog", "resources")
		if err != nil {
			t.Fatalf("catalog resources returned error: %v", err)
		}
		if !strings.Contains(stdout, "volume") || !strings.Contains(stdout, "delete,get,names,query,remove,save") {
			t.Fatalf("unexpected resources output:\n%s", stdout)
		}
	})

	t.Run("show_prints_yaml", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "", "--config", catalogPath, "catalog", "show")
		if err != nil {
			t.Fatalf("catalog show returned error: %v", err)
		}
		if !strings.Contains(stdout, "base-url: https://api.example.com") {
			t.Fatalf("unexpected catalog output:\n%s", stdout)
		}
	})

	t.Run("validate_reports_resource_count", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := runCLI(t, "", "--config", catalogPath, "catalog", "validate")
		if err != nil {
			t.Fatalf("catalog validate returned error: %v", err)
		}
		if strings.TrimSpace(stdout) != "catalog is valid: 1 resources" {
			t.Fatalf("unexpected validate output %q", stdout)
		}
	})

	t.Run("missing_catalog_is_not_found", func(t *testing.T) {
		t.Parallel()

		_, _, err := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "none.yaml"), "catalog", "validate")
		if code := ExitCodeForError(err); code != 3 {
			t.Fatalf("expected exit code 3, got %d (%v)", code, err)
		}
	})
}

func TestRouteExpandCommand(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCLI(t, "", "route", "expand", "/api/volume/:id", "-p", "id=7,owner=ana")
	if err != nil {
		t.Fatalf("route expand returned error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != "/api/volume/7?owner=ana" {
		t.Fatalf("unexpected expansion %q", got)
	}

	stdout, _, err = runCLI(t, "", "-o", "json", "route", "expand", "/api/volume/:id")
	if err != nil {
		t.Fatalf("route expand returned error: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(stdout), &decoded); err != nil {
		t.Fatalf("expected json output, got %q: %v", stdout, err)
	}
	if decoded["path"] != "/api/volume" {
		t.Fatalf("expected elided id segment, got %#v", decoded)
	}
}

func TestRootRejectsInvalidOutputFormat(t *testing.T) {
	t.Parallel()

	_, _, err := runCLI(t, "", "-o", "xml", "version")
	if !faults.IsCategory(err, faults.ValidationError) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: 0},
		{name: "plain", err: errors.New("boom"), want: 1},
		{name: "validation", err: faults.NewTypedError(faults.ValidationError, "bad", nil), want: 2},
		{name: "bad_param_name", err: faults.NewTypedError(faults.BadParamName, "bad", nil), want: 2},
		{name: "not_found", err: faults.NewTypedError(faults.NotFoundError, "missing", nil), want: 3},
		{name: "auth", err: faults.NewTypedError(faults.AuthError, "denied", nil), want: 4},
		{name: "conflict", err: faults.NewTypedError(faults.ConflictError, "conflict", nil), want: 5},
		{name: "transport", err: faults.NewTypedError(faults.TransportError, "down", nil), want: 6},
		{name: "bad_response_shape", err: faults.NewTypedError(faults.BadResponseShape, "shape", nil), want: 7},
		{name: "internal", err: faults.NewTypedError(faults.InternalError, "oops", nil), want: 1},
		{name: "wrapped_status", err: faults.NewTypedError(faults.TransportError, "", faults.NewTypedError(faults.AuthError, "", nil)), want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExitCodeForError(tt.err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestInvokeFansOutOverIDs(t *testing.T) {
	t.Parallel()

	vs := newVolumeServer(t)
	catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

	stdout, _, err := runCLI(t, "", "--config", catalogPath, "invoke", "volume", "get", "--id", "7", "--id", "8")
	if err != nil {
		t.Fatalf("invoke returned error: %v", err)
	}
	if got := strings.TrimSpace(stdout); got != `[{"id":7,"name":"alpha"},{"id":8,"name":"alpha"}]` {
		t.Fatalf("unexpected output %q", got)
	}
	if vs.calls.Load() != 2 {
		t.Fatalf("expected two requests, got %d", vs.calls.Load())
	}

	_, _, err = runCLI(t, "", "--config", catalogPath, "invoke", "volume", "get", "--id", "7", "--id", "404")
	if ExitCodeForError(err) != 3 {
		t.Fatalf("expected not found exit code for a failed fan-out, got %d (%v)", ExitCodeForError(err), err)
	}
}

func TestInvokeWaitCancelsRoundTrip(t *testing.T) {
	t.Parallel()

	vs := newVolumeServer(t)
	catalogPath := writeCatalog(t, vs.server.URL, config.Cache{})

	_, _, err := runCLI(t, "", "--config", catalogPath, "invoke", "volume", "get", "-p", "id=slow", "--wait", "100ms")
	if err == nil {
		t.Fatal("expected timeout error")
	}

	select {
	case <-vs.abandoned:
	case <-time.After(3 * time.Second):
		t.Fatal("expected the pending request to be cancelled when the wait expired")
	}
}
