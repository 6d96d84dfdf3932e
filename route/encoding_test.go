package route

import (
	"encoding/json"
	"testing"
)

func TestEncodeSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{name: "keeps_reserved_literals", value: "@:$,+", want: "@:$,+"},
		{name: "keeps_path_meaningful_literals", value: "a&b=c", want: "a&b=c"},
		{name: "space_is_percent_encoded", value: "a b", want: "a%20b"},
		{name: "slash_is_encoded", value: "a/b", want: "a%2Fb"},
		{name: "question_and_hash_encoded", value: "?#", want: "%3F%23"},
		{name: "unreserved_marks_untouched", value: "-_.!~*'()", want: "-_.!~*'()"},
		{name: "utf8_bytes", value: "é", want: "%C3%A9"},
		{name: "integer", value: 5, want: "5"},
		{name: "float", value: 2.50, want: "2.5"},
		{name: "json_number", value: json.Number("12"), want: "12"},
		{name: "bool", value: false, want: "false"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := EncodeSegment(tt.value); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEncodeQueryValue(t *testing.T) {
	t.Parallel()

	if got := EncodeQueryValue("a b", false); got != "a+b" {
		t.Fatalf("expected space as plus in query, got %q", got)
	}
	if got := EncodeQueryValue("a b", true); got != "a%20b" {
		t.Fatalf("expected percent-encoded space, got %q", got)
	}
	if got := EncodeQueryValue("a&b=c+d", false); got != "a%26b%3Dc%2Bd" {
		t.Fatalf("expected query delimiters encoded, got %q", got)
	}
	if got := EncodeQueryValue("x@y:z$,", false); got != "x@y:z$," {
		t.Fatalf("expected reserved literals restored, got %q", got)
	}
}

func TestBuildQuery(t *testing.T) {
	t.Parallel()

	got := BuildQuery(map[string]any{
		"b":      "two words",
		"a":      1,
		"filter": map[string]any{"k": "v"},
		"none":   nil,
	})
	want := "a=1&b=two+words&filter=%7B%22k%22:%22v%22%7D"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if BuildQuery(nil) != "" {
		t.Fatalf("expected empty query for nil map")
	}
}
