package debugctx

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"
)

func TestPrintfDisabled(t *testing.T) {
	t.Parallel()

	var buffer bytes.Buffer
	ctx := WithWriter(context.Background(), &buffer)
	Printf(ctx, "cache hit id=%d", 7)

	if buffer.Len() != 0 {
		t.Fatalf("expected no output while disabled, got %q", buffer.String())
	}
}

func TestPrintfEnabled(t *testing.T) {
	t.Parallel()

	var lines []string
	logger := funcr.New(func(prefix, args string) {
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	ctx := WithEnabled(WithLogger(context.Background(), logger), true)
	Printf(ctx, "  cache hit id=%d  ", 7)
	Printf(ctx, "   ")

	if len(lines) != 1 {
		t.Fatalf("expected one line, got %#v", lines)
	}
	if !strings.Contains(lines[0], "cache hit id=7") {
		t.Fatalf("expected trimmed message, got %q", lines[0])
	}
}

func TestLoggerWithoutContextLogger(t *testing.T) {
	t.Parallel()

	ctx := WithEnabled(context.Background(), true)
	logger := Logger(ctx)
	if logger.GetSink() != nil {
		t.Fatalf("expected discard logger when no logger is installed")
	}
	var nilCtx context.Context
	if Enabled(nilCtx) {
		t.Fatalf("nil context must report disabled")
	}
}
