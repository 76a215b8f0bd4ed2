package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	base := zap.NewExample()
	if got := FromContext(context.Background(), base); got != base {
		t.Fatalf("expected fallback logger")
	}
	if got := FromContext(context.Background(), nil); got == nil {
		t.Fatalf("expected nop logger, got nil")
	}

	scoped := base.With(zap.String("run_id", "r1"))
	ctx := WithContext(context.Background(), scoped)
	if got := FromContext(ctx, base); got != scoped {
		t.Fatalf("expected scoped logger from context")
	}
}
