package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newSlogBuffer(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	log, buf := newSlogBuffer(slog.LevelDebug)
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	out := buf.String()
	for _, want := range []string{
		"level=DEBUG msg=dbg a=1",
		"level=INFO msg=inf b=2",
		"level=WARN msg=wrn c=3",
		"level=ERROR msg=err d=4",
	} {
		assert.Contains(t, out, want)
	}
}

func TestSlogLogger_FiltersBelowLevel(t *testing.T) {
	log, buf := newSlogBuffer(slog.LevelInfo)
	log.Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())
}

func TestSlogLogger_WithAndContextAttrs(t *testing.T) {
	log, buf := newSlogBuffer(slog.LevelDebug)

	ctx := ContextWith(context.Background(), "request_id", "req-1")
	ctx = ContextWith(ctx, "user_id", "u-7")
	log.With("module", "users").Info(ctx, "login", "ok", true)

	assert.Contains(t, buf.String(), "msg=login module=users request_id=req-1 user_id=u-7 ok=true")
}

func TestNew_Formats(t *testing.T) {
	var buf bytes.Buffer

	New(FormatJSON, &buf).Info(context.Background(), "j")
	assert.Contains(t, buf.String(), `"msg":"j"`)

	buf.Reset()
	New(FormatText, &buf).Info(context.Background(), "t")
	assert.Contains(t, buf.String(), "msg=t")

	buf.Reset()
	New(FormatZerolog, &buf).Info(context.Background(), "z")
	assert.Contains(t, buf.String(), `"message":"z"`)
}
