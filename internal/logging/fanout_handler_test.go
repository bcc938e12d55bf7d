package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"asciireel/internal/logging"
)

func TestTeeHandlerRespectsPerHandlerLevels(t *testing.T) {
	var infoBuf, warnBuf bytes.Buffer
	infoHandler := slog.NewTextHandler(&infoBuf, &slog.HandlerOptions{Level: slog.LevelInfo})
	warnHandler := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(logging.TeeHandler(infoHandler, nil, warnHandler)).With("component", "play")
	logger.Info("pass started")
	logger.Warn("audio unavailable")

	if !strings.Contains(infoBuf.String(), "pass started") || !strings.Contains(infoBuf.String(), "audio unavailable") {
		t.Fatalf("info handler missing records: %q", infoBuf.String())
	}
	if strings.Contains(warnBuf.String(), "pass started") {
		t.Fatalf("warn handler received info record: %q", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "component=play") {
		t.Fatalf("expected attrs propagated, got %q", warnBuf.String())
	}
}

func TestTeeHandlerWithoutHandlersDiscards(t *testing.T) {
	handler := logging.TeeHandler()
	if handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("expected empty tee to discard")
	}
}
