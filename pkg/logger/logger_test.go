package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestErrorCarriesContextFieldsAndStack(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "cart", Level: "debug", Format: FormatJSON, Output: buf})

	ctx := log.WithRequestID(context.Background(), "req-123")
	ctx = log.WithCartItemID(ctx, "item-9")
	log.Error(ctx, "cart.remove_failed", errors.New("boom"))

	entry := decodeLine(t, buf)
	require.Equal(t, "cart", entry["service"])
	require.Equal(t, "req-123", entry["request_id"])
	require.Equal(t, "item-9", entry["cart_item_id"])
	require.Equal(t, "boom", entry["error"])
	require.Equal(t, "error", entry["level"])
	require.Contains(t, entry, "stack")
}

func TestDerivedContextsDoNotLeakFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{ServiceName: "catalog", Format: FormatJSON, Output: buf})

	parent := log.WithRequestID(context.Background(), "req-1")
	_ = log.WithBookID(parent, "book-a")
	log.Info(parent, "book.listed")

	entry := decodeLine(t, buf)
	require.Equal(t, "req-1", entry["request_id"])
	require.NotContains(t, entry, "book_id")
}

func TestWarnStackToggle(t *testing.T) {
	buf := &bytes.Buffer{}
	New(Options{Format: FormatJSON, Output: buf, WarnStack: true}).Warn(context.Background(), "warny")
	require.Contains(t, decodeLine(t, buf), "stack")

	buf.Reset()
	New(Options{Format: FormatJSON, Output: buf}).Warn(context.Background(), "warny")
	require.NotContains(t, decodeLine(t, buf), "stack")
}

func TestLevelFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Level: "info", Format: FormatJSON, Output: buf})
	log.Debug(context.Background(), "hidden")
	require.Zero(t, buf.Len())

	Nop().Error(context.Background(), "ignored", errors.New("x"))
}

func TestUnsetLevelDefaultsToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(Options{Format: FormatJSON, Output: buf})
	log.Debug(context.Background(), "hidden")
	require.Zero(t, buf.Len(), "debug must be filtered when no level is configured")

	log.Info(context.Background(), "shown")
	require.Equal(t, "info", decodeLine(t, buf)["level"])
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.InfoLevel, ParseLevel(""))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("invalid"))
	require.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "))
	require.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
}
