package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ozzus/nsca-agent/internal/lib/logger/sl"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"password", slog.String("password", "hunter2"), redactedValue},
		{"nsca password", slog.String("nsca_password", "hunter2"), redactedValue},
		{"api key", slog.String("APIKey", "abc"), redactedValue},
		{"empty secret kept", slog.String("secret", ""), ""},
		{"plain", slog.String("host", "example-server"), "example-server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(nil, tt.attr)
			assert.Equal(t, tt.want, got.Value.String())
		})
	}
}

func TestRedactGroup(t *testing.T) {
	a := slog.Group("nsca", slog.String("address", "localhost:5667"), slog.String("password", "pw"))
	got := Redact(nil, a)

	attrs := got.Value.Group()
	require.Len(t, attrs, 2)
	assert.Equal(t, "localhost:5667", attrs[0].Value.String())
	assert.Equal(t, redactedValue, attrs[1].Value.String())
}

func TestNewJSONRedactsAndFollowsLevel(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	log := New(EnvProd, &buf, level)

	log.Debug("hidden")
	assert.Zero(t, buf.Len())

	log.Info("configured", "password", "hunter2", sl.Err(errors.New("boom")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "configured", entry["msg"])
	assert.Equal(t, redactedValue, entry["password"])
	assert.Equal(t, "boom", entry["error"])

	buf.Reset()
	level.Set(slog.LevelDebug)
	log.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewPrettyRedacts(t *testing.T) {
	var buf bytes.Buffer
	log := New(EnvLocal, &buf, nil)

	log.With("token", "t0k3n").Info("hello", "password", "hunter2", "host", "web-01")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "web-01")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "t0k3n")
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel(" WARN ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}
