package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	require.NoError(t, Setup(Config{Level: "debug", Console: true}))
	defer func() { _ = Setup(Config{Level: "debug"}) }()
	w, console := output()
	assert.True(t, console)
	assert.Equal(t, os.Stdout, w)
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestJSONOutputCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newZerolog(&buf, "scheduler", false)
	l.Infof("planned %d fields", 3)
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "scheduler", m["component"])
	assert.Equal(t, "planned 3 fields", m["message"])
	assert.Equal(t, "info", m["level"])
}

func TestSetupLevelAndFile(t *testing.T) {
	defer func() { _ = Setup(Config{Level: zerolog.DebugLevel.String()}) }()
	assert.Error(t, Setup(Config{Level: "loud"}))
	assert.Error(t, Config{Level: "loud"}.Validate())

	path := filepath.Join(t.TempDir(), "skyplan.log")
	require.NoError(t, Setup(Config{Level: "warn", File: path}))
	l := NewZerologLogger("file")
	l.Infof("hidden")
	l.Warnf("shown")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}
