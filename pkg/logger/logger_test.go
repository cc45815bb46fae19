package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_InvalidLevel(t *testing.T) {
	err := Init("loud", "json", "stdout")
	assert.Error(t, err)
}

func TestInit_InvalidFormat(t *testing.T) {
	err := Init("info", "xml", "stdout")
	assert.Error(t, err)
}

func TestInit_WritesJSONToFile(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Init("debug", "json", path))

	Info("recommendation served", zap.String("district", "Erode"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := string(data)
	assert.True(t, strings.Contains(line, `"message":"recommendation served"`))
	assert.True(t, strings.Contains(line, `"district":"Erode"`))
	assert.True(t, strings.Contains(line, `"logger":"subsidy-matcher"`))
}

func TestDefaultLoggerIsUsableWithoutInit(t *testing.T) {
	assert.NotPanics(t, func() {
		Named("test").Info("noop")
		Warn("noop")
	})
}
