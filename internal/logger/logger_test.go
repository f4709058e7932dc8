package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ValidLevels(t *testing.T) {
	levels := []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

	for _, lvl := range levels {
		t.Run(lvl, func(t *testing.T) {
			log, err := New(lvl)
			assert.NoError(t, err, "expected no error for level %s", lvl)
			assert.NotNil(t, log)
			assert.IsType(t, &zap.SugaredLogger{}, log)

			assert.NotPanics(t, func() {
				log.Infow("test log", "level", lvl)
			})
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	log, err := New("not-a-level")
	assert.Error(t, err, "expected error for invalid log level")
	assert.Nil(t, log)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New("info", path)
	require.NoError(t, err)

	log.Infow("user registered", "username", "alice")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "user registered")
	assert.Contains(t, string(data), "alice")
}

func TestNew_CreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "app.log")

	log, err := New("info", path)
	require.NoError(t, err)

	log.Info("service started")
	_ = log.Sync()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewFileWriter_Rotation(t *testing.T) {
	w := newFileWriter("/tmp/app.log")

	assert.Equal(t, "/tmp/app.log", w.Filename)
	assert.Equal(t, 5, w.MaxSize)
	assert.Equal(t, 2, w.MaxBackups)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	assert.NotNil(t, log)
	assert.NotPanics(t, func() {
		log.Infow("nop logger test")
	})
}
