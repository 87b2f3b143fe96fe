package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOutput(t *testing.T) {
	defer SetOutput(os.Stderr)

	buf := new(bytes.Buffer)
	SetOutput(buf)

	Info("indexing run complete", "datasource", "wiki", "batches", 3)

	out := buf.String()
	assert.Contains(t, out, "indexing run complete")
	assert.Contains(t, out, "datasource")
	assert.Contains(t, out, "wiki")
}

func TestDebugFilteredAtDefaultLevel(t *testing.T) {
	defer SetOutput(os.Stderr)

	buf := new(bytes.Buffer)
	SetOutput(buf)

	Debug("should not appear")
	assert.Empty(t, buf.String())
}

func TestWith(t *testing.T) {
	defer SetOutput(os.Stderr)

	buf := new(bytes.Buffer)
	SetOutput(buf)

	Default().With("datasource", "wiki").Warn("batch size clamped")
	assert.Contains(t, buf.String(), "batch size clamped")
	assert.Contains(t, buf.String(), "wiki")
}
