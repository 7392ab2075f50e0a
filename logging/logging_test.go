package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerFormatsFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf).WithFields(Fields{"pass": "train"})

	l.Info("batch done", Fields{"batch": 3, "elapsed": "1s"})

	assert.Equal(t, "[INFO] batch done batch=3 elapsed=1s pass=train\n", buf.String())
}

func TestWriterLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)

	l.Debug("hidden")
	assert.Empty(t, buf.String())

	l.SetLevel(DebugLevel)
	l.Debug("shown")
	assert.Contains(t, buf.String(), "[DEBUG] shown")
}

func TestWriterLoggerError(t *testing.T) {
	var buf bytes.Buffer
	NewWriterLogger(&buf).Error(errors.New("boom"), "encode failed")

	assert.Equal(t, "[ERROR] encode failed: boom\n", buf.String())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel("ERROR"))
	assert.Equal(t, InfoLevel, ParseLevel("whatever"))
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	_, ok := GetGlobalLogger().(*NoOpLogger)
	assert.True(t, ok)
}
