package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	LogLevel.Set(slog.LevelInfo)

	buf := &bytes.Buffer{}
	l := New(buf)

	l.Debug("hidden")
	l.Info("processed submission", "key", "summer-2023/original/07/03/07_03.jpg")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug should be filtered")

	record := map[string]any{}
	require.NoError(t, json.Unmarshal(lines[0], &record))

	assert.Equal(t, "processed submission", record["msg"])
	assert.Equal(t, "summer-2023/original/07/03/07_03.jpg", record["key"])
	assert.Contains(t, record, "source")
}
