package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger("loud", "")
	assert.Error(t, err)
}

func TestNewLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gateway.log")
	l, err := NewLogger("info", path)
	require.NoError(t, err)

	l.Debug("不应写入")
	l.Info("转发聊天请求", zap.String("mode", "work"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "转发聊天请求", entry["msg"])
	assert.Equal(t, "work", entry["mode"])
	assert.Contains(t, entry, "timestamp")
}
