package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"clinicflow/subscription-service/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []map[string]interface{} {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	l := NewLogger(&Config{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSize: 1})

	helper := log.NewHelper(l)
	helper.Debugf("hidden %d", 1)
	helper.Infof("account %s upgraded", "acc-1")
	require.NoError(t, l.Log(log.LevelWarn, "account", "acc-2", "days"))
	require.NoError(t, l.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "account acc-1 upgraded", lines[0]["msg"])
	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "acc-2", lines[1]["account"])
	assert.Equal(t, "KEYVALS UNPAIRED", lines[1]["days"])
}

func TestLogger_WithKratosFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")
	l := NewFromConf(&conf.Log{Level: "debug", Output: "file", FilePath: path})

	log.NewHelper(log.With(l, "service.name", "subscription-service")).Error("boom")
	require.NoError(t, l.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "subscription-service", lines[0]["service.name"])
	assert.Equal(t, "boom", lines[0]["msg"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"fatal":   zerolog.FatalLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestLogger_CloseWithoutFile(t *testing.T) {
	l := NewFromConf(nil)
	assert.NoError(t, l.Close())
}
