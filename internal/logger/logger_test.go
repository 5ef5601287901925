package logger

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, LevelInfo))

	log.Info("label generated", "name", "pikachu", "id", 25)

	line := strings.TrimRight(buf.String(), "\n")
	ts, rest, ok := strings.Cut(line, " ")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(ts, "Z"), "UTC timestamp, got %q", ts)
	assert.Equal(t, "[INFO] label generated | name=pikachu, id=25", rest)
}

func TestHandlerNoAttrs(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, LevelInfo)).Warn("no attrs")
	assert.NotContains(t, buf.String(), "|")
	assert.Contains(t, buf.String(), "[WARN] no attrs")
}

func TestHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, LevelDebug))

	log.Log(context.Background(), LevelTrace, "hidden")
	log.Debug("shown")
	log.Error("bad")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[DEBUG] shown")
	assert.Contains(t, out, "[ERROR] bad")
}

func TestHandlerLevelVar(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(LevelWarn)
	log := slog.New(NewHandler(&buf, lv))

	log.Info("before")
	lv.Set(LevelInfo)
	log.Info("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
}

func TestHandlerWithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, LevelInfo)).With("query", "ditto").WithGroup("asset")

	log.Info("loaded", "key", "sprite")
	assert.Contains(t, buf.String(), "| query=ditto, asset.key=sprite")
}

func TestHandlerConcurrent(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, LevelInfo))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("line", "i", i)
		}()
	}
	wg.Wait()
	assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 20)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelTrace, ParseLevel("TRACE"))
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warn "))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
}

func TestNewWithFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "dexlabel.log")
	log, closer := New(Options{Level: "info", File: path, MaxSizeMB: 1, Console: &console})

	log.Info("to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] to both")
	assert.Contains(t, console.String(), "[INFO] to both")
}
