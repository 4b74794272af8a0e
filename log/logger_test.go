/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethosview/dashgate/internal/buildinfo"
)

func captureStd(t *testing.T, output Output, fn func()) []byte {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	if output == OutputStderr {
		old := os.Stderr
		os.Stderr = w
		defer func() { os.Stderr = old }()
	} else {
		old := os.Stdout
		os.Stdout = w
		defer func() { os.Stdout = old }()
	}

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	fn()
	_ = w.Close()
	return <-done
}

func TestLoggerToStd(t *testing.T) {
	tests := []struct {
		name   string
		output Output
		level  Level
		msg    string
		err    error
	}{
		{name: "info to stdout", output: OutputStdout, level: LevelInfo, msg: "cache hit"},
		{name: "warn to stdout", output: OutputStdout, level: LevelWarn, msg: "upstream is rate limiting"},
		{name: "error to stdout", output: OutputStdout, level: LevelError, msg: "request failed", err: errors.New("HTTP 500")},
		{name: "info to stderr", output: OutputStderr, level: LevelInfo, msg: "warmup finished"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := captureStd(t, tt.output, func() {
				logger, closer := NewLogger(&Config{Output: tt.output, Format: FormatJSON, Level: LevelInfo})
				switch tt.level {
				case LevelInfo:
					logger.Info(tt.msg)
				case LevelWarn:
					logger.Warn(tt.msg)
				case LevelError:
					logger.Error(tt.msg, Error(tt.err))
				}
				closer()
			})

			var j map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &j))
			require.Equal(t, string(tt.level), j["level"])
			require.Equal(t, tt.msg, j["msg"])
			if tt.err != nil {
				require.Equal(t, tt.err.Error(), j["error"])
			}
			require.Equal(t, os.Getpid(), int(j["pid"].(float64)))
			require.Equal(t, buildinfo.Version(), j["version"])
		})
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	data := captureStd(t, OutputStdout, func() {
		logger, closer := NewLogger(&Config{Output: OutputStdout, Format: FormatJSON, Level: LevelWarn})
		logger.Debug("debug message")
		logger.Info("info message")
		logger.Warn("retrying", DurationIn(900*time.Millisecond, time.Millisecond))
		closer()
	})

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var j map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &j))
	require.Equal(t, "retrying", j["msg"])
	require.EqualValues(t, 900, j["duration"])
}

func TestTextFormat(t *testing.T) {
	data := captureStd(t, OutputStderr, func() {
		logger, closer := NewLogger(&Config{
			Output: OutputStderr, NoColor: true, Format: FormatText, Level: LevelInfo,
			Error: ErrorConfig{VerboseSuffix: "_verbose"},
		})
		logger.Error("request failed", Error(errors.New("connection refused")), String("key", "/api/v1/dashboard"))
		closer()
	})

	out := string(data)
	require.Contains(t, out, `|ERRO|`)
	require.Contains(t, out, ` request failed `)
	require.Contains(t, out, `error="connection refused"`)
	require.Contains(t, out, `key="/api/v1/dashboard"`)
	require.Contains(t, out, fmt.Sprintf(`pid=%d`, os.Getpid()))
}

func TestLoggerToFile(t *testing.T) {
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Output = OutputFile
	cfg.File.Path = filepath.Join(dir, "gateway-{{pid}}.log")

	logger, closer := NewLogger(cfg)
	logger.With(String("component", "gateway")).Info("started", Int("maxConcurrency", 4))
	closer()

	data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("gateway-%d.log", os.Getpid())))
	require.NoError(t, err)
	var j map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &j))
	require.Equal(t, "started", j["msg"])
	require.Equal(t, "gateway", j["component"])
	require.EqualValues(t, 4, j["maxConcurrency"])
}

func TestDurationIn(t *testing.T) {
	f := DurationIn(1500*time.Millisecond, time.Millisecond)
	require.Equal(t, "duration", f.Key)
	require.EqualValues(t, 1500, f.Int)
}
