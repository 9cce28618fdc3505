package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger(level, format)
	fn()
	return buf.String()
}

func TestLogger_TextOutput(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:  "failed repository sync",
			level: "info",
			logFn: func() {
				Warn("Repository update failed", Fields{"repository": "updates", "error": errors.New("status 404")})
			},
			contains: []string{"level=WARN", `msg="Repository update failed"`, "repository=updates", `error="status 404"`},
		},
		{
			name:  "install stage at debug level",
			level: "debug",
			logFn: func() {
				DebugfWithFields(Fields{"package": "editor@1.0"}, "%s: %s", "verify", "/var/cache/mrpkg/editor-1.0.tar.xz")
			},
			contains: []string{"level=DEBUG", "verify: /var/cache/mrpkg/editor-1.0.tar.xz", "package=editor@1.0"},
		},
		{
			name:  "install stage hidden at info level",
			level: "info",
			logFn: func() {
				DebugfWithFields(Fields{"package": "editor@1.0"}, "%s: %s", "download", "https://repo.example.com/editor.tar.xz")
			},
			excludes: []string{"download"},
		},
		{
			name:  "repository saved",
			level: "info",
			logFn: func() {
				Success("Repository saved", Fields{"name": "local"})
			},
			contains: []string{"level=INFO", "name=local", "status=success"},
		},
		{
			name:  "warnings hidden at error level",
			level: "error",
			logFn: func() {
				Warn("Skipping invalid catalog snapshot")
			},
			excludes: []string{"Skipping invalid catalog snapshot"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, output, want)
			}
			for _, notWant := range tt.excludes {
				assert.NotContains(t, output, notWant)
			}
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	output := captureOutput(t, "debug", FormatJSON, func() {
		Debug("Package registered", Fields{"package": "libfoo", "files": 3})
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(output)), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "Package registered", entry["msg"])
	assert.Equal(t, "libfoo", entry["package"])
	assert.Equal(t, float64(3), entry["files"])
}

func TestGetLogger_InitializesIfNil(t *testing.T) {
	logger = nil
	assert.NotPanics(t, func() {
		lg := GetLogger()
		assert.NotNil(t, lg)
	})
}

func TestMergeFields(t *testing.T) {
	tests := []struct {
		name   string
		fields []Fields
		expect map[string]interface{}
	}{
		{
			name:   "operation fields",
			fields: []Fields{{"package": "editor@1.0", "operation": "a1b2"}},
			expect: map[string]interface{}{"package": "editor@1.0", "operation": "a1b2"},
		},
		{
			name:   "later map wins",
			fields: []Fields{{"repository": "main"}, {"repository": "updates", "packages": 12}},
			expect: map[string]interface{}{"repository": "updates", "packages": 12},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := mergeFields(tt.fields...)
			result := make(map[string]interface{})
			for i := 0; i < len(attrs); i += 2 {
				result[attrs[i].(string)] = attrs[i+1]
			}
			assert.Equal(t, tt.expect, result)
		})
	}
	assert.Nil(t, mergeFields())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("warn").String())
	assert.Equal(t, "WARN", ParseLevel("warning").String())
	assert.Equal(t, "ERROR", ParseLevel("error").String())
	assert.Equal(t, "INFO", ParseLevel("ERROR").String())
	assert.Equal(t, "INFO", ParseLevel("verbose").String())
}
