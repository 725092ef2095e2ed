package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/annoscope/internal/diagnostics"
	"github.com/toyz/annoscope/internal/report"
	"github.com/toyz/annoscope/internal/server"
)

const (
	modelFile = "../query/testdata/model.yaml"
	inner     = "com.acme.OuterTest/com.acme.OuterTest$Inner#runs"
)

func execute(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	args = append(args, "--log-file", filepath.Join(t.TempDir(), "annoscope.log"))
	code := run(root, args)
	return out.String(), errOut.String(), code
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "annoscope", cmd.Use)
	assert.Equal(t, rootLongDescription, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, want := range []string{"kinds", "find", "present", "meta", "sources", "serve", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestFindCommand(t *testing.T) {
	out, errOut, code := execute(t, "find", inner, "Tag", "--repeatable", "--all-enclosing", "--model", modelFile, "-f", "json")
	require.Equal(t, 0, code, errOut)

	var result report.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "com.acme.Tag", result.Kind)
	require.Len(t, result.Annotations, 4)
	assert.Equal(t, `@Tag("inner")`, result.Annotations[0].Text)
}

func TestFindCommandTable(t *testing.T) {
	out, errOut, code := execute(t, "find", inner, "Tag", "--model", modelFile)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, `@Tag("inner")`)
	assert.NotContains(t, out, `@Tag("base")`)

	out, _, code = execute(t, "find", "BaseTest", "Marker", "--model", modelFile)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No com.acme.Marker annotations found")
}

func TestPresentCommand(t *testing.T) {
	out, _, code := execute(t, "present", inner, "Tag", "--model", modelFile)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "com.acme.Tag on "+inner+": true")

	out, errOut, code := execute(t, "present", inner, "Timed", "--repeatable", "--model", modelFile)
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "NotRepeatableError")
}

func TestKindsMetaAndSourcesCommands(t *testing.T) {
	out, _, code := execute(t, "kinds", "--model", modelFile)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "com.acme.Tags")

	out, _, code = execute(t, "meta", inner, "Marker", "--model", modelFile)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "@Timed")

	out, _, code = execute(t, "sources", inner, "--model", modelFile)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Parameter sources:")

	_, errOut, code := execute(t, "sources", "com.acme.OuterTest", "--model", modelFile)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "does not name a method")
	assert.Contains(t, errOut, "Suggestions")
}

func TestModelSourceErrors(t *testing.T) {
	_, errOut, code := execute(t, "kinds")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "no model source configured")
	assert.Contains(t, errOut, "--source")

	_, errOut, code = execute(t, "kinds", "--model", modelFile, "--source", t.TempDir())
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "both a YAML model and Java sources")

	_, errOut, code = execute(t, "kinds", "--model", modelFile, "-f", "xml")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown output format 'xml'")
}

func TestJavaSources(t *testing.T) {
	dir := t.TempDir()
	src := `package com.acme;

import org.junit.jupiter.api.Tag;

@Tag("fast")
class FastTest {
	void runs() {}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "FastTest.java"), []byte(src), 0o644))

	out, errOut, code := execute(t, "find", "com.acme.FastTest#runs", "Tag", "--source", dir, "-f", "json")
	require.Equal(t, 0, code, errOut)

	var result report.QueryResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Annotations, 1)
	assert.Equal(t, `@Tag("fast")`, result.Annotations[0].Text)
	assert.Equal(t, "com.acme.FastTest", result.Annotations[0].Declarer)
}

func TestConfigFileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(modelFile)
	require.NoError(t, err)
	config := "model:\n  file: " + abs + "\noutput:\n  format: json\n"
	path := filepath.Join(dir, configFileName)
	require.NoError(t, os.WriteFile(path, []byte(config), 0o644))

	out, errOut, code := execute(t, "present", inner, "Tag", "--config", path)
	require.Equal(t, 0, code, errOut)
	var result report.PresenceResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Present)

	t.Setenv("ANNOSCOPE_OUTPUT_FORMAT", "yaml")
	out, errOut, code = execute(t, "present", inner, "Tag", "--model", modelFile)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "present: true")

	// flags win over the environment
	out, _, code = execute(t, "present", inner, "Tag", "--model", modelFile, "-f", "table")
	require.Equal(t, 0, code)
	assert.Contains(t, out, ": true")

	_, errOut, code = execute(t, "kinds", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "ConfigurationError")
}

func TestVersionCommand(t *testing.T) {
	out, errOut, code := execute(t, "version")
	require.Equal(t, 0, code)
	assert.Contains(t, out+errOut, "annoscope version")
}

func TestLoadConfig(t *testing.T) {
	v := newViper()
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "table", cfg.Output.Format)
	assert.Equal(t, defaultServerAddress, cfg.Server.Address)
	assert.True(t, cfg.Source.PlatformKinds)
	assert.Equal(t, defaultLogMaxSize, cfg.Log.MaxSize)

	v.Set(sourceWorkersKey, -1)
	_, err = loadConfig(v)
	assert.Error(t, err)
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	a := &app{
		viper:  newViper(),
		logger: slog.New(slog.DiscardHandler),
		diag:   diagnostics.NewWithWriters(diagnostics.Silent, &bytes.Buffer{}, &bytes.Buffer{}),
	}
	a.config.Model.File = modelFile
	svc, err := a.service(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, a.serve(ctx, server.New(svc), "127.0.0.1:0"))
}
