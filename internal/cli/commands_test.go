// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/promptstamp/internal/config"
	"github.com/jeranaias/promptstamp/internal/diff"
	"github.com/jeranaias/promptstamp/internal/pngmeta"
)

func TestMain(m *testing.M) {
	ConfigureColor("never")
	os.Exit(m.Run())
}

// =============================================================================
// FIXTURES
// =============================================================================

type testEnv struct {
	rt     *Runtime
	stdout *syncBuffer
	stderr *syncBuffer
	dir    string
}

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a polling test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("PROMPTSTAMP_HOME", t.TempDir())
	t.Setenv("PROMPTSTAMP_CONFIG", "")
	env := &testEnv{
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
		dir:    t.TempDir(),
	}
	env.rt = &Runtime{
		Config: config.Default(),
		Logger: log.NewNopLogger(),
		Stdin:  strings.NewReader(""),
		Stdout: env.stdout,
		Stderr: env.stderr,
	}
	return env
}

// png writes a 1x1 PNG (stamped when prompt is non-empty) and returns its path.
func (e *testEnv) png(t *testing.T, name, prompt string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	data := buf.Bytes()
	if prompt != "" {
		data = pngmeta.Embed(data, prompt)
	}
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func (e *testEnv) file(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type envelope struct {
	Success bool            `json:"success"`
	Command string          `json:"command"`
	Error   *string         `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, s string, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(s), &env), s)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

// =============================================================================
// EMBED
// =============================================================================

func TestHandleEmbed_WritesOutFile(t *testing.T) {
	env := newTestEnv(t)
	in := env.png(t, "cat.png", "")
	out := filepath.Join(env.dir, "tagged.png")

	err := HandleEmbed(env.rt, Args{Raw: []string{in, "-p", "a cat, watercolor", "-o", out}})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	prompt, ok := pngmeta.Extract(data)
	require.True(t, ok)
	assert.Equal(t, "a cat, watercolor", prompt)
	assert.Contains(t, env.stderr.String(), "Stamped "+out)
}

func TestHandleEmbed_DefaultOutputAndSoftware(t *testing.T) {
	env := newTestEnv(t)
	env.rt.Config.Metadata.Software = "Test Renderer"
	in := env.png(t, "fox.png", "")

	require.NoError(t, HandleEmbed(env.rt, Args{Quiet: true, Raw: []string{in, "--prompt", "fox"}}))

	data, err := os.ReadFile(filepath.Join(env.dir, "fox-stamped.png"))
	require.NoError(t, err)
	texts, err := pngmeta.TextChunks(data)
	require.NoError(t, err)
	require.Len(t, texts, 4)
	assert.Equal(t, "Software", texts[3].Keyword)
	assert.Equal(t, "Test Renderer", texts[3].Text)
	assert.Empty(t, env.stderr.String())
}

func TestHandleEmbed_PromptFile(t *testing.T) {
	env := newTestEnv(t)
	in := env.png(t, "a.png", "")
	promptFile := env.file(t, "prompt.txt", "line one\nline two\n")

	require.NoError(t, HandleEmbed(env.rt, Args{Raw: []string{in, "--prompt-file", promptFile, "--in-place"}}))

	data, err := os.ReadFile(in)
	require.NoError(t, err)
	prompt, ok := pngmeta.Extract(data)
	require.True(t, ok)
	assert.Equal(t, "line one\nline two", prompt)
}

func TestHandleEmbed_Base64Stdin(t *testing.T) {
	env := newTestEnv(t)
	path := env.png(t, "b.png", "")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	env.rt.Stdin = strings.NewReader(pngmeta.EncodeDataURL(raw))

	require.NoError(t, HandleEmbed(env.rt, Args{Raw: []string{"-", "--base64", "-p", "from stdin"}}))

	out := strings.TrimSpace(env.stdout.String())
	assert.False(t, strings.HasPrefix(out, "data:"))
	prompt, ok := pngmeta.ExtractBase64(out)
	require.True(t, ok)
	assert.Equal(t, "from stdin", prompt)
}

func TestHandleEmbed_JSONPassthrough(t *testing.T) {
	env := newTestEnv(t)
	in := env.file(t, "not.png", "GIF89a")
	out := filepath.Join(env.dir, "out.png")

	require.NoError(t, HandleEmbed(env.rt, Args{JSON: true, Raw: []string{in, "-p", "x", "-o", out}}))

	var data EmbedData
	resp := decodeEnvelope(t, env.stdout.String(), &data)
	assert.True(t, resp.Success)
	assert.False(t, data.Embedded)
	assert.Equal(t, data.BytesIn, data.BytesOut)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "GIF89a", string(written))
}

func TestHandleEmbed_UsageErrors(t *testing.T) {
	env := newTestEnv(t)
	in := env.png(t, "c.png", "")

	tests := []struct {
		name string
		raw  []string
	}{
		{"missing input", nil},
		{"missing prompt", []string{in}},
		{"empty prompt", []string{in, "-p", "   "}},
		{"out and in-place", []string{in, "-p", "x", "-o", "y.png", "--in-place"}},
		{"in-place on stdin", []string{"-", "-p", "x", "--in-place"}},
		{"extra arguments", []string{in, "other.png", "-p", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleEmbed(env.rt, Args{Raw: tt.raw})
			require.Error(t, err)
			assert.Equal(t, ExitUsageError, GetExitCode(err), err.Error())
		})
	}
}

func TestHandleEmbed_MissingFileIsIOError(t *testing.T) {
	env := newTestEnv(t)
	err := HandleEmbed(env.rt, Args{Raw: []string{filepath.Join(env.dir, "nope.png"), "-p", "x"}})
	require.Error(t, err)
	assert.Equal(t, ExitIOError, GetExitCode(err))
}

// =============================================================================
// EXTRACT AND INSPECT
// =============================================================================

func TestHandleExtract(t *testing.T) {
	env := newTestEnv(t)
	path := env.png(t, "p.png", "一只猫, watercolor")

	require.NoError(t, HandleExtract(env.rt, Args{Raw: []string{"--strict", path}}))
	assert.Equal(t, "一只猫, watercolor\n", env.stdout.String())
}

func TestHandleExtract_JSON(t *testing.T) {
	env := newTestEnv(t)
	path := env.png(t, "p.png", "a red fox")

	require.NoError(t, HandleExtract(env.rt, Args{JSON: true, Raw: []string{path}}))

	var data struct {
		File   string `json:"file"`
		Result struct {
			Status    string `json:"status"`
			Prompt    string `json:"prompt"`
			Keyword   string `json:"keyword"`
			ChunkType string `json:"chunk_type"`
		} `json:"result"`
	}
	resp := decodeEnvelope(t, env.stdout.String(), &data)
	assert.Equal(t, "extract", resp.Command)
	assert.Equal(t, "found", data.Result.Status)
	assert.Equal(t, "a red fox", data.Result.Prompt)
	assert.Equal(t, "parameters", data.Result.Keyword)
	assert.Equal(t, "iTXt", data.Result.ChunkType)
}

func TestHandleExtract_Statuses(t *testing.T) {
	env := newTestEnv(t)

	err := HandleExtract(env.rt, Args{Raw: []string{env.png(t, "plain.png", "")}})
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	err = HandleExtract(env.rt, Args{Raw: []string{env.file(t, "x.png", "hello")}})
	assert.Equal(t, ExitDataError, GetExitCode(err))
	assert.ErrorIs(t, err, pngmeta.ErrNotPNG)

	err = HandleExtract(env.rt, Args{Raw: []string{env.file(t, "b64.txt", "!!!")}, JSON: false})
	assert.Equal(t, ExitDataError, GetExitCode(err))

	err = HandleExtract(env.rt, Args{Raw: []string{"--base64", env.file(t, "bad.txt", "%%%")}})
	assert.ErrorIs(t, err, pngmeta.ErrInvalidBase64)

	err = HandleExtract(env.rt, Args{})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestHandleInspect(t *testing.T) {
	env := newTestEnv(t)
	path := env.png(t, "i.png", "inspect me")

	require.NoError(t, HandleInspect(env.rt, Args{Raw: []string{path}}))

	out := env.stdout.String()
	for _, want := range []string{"IHDR", "iTXt", "IEND", "parameters", "Software", "prompt found"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "CRC mismatch")
}

func TestHandleInspect_JSONTruncated(t *testing.T) {
	env := newTestEnv(t)
	path := env.png(t, "t.png", "cut short")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-20], 0644))

	require.NoError(t, HandleInspect(env.rt, Args{JSON: true, Raw: []string{path}}))

	var d struct {
		Chunks []json.RawMessage `json:"chunks"`
		Error  string            `json:"error"`
		Prompt struct {
			Status string `json:"status"`
		} `json:"prompt"`
	}
	decodeEnvelope(t, env.stdout.String(), &d)
	assert.NotEmpty(t, d.Error)
	assert.NotEmpty(t, d.Chunks)
	assert.Equal(t, "found", d.Prompt.Status)
}

// =============================================================================
// DIFF
// =============================================================================

func TestHandleDiff_Inline(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleDiff(env.rt, Args{Raw: []string{"a red fox", "a blue fox", "--inline"}}))

	assert.Equal(t, "a [-red-]{+blue+} fox\n", env.stdout.String())
	assert.Contains(t, env.stderr.String(), "Modified +1 -1")
}

func TestHandleDiff_NoColorFallsBackToInline(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleDiff(env.rt, Args{Quiet: true, Raw: []string{"x", "y x"}}))

	assert.Equal(t, "{+y +}x\n", env.stdout.String())
	assert.Empty(t, env.stderr.String())
}

func TestHandleDiff_JSON(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleDiff(env.rt, Args{JSON: true, Raw: []string{"a red fox", "a blue fox"}}))

	var data struct {
		Summary string `json:"summary"`
		Report  struct {
			Segments []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"segments"`
			Stats diff.Stats `json:"stats"`
		} `json:"report"`
	}
	decodeEnvelope(t, env.stdout.String(), &data)
	assert.Equal(t, "Modified +1 -1", data.Summary)
	require.Len(t, data.Report.Segments, 4)
	assert.Equal(t, "removed", data.Report.Segments[1].Type)
	assert.Equal(t, "red", data.Report.Segments[1].Text)
	assert.Equal(t, diff.Stats{Additions: 1, Deletions: 1, Unchanged: 2}, data.Report.Stats)
}

func TestHandleDiff_Files(t *testing.T) {
	env := newTestEnv(t)
	oldPNG := env.png(t, "v1.png", "a red fox at dawn")
	newTxt := env.file(t, "v2.txt", "a red fox at dusk\n")

	require.NoError(t, HandleDiff(env.rt, Args{Raw: []string{"-f", oldPNG, newTxt, "--inline"}}))
	assert.Equal(t, "a red fox at [-dawn-]{+dusk+}\n", env.stdout.String())
}

func TestHandleDiff_FileWithoutPrompt(t *testing.T) {
	env := newTestEnv(t)
	plain := env.png(t, "plain.png", "")
	other := env.file(t, "o.txt", "text")

	err := HandleDiff(env.rt, Args{Raw: []string{"--file", plain, other}})
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))
}

func TestHandleDiff_Markdown(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleDiff(env.rt, Args{Raw: []string{"a red fox", "a blue fox", "--format", "md"}}))
	assert.Contains(t, env.stdout.String(), "a ~~red~~**blue** fox")
}

func TestHandleDiff_Render(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleDiff(env.rt, Args{Raw: []string{"a red fox", "a blue fox", "--render"}}))
	assert.Contains(t, env.stdout.String(), "blue")
}

func TestHandleDiff_ExportToFile(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.dir, "report")

	require.NoError(t, HandleDiff(env.rt, Args{JSON: true, Raw: []string{"a", "b", "--format", "html", "-o", out}}))

	var data DiffData
	decodeEnvelope(t, env.stdout.String(), &data)
	assert.Equal(t, out+".html", data.File)
	content, err := os.ReadFile(out + ".html")
	require.NoError(t, err)
	assert.Contains(t, string(content), "<del>a</del>")
}

func TestHandleDiff_TextToFile(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(env.dir, "diff.txt")

	require.NoError(t, HandleDiff(env.rt, Args{Raw: []string{"a red fox", "a blue fox", "-o", out}}))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a [-red-]{+blue+} fox\n", string(content))
	assert.Empty(t, env.stdout.String())
}

func TestHandleDiff_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		raw  []string
		code int
	}{
		{"one argument", []string{"only"}, ExitUsageError},
		{"three arguments", []string{"a", "b", "c"}, ExitUsageError},
		{"bad format", []string{"a", "b", "--format", "pdf"}, ExitUsageError},
		{"render html", []string{"a", "b", "--render", "--format", "html"}, ExitUsageError},
		{"bad max tokens", []string{"a", "b", "--max-tokens", "many"}, ExitUsageError},
		{"too large", []string{"one two three", "four", "--max-tokens", "2"}, ExitLimitError},
		{"both stdin", []string{"-f", "-", "-"}, ExitUsageError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := HandleDiff(env.rt, Args{Raw: tt.raw})
			require.Error(t, err)
			assert.Equal(t, tt.code, GetExitCode(err), err.Error())
		})
	}
}

func TestHandleDiff_ConfigTokenCap(t *testing.T) {
	env := newTestEnv(t)
	env.rt.Config.Diff.MaxTokens = 1

	err := HandleDiff(env.rt, Args{Raw: []string{"a b", "c"}})
	assert.ErrorIs(t, err, diff.ErrTooLarge)

	require.NoError(t, HandleDiff(env.rt, Args{Raw: []string{"a b", "c", "--max-tokens", "0"}}))
}

// =============================================================================
// CONFIG
// =============================================================================

func TestHandleConfig_GetAndKeys(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleConfig(env.rt, Args{Raw: []string{"get", "diff.max_tokens"}}))
	assert.Equal(t, "4000\n", env.stdout.String())

	env.stdout = &syncBuffer{}
	env.rt.Stdout = env.stdout
	require.NoError(t, HandleConfig(env.rt, Args{Raw: []string{"keys"}}))
	for _, key := range config.AllKeys() {
		assert.Contains(t, env.stdout.String(), key)
	}
	assert.Contains(t, env.stdout.String(), ".png")
}

func TestHandleConfig_UnknownKeySuggests(t *testing.T) {
	env := newTestEnv(t)

	err := HandleConfig(env.rt, Args{Raw: []string{"get", "diff.max_token"}})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, err.Error(), `"diff.max_tokens"`)
}

func TestHandleConfig_SetPersists(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "config.toml")
	args := Args{ConfigPath: path}

	args.Raw = []string{"set", "metadata.software", "My", "Renderer"}
	require.NoError(t, HandleConfig(env.rt, args))
	args.Raw = []string{"set", "watch.extensions", ".PNG,.apng"}
	require.NoError(t, HandleConfig(env.rt, args))

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "My Renderer", cfg.Metadata.Software)
	assert.Equal(t, []string{".png", ".apng"}, cfg.Watch.Extensions)
	assert.Contains(t, env.stderr.String(), "Set metadata.software = My Renderer")
}

func TestHandleConfig_SetRejectsBadValues(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "config.toml")

	err := HandleConfig(env.rt, Args{ConfigPath: path, Raw: []string{"set", "diff.color", "rainbow"}})
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	err = HandleConfig(env.rt, Args{ConfigPath: path, Raw: []string{"set", "diff.max_tokens", "lots"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	err = HandleConfig(env.rt, Args{ConfigPath: path, Raw: []string{"set", "diff.max_tokens"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, statErr := os.Stat(path)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "failed sets must not write the file")
}

func TestHandleConfig_PathAndShow(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, HandleConfig(env.rt, Args{JSON: true, Raw: []string{"path"}}))
	var data ConfigData
	decodeEnvelope(t, env.stdout.String(), &data)
	assert.Equal(t, "config.toml", filepath.Base(data.Path))
	assert.False(t, data.Exists)

	env.stdout = &syncBuffer{}
	env.rt.Stdout = env.stdout
	require.NoError(t, HandleConfig(env.rt, Args{Raw: nil}))
	assert.Contains(t, env.stdout.String(), "max_tokens = 4000")
	assert.Contains(t, env.stderr.String(), "built-in defaults")
}

func TestHandleConfig_Reset(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "c.json")
	require.NoError(t, HandleConfig(env.rt, Args{ConfigPath: path, Raw: []string{"set", "diff.inline", "true"}}))
	require.NoError(t, HandleConfig(env.rt, Args{ConfigPath: path, Raw: []string{"reset"}}))

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Diff.Inline)
}

func TestHandleConfig_UnknownSubcommand(t *testing.T) {
	env := newTestEnv(t)
	err := HandleConfig(env.rt, Args{Raw: []string{"frobnicate"}})
	assert.True(t, IsValidationError(err))
}

// =============================================================================
// WATCH
// =============================================================================

func TestHandleWatch_StreamsJSONLines(t *testing.T) {
	env := newTestEnv(t)
	env.png(t, "seen.png", "already here")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- HandleWatch(ctx, env.rt, Args{JSON: true, Raw: []string{env.dir, "--existing", "--debounce", "0"}})
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(env.stdout.String(), "already here")
	}, 5*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	line := strings.SplitN(strings.TrimSpace(env.stdout.String()), "\n", 2)[0]
	var data WatchEventData
	resp := decodeEnvelope(t, line, &data)
	assert.Equal(t, "watch", resp.Command)
	assert.Equal(t, filepath.Join(env.dir, "seen.png"), data.Path)
	assert.Equal(t, pngmeta.StatusFound, data.Result.Status)
}

func TestHandleWatch_Errors(t *testing.T) {
	env := newTestEnv(t)

	err := HandleWatch(context.Background(), env.rt, Args{Raw: []string{filepath.Join(env.dir, "missing")}})
	assert.Equal(t, ExitIOError, GetExitCode(err))

	err = HandleWatch(context.Background(), env.rt, Args{Raw: []string{env.dir, "--debounce", "soon"}})
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// =============================================================================
// DISPATCH, ERRORS, LOGGING
// =============================================================================

func TestRun_UnknownCommandSuggests(t *testing.T) {
	env := newTestEnv(t)
	err := Run(context.Background(), env.rt, CmdUnknown, Args{Name: "extrat"})
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
	assert.Contains(t, err.Error(), `"extract"`)
}

func TestRun_VersionAndHelp(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, Run(context.Background(), env.rt, CmdVersion, Args{JSON: true}))
	var data map[string]string
	decodeEnvelope(t, env.stdout.String(), &data)
	assert.Equal(t, Version, data["version"])

	env.stdout = &syncBuffer{}
	env.rt.Stdout = env.stdout
	require.NoError(t, Run(context.Background(), env.rt, CmdHelp, Args{}))
	assert.Contains(t, env.stdout.String(), "promptstamp embed")
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"validation", NewValidationError("x", "y", "z"), ExitUsageError},
		{"not found", ErrNotFound("prompt", "a.png"), ExitNotFoundError},
		{"wrapped not found", NewCommandError("diff", "read", "a.png", ErrNotFound("prompt", "a.png")), ExitNotFoundError},
		{"config marker", WrapConfigError(errors.New("bad toml")), ExitConfigError},
		{"config validation", config.ValidateErrors{{Field: "diff.color", Message: "bad"}}, ExitConfigError},
		{"not png", NewCommandError("extract", "decode", "a", pngmeta.ErrNotPNG), ExitDataError},
		{"truncated", pngmeta.ErrTruncated, ExitDataError},
		{"too large", NewCommandError("diff", "compare", "", diff.ErrTooLarge), ExitLimitError},
		{"io", wrapIO(os.ErrNotExist), ExitIOError},
		{"other", errors.New("boom"), ExitGeneralError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestDisplayError(t *testing.T) {
	var buf bytes.Buffer
	DisplayError(&buf, "extract", ErrNotFound("prompt", "a.png"), false)
	assert.Equal(t, "[ERROR] prompt not found: a.png\n", buf.String())

	buf.Reset()
	DisplayError(&buf, "extract", ErrNotFound("prompt", "a.png"), true)
	var details map[string]interface{}
	resp := decodeEnvelope(t, buf.String(), &details)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "prompt not found: a.png", *resp.Error)
	assert.Equal(t, "not_found_error", details["error_type"])
	assert.EqualValues(t, ExitNotFoundError, details["exit_code"])

	buf.Reset()
	DisplayError(&buf, "x", nil, true)
	assert.Empty(t, buf.String())
}

func TestNewLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LogConfig{Level: "warn", Format: "logfmt"})
	level.Debug(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "level=warn")
	assert.Contains(t, out, "msg=shown")

	buf.Reset()
	logger = NewLogger(&buf, config.LogConfig{Level: "debug", Format: "json"})
	level.Debug(logger).Log("msg", "visible")
	assert.Contains(t, buf.String(), `"msg":"visible"`)
}

func TestLoadConfig_GlobalFlags(t *testing.T) {
	t.Setenv("PROMPTSTAMP_HOME", t.TempDir())
	t.Setenv("PROMPTSTAMP_CONFIG", "")
	t.Setenv("PROMPTSTAMP_LOG_LEVEL", "")

	cfg, err := LoadConfig(Args{Verbose: true, NoColor: true})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "never", cfg.Diff.Color)

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[diff]\ncolor = \"rainbow\"\n"), 0644))
	_, err = LoadConfig(Args{ConfigPath: bad})
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}
