package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vkir/internal/artifact"
	"github.com/roach88/vkir/internal/ir"
	"github.com/roach88/vkir/internal/store"
	"github.com/roach88/vkir/internal/testutil"
)

const goldenPath = "../compiler/testdata/golden/mini.golden"

const brokenRegistry = `<registry>
  <types>
    <type category="struct" name="VkBroken" futureattr="1">
      <member><type>uint32_t</type> <name>x</name></member>
    </type>
  </types>
</registry>`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompileToStdoutMatchesGolden(t *testing.T) {
	out, _, err := execute(t, "compile", fixturePath)
	require.NoError(t, err)

	want, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, string(want), out)
}

func TestCompileOutputToFile(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "ir.json")

	out, _, err := execute(t, "compile", fixturePath, "--output", outputFile)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 8 chain(s), 4 chain ctor(s), 1 non-chain ctor(s), 5 command(s)")
	assert.Contains(t, out, "Wrote IR to "+outputFile)

	f, err := os.Open(outputFile)
	require.NoError(t, err)
	defer f.Close()
	doc, err := ir.Decode(f)
	require.NoError(t, err)
	assert.Len(t, doc.ChainTraits, 8)
}

func TestCompileSummaryJSON(t *testing.T) {
	outputFile := filepath.Join(t.TempDir(), "ir.json")

	out, _, err := execute(t, "--format", "json", "compile", fixturePath, "-o", outputFile)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   CompileSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 5, resp.Data.Commands)
	assert.Len(t, resp.Data.IRDigest, 64)
	assert.Len(t, resp.Data.RegistryDigest, 64)
	assert.Empty(t, resp.Data.RunID, "no run id without --db or --publish")
}

func TestCompileBuildErrorWritesNothing(t *testing.T) {
	registryPath := writeFile(t, "broken.xml", brokenRegistry)
	outputFile := filepath.Join(t.TempDir(), "ir.json")

	out, _, err := execute(t, "compile", registryPath, "-o", outputFile)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E201")
	assert.Contains(t, out, "VkBroken")
	assert.Contains(t, out, "futureattr")

	_, statErr := os.Stat(outputFile)
	assert.True(t, os.IsNotExist(statErr), "no output file on failure")
}

func TestCompileLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		registry func(t *testing.T) string
		tables   func(t *testing.T) string
		wantCode string
	}{
		{
			name:     "missing registry",
			registry: func(*testing.T) string { return "/nonexistent/vk.xml" },
			wantCode: ErrCodeNotFound,
		},
		{
			name:     "malformed xml",
			registry: func(t *testing.T) string { return writeFile(t, "bad.xml", "<registry><types>") },
			wantCode: ErrCodeParseFailed,
		},
		{
			name:     "wrong root",
			registry: func(t *testing.T) string { return writeFile(t, "other.xml", "<spirv/>") },
			wantCode: ErrCodeParseFailed,
		},
		{
			name:     "unsupported tables extension",
			registry: func(*testing.T) string { return fixturePath },
			tables:   func(t *testing.T) string { return writeFile(t, "tables.toml", "") },
			wantCode: ErrCodeTablesInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"compile", tt.registry(t)}
			if tt.tables != nil {
				args = append(args, "--tables", tt.tables(t))
			}
			_, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.True(t, strings.HasPrefix(err.Error(), tt.wantCode), "got %v", err)
		})
	}
}

func TestCompileWithTablesOverride(t *testing.T) {
	tables := writeFile(t, "tables.yaml", "tables:\n  commands:\n    skipped: [vkCreateInstance, vkCreateDevice]\n")

	out, _, err := execute(t, "--format", "json", "compile", fixturePath, "--tables", tables, "-o", filepath.Join(t.TempDir(), "ir.json"))
	require.NoError(t, err)

	var resp struct {
		Data CompileSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Commands)
}

func newTestCompile(t *testing.T, opts *CompileOptions) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	if opts.RootOptions == nil {
		opts.RootOptions = &RootOptions{Format: "text"}
	}
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	cmd.SetContext(context.Background())
	return cmd, buf
}

func TestCompileRecordsBuild(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vkir.db")
	ids := testutil.NewSequentialRunIDs()
	opts := &CompileOptions{
		Output:   filepath.Join(t.TempDir(), "ir.json"),
		Database: dbPath,
		NewRunID: func() (string, error) { return ids.Next(), nil },
	}
	cmd, buf := newTestCompile(t, opts)

	require.NoError(t, runCompile(opts, fixturePath, cmd))
	assert.Contains(t, buf.String(), "Recorded build 00000000-0000-7000-8000-000000000001 (seq 1)")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	b, err := st.LatestBuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixturePath, b.RegistryPath)
	assert.Equal(t, "defaults", b.TablesSource)
	assert.Equal(t, 8, b.ChainCount)
	assert.Equal(t, 5, b.CtorCount)
	assert.Equal(t, 5, b.CommandCount)

	chains, err := st.ChainIDs(context.Background(), b.RunID)
	require.NoError(t, err)
	assert.Equal(t, 1, chains["vk::DeviceCreateInfo"])
	assert.Equal(t, 3, chains["vk::DeviceCreateInfo -> vk::PhysicalDeviceFeatures2 -> vk::PhysicalDeviceVulkan11Features"])
}

func TestCompilePublishes(t *testing.T) {
	mem := artifact.NewMemoryStore()
	opts := &CompileOptions{
		Output:    filepath.Join(t.TempDir(), "ir.json"),
		Publish:   true,
		Publisher: mem,
		NewRunID:  func() (string, error) { return "run-1", nil },
	}
	cmd, buf := newTestCompile(t, opts)

	require.NoError(t, runCompile(opts, fixturePath, cmd))
	assert.Contains(t, buf.String(), "Published run-1/ir.json")

	published, err := mem.Get(context.Background(), "run-1", artifact.DocumentPath)
	require.NoError(t, err)
	local, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Equal(t, local, published)
}

func TestCompilePublishNeedsEndpoint(t *testing.T) {
	opts := &CompileOptions{
		Output:  filepath.Join(t.TempDir(), "ir.json"),
		Publish: true,
	}
	cmd, buf := newTestCompile(t, opts)

	err := runCompile(opts, fixturePath, cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodePublish)
	assert.Contains(t, buf.String(), "VKIR_ARTIFACT_ENDPOINT")
}

func TestCompileToStdoutWritesNothingWhenPublishFails(t *testing.T) {
	opts := &CompileOptions{Publish: true}
	cmd, buf := newTestCompile(t, opts)

	err := runCompile(opts, fixturePath, cmd)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "VKIR_ARTIFACT_ENDPOINT")
	assert.NotContains(t, buf.String(), "chainTraits")
}
