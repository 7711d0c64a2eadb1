package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vkir/internal/store"
)

func TestHistoryEmpty(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vkir.db")

	out, _, err := execute(t, "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "No builds recorded\n", out)

	out, _, err = execute(t, "--format", "json", "history", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"data": []`)
}

func TestHistoryListsRecordedBuilds(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "vkir.db")
	for i := 0; i < 2; i++ {
		_, _, err := execute(t, "compile", fixturePath, "-o", filepath.Join(dir, "ir.json"), "--db", dbPath)
		require.NoError(t, err)
	}

	out, _, err := execute(t, "--format", "json", "history", "--db", dbPath)
	require.NoError(t, err)

	var resp struct {
		Data []store.Build `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, int64(2), resp.Data[0].Seq)
	assert.Equal(t, resp.Data[0].IRDigest, resp.Data[1].IRDigest, "same registry, same IR")

	out, _, err = execute(t, "history", "--db", dbPath, "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "   2  ")
	assert.NotContains(t, out, "   1  ")
}

func TestHistoryRejectsNonPositiveLimit(t *testing.T) {
	_, _, err := execute(t, "history", "--db", filepath.Join(t.TempDir(), "vkir.db"), "--limit", "0")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
