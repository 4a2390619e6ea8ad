package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/perfgo/testcheck/model"
	"github.com/perfgo/testcheck/tree"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRun(t *testing.T, root, id string, ts time.Time) string {
	t.Helper()
	h := &model.History{
		ID:        id,
		Timestamp: ts,
		Command:   "flutter test -r json",
		Git:       &model.Git{Commit: "0123456789abcdef"},
		Result: &model.Result{
			Conclusion: "success",
			Stats:      tree.Stats{Total: 2, Passed: 2},
		},
	}
	dir, err := CreateRunDir(root, h)
	require.NoError(t, err)
	require.NoError(t, Save(dir, h))
	return dir
}

func TestCreateRunDir(t *testing.T) {
	root := t.TempDir()
	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	dir := writeRun(t, root, "a1b2c3d4-0000-0000-0000-000000000000", ts)
	assert.Equal(t, filepath.Join(root, "history", "20240501-123000-01234567-a1b2c3d4"), dir)
	assert.FileExists(t, filepath.Join(dir, FileName))
}

func TestLoadEntries(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	writeRun(t, root, "aaaa1111", base)
	writeRun(t, root, "bbbb2222", base.Add(time.Hour))
	writeRun(t, root, "cccc3333", base.Add(2*time.Hour))

	broken := filepath.Join(root, "history", "broken")
	require.NoError(t, os.MkdirAll(broken, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(broken, FileName), []byte("{"), 0644))

	entries, err := LoadEntries(zerolog.Nop(), root)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "cccc3333", entries[0].History.ID)
	assert.Equal(t, "aaaa1111", entries[2].History.ID)
	assert.Equal(t, 2, entries[0].History.Result.Stats.Passed)

	tests := []struct {
		name    string
		arg     string
		wantID  string
		wantErr bool
	}{
		{name: "last", arg: "0", wantID: "cccc3333"},
		{name: "second to last", arg: "-1", wantID: "bbbb2222"},
		{name: "id prefix", arg: "AAAA", wantID: "aaaa1111"},
		{name: "positive index", arg: "1", wantErr: true},
		{name: "out of range", arg: "-3", wantErr: true},
		{name: "unknown id", arg: "ffff", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := Find(entries, tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, entry.History.ID)
		})
	}
}

func TestFindEmpty(t *testing.T) {
	_, err := Find(nil, "0")
	require.ErrorIs(t, err, ErrNoEntries)
}
