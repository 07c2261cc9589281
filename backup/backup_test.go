package backup

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/klauspost/compress/zstd"
)

func TestRemotePathForBackup(t *testing.T) {
	tm := time.Date(2026, time.August, 24, 13, 5, 59, 0, time.UTC)
	got := RemotePathForBackup("posts.txt", tm)
	assert.Equal(t, "backups/2026/08-24/posts.txt-2026-08-24_13-05-59.zst", got)
}

func TestCompressFileZst(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "posts.txt")
	dst := filepath.Join(dir, "posts.txt.zst")
	content := strings.Repeat(`{"title":"hello","content":"world"}`+"\n", 200)
	err := os.WriteFile(src, []byte(content), 0644)
	assert.NoError(t, err)

	err = CompressFileZst(src, dst)
	assert.NoError(t, err)

	st, err := os.Stat(dst)
	assert.NoError(t, err)
	assert.True(t, st.Size() < int64(len(content)))

	f, err := os.Open(dst)
	assert.NoError(t, err)
	defer f.Close()
	r, err := zstd.NewReader(f)
	assert.NoError(t, err)
	defer r.Close()
	d, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, content, string(d))
}

func TestCompressFileZstMissingSrc(t *testing.T) {
	dir := t.TempDir()
	err := CompressFileZst(filepath.Join(dir, "nope"), filepath.Join(dir, "out.zst"))
	assert.Error(t, err)
}

func TestConfigFromEnvMissing(t *testing.T) {
	t.Setenv("BOARD_SPACES_KEY", "")
	t.Setenv("BOARD_SPACES_SECRET", "")
	t.Setenv("BOARD_SPACES_BUCKET", "")
	t.Setenv("BOARD_SPACES_ENDPOINT", "")
	assert.Nil(t, ConfigFromEnv())
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&Config{Access: "a"})
	assert.Error(t, err)
}
