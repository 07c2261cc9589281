package log

import (
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

func TestDayFromTime(t *testing.T) {
	tm := time.Date(2024, time.March, 7, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, 20240307, dayFromTime(tm))
}

func TestMarshalRecord(t *testing.T) {
	tm := time.UnixMilli(1700000000000).UTC()
	got := marshalRecord("ev", tm, []byte("k: v"))
	assert.Equal(t, "--- 4 1700000000000 ev\nk: v\n", string(got))

	// data ending in newline doesn't get another one
	got = marshalRecord("ev", tm, []byte("k: v\n"))
	assert.Equal(t, "--- 5 1700000000000 ev\nk: v\n", string(got))

	// empty data has header only
	got = marshalRecord("ev", tm, nil)
	assert.Equal(t, "--- 0 1700000000000 ev\n", string(got))
}

func TestWriteDailyNil(t *testing.T) {
	var w *WriteDaily
	assert.NoError(t, w.Write([]byte("ignored")))
	assert.NoError(t, w.Close())
}

func TestWriteDaily(t *testing.T) {
	w := NewWriteDaily(t.TempDir())
	assert.NoError(t, w.WriteString("hello\n"))
	assert.NoError(t, w.WriteString("again\n"))
	assert.NoError(t, w.Close())
}
