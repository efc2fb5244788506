package report

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/helpdesk-pilot/storage"
	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
	"github.com/hairizuan-noorazman/helpdesk-pilot/testutil"
)

func TestTranscriptKey(t *testing.T) {
	tests := []struct {
		position int
		key      string
		want     string
	}{
		{0, "TC-1", "runs/r1/001-TC-1.log"},
		{1, "suite/TC 2", "runs/r1/002-suite_TC_2.log"},
		{2, "../escape", "runs/r1/003-__escape.log"},
		{3, "  ", "runs/r1/004-unnamed.log"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, TranscriptKey("r1", tt.position, tt.key))
		})
	}
}

func TestTranscriptKey_DuplicateKeysDoNotCollide(t *testing.T) {
	assert.NotEqual(t, TranscriptKey("r1", 0, "TC-1"), TranscriptKey("r1", 1, "TC-1"))
}

func TestTranscript_Render(t *testing.T) {
	tc := testutil.FinishedCase(t, "42", "TC-42", testcase.StatusFailed, 3*time.Second, 12, 4)
	tc.Reason = "agent error"
	out := string(Transcript{
		RunID:     "r1",
		Case:      tc,
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Output:    "did things\nTESTCASE_STATUS: FAIL",
		Err:       errors.New("boom"),
	}.Render())

	assert.Contains(t, out, "Test: TC-42\n")
	assert.Contains(t, out, "ID: 42\n")
	assert.Contains(t, out, "Timestamp: 2024-01-02T03:04:05Z\n")
	assert.Contains(t, out, "Duration: 3.00s\n")
	assert.Contains(t, out, "Tokens: 12 in / 4 out\n")
	assert.Contains(t, out, "Reason: agent error\n")
	assert.Contains(t, out, "Error: boom\n")
	assert.Contains(t, out, "steps for TC-42")
	assert.Contains(t, out, "TESTCASE_STATUS: FAIL")
}

func TestTranscriptStore_Write(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	w := NewTranscriptStore(store)

	tc := testutil.FinishedCase(t, "1", "TC-1", testcase.StatusPassed, time.Second, 1, 1)
	loc, err := w.Write(ctx, Transcript{RunID: "r1", Case: tc, Timestamp: time.Now(), Output: "ok"})
	require.NoError(t, err)
	assert.Contains(t, loc, "001-TC-1.log")

	rc, err := store.Get(ctx, "runs/r1/001-TC-1.log")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Test: TC-1")
}

func TestTranscriptStore_KeysAndRead(t *testing.T) {
	ctx := context.Background()
	blobs, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := NewTranscriptStore(blobs)

	for i, key := range []string{"TC-1", "TC-1", "TC-2"} {
		tc := testutil.FinishedCase(t, key, key, testcase.StatusPassed, time.Second, 1, 1)
		_, err := store.Write(ctx, Transcript{RunID: "r1", Position: i, Case: tc, Timestamp: time.Now(), Output: "out " + key})
		require.NoError(t, err)
	}
	_, err = store.Write(ctx, Transcript{RunID: "r2", Case: testcase.New("9", "TC-9", "x"), Timestamp: time.Now()})
	require.NoError(t, err)

	keys, err := store.Keys(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"runs/r1/001-TC-1.log", "runs/r1/002-TC-1.log", "runs/r1/003-TC-2.log"}, keys)

	text, err := store.Read(ctx, keys[2])
	require.NoError(t, err)
	assert.Contains(t, text, "out TC-2")

	_, err = store.Read(ctx, "runs/r1/missing.log")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
