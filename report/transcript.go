package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/hairizuan-noorazman/helpdesk-pilot/storage"
	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

// Transcript is the execution log of one test case.
type Transcript struct {
	RunID     string
	Position  int
	Case      *testcase.TestCase
	Timestamp time.Time
	Output    string
	Err       error
}

// TranscriptKey returns the storage key of a test transcript. The zero-based
// position in the run prefixes the name so duplicate keys never collide.
func TranscriptKey(runID string, position int, testKey string) string {
	return path.Join("runs", runID, fmt.Sprintf("%03d-%s.log", position+1, sanitizeKey(testKey)))
}

func sanitizeKey(key string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", " ", "_", "..", "_")
	out := r.Replace(strings.TrimSpace(key))
	if out == "" {
		return "unnamed"
	}
	return out
}

// Render formats the transcript as plain text.
func (t Transcript) Render() []byte {
	var b bytes.Buffer
	tc := t.Case
	fmt.Fprintf(&b, "Test: %s\n", tc.Key)
	fmt.Fprintf(&b, "ID: %s\n", tc.ID)
	fmt.Fprintf(&b, "Timestamp: %s\n", t.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Status: %s\n", tc.Status)
	fmt.Fprintf(&b, "Duration: %.2fs\n", tc.DurationSeconds())
	fmt.Fprintf(&b, "Tokens: %d in / %d out\n", tc.InputTokens, tc.OutputTokens)
	if tc.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", tc.Reason)
	}
	if t.Err != nil {
		fmt.Fprintf(&b, "Error: %s\n", t.Err)
	}
	b.WriteString("\n--- Steps ---\n")
	b.WriteString(tc.Steps)
	b.WriteString("\n\n--- Output ---\n")
	b.WriteString(t.Output)
	b.WriteString("\n")
	return b.Bytes()
}

// TranscriptStore persists transcripts to blob storage and reads them back.
type TranscriptStore struct {
	store storage.BlobStorage
}

// NewTranscriptStore creates a TranscriptStore over the given storage.
func NewTranscriptStore(store storage.BlobStorage) *TranscriptStore {
	return &TranscriptStore{store: store}
}

// Write stores the transcript and returns its location.
func (s *TranscriptStore) Write(ctx context.Context, t Transcript) (string, error) {
	key := TranscriptKey(t.RunID, t.Position, t.Case.Key)
	if err := s.store.Put(ctx, key, bytes.NewReader(t.Render())); err != nil {
		return "", fmt.Errorf("store transcript %s: %w", key, err)
	}
	return s.store.URL(ctx, key)
}

// Keys lists the transcript keys of a run in execution order.
func (s *TranscriptStore) Keys(ctx context.Context, runID string) ([]string, error) {
	keys, err := s.store.List(ctx, path.Join("runs", runID)+"/")
	if err != nil {
		return nil, fmt.Errorf("list transcripts of run %s: %w", runID, err)
	}
	return keys, nil
}

// Read returns the stored transcript text at key.
func (s *TranscriptStore) Read(ctx context.Context, key string) (string, error) {
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read transcript %s: %w", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read transcript %s: %w", key, err)
	}
	return string(data), nil
}
