package testcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"pending is valid", StatusPending, true},
		{"running is valid", StatusRunning, true},
		{"passed is valid", StatusPassed, true},
		{"failed is valid", StatusFailed, true},
		{"skipped is valid", StatusSkipped, true},
		{"invalid status", Status("invalid"), false},
		{"empty status", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestStatus_IsFinal(t *testing.T) {
	for _, s := range []Status{StatusPassed, StatusFailed, StatusSkipped} {
		assert.True(t, s.IsFinal(), s)
	}
	for _, s := range []Status{StatusPending, StatusRunning} {
		assert.False(t, s.IsFinal(), s)
	}
}

func TestTestCase_Validate(t *testing.T) {
	assert.NoError(t, New("1", "TC-1", "do it").Validate())
	assert.ErrorIs(t, New("1", " ", "do it").Validate(), ErrMissingKey)

	tc := New("1", "TC-1", "do it")
	tc.Status = "bogus"
	assert.ErrorIs(t, tc.Validate(), ErrInvalidStatus)
}

func TestTestCase_Runnable(t *testing.T) {
	tests := []struct {
		name    string
		steps   string
		enabled bool
		want    bool
	}{
		{"enabled with steps", "create a contact", true, true},
		{"disabled", "create a contact", false, false},
		{"blank steps", "   ", true, false},
		{"empty steps", "", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := New("1", "TC-1", tt.steps)
			tc.Enabled = tt.enabled
			assert.Equal(t, tt.want, tc.Runnable())
		})
	}
}

func TestTestCase_Lifecycle(t *testing.T) {
	tc := New("1", "TC-1", "steps")
	assert.ErrorIs(t, tc.Complete(StatusPassed, ""), ErrNotRunning)

	require.NoError(t, tc.Start())
	assert.Equal(t, StatusRunning, tc.Status)
	assert.NotNil(t, tc.StartedAt)
	assert.ErrorIs(t, tc.Start(), ErrAlreadyStarted)
	assert.ErrorIs(t, tc.Skip("late"), ErrAlreadyStarted)

	assert.ErrorIs(t, tc.Complete(StatusSkipped, ""), ErrInvalidStatus)
	require.NoError(t, tc.Complete(StatusPassed, "TESTCASE_STATUS: PASSED"))
	assert.Equal(t, StatusPassed, tc.Status)
	assert.NotNil(t, tc.CompletedAt)
	assert.GreaterOrEqual(t, tc.Duration.Nanoseconds(), int64(0))
	assert.ErrorIs(t, tc.Complete(StatusFailed, ""), ErrNotRunning, "terminal status is set exactly once")
}

func TestTestCase_Skip(t *testing.T) {
	tc := New("1", "TC-1", "")
	require.NoError(t, tc.Skip("no steps"))
	assert.Equal(t, StatusSkipped, tc.Status)
	assert.Equal(t, "no steps", tc.Reason)
	assert.ErrorIs(t, tc.Start(), ErrAlreadyStarted)
}

func TestTestCase_Reset(t *testing.T) {
	zero := &TestCase{Key: "T1", Steps: "steps", Enabled: true}
	zero.Reset()
	require.NoError(t, zero.Start())

	done := New("1", "TC-1", "steps")
	require.NoError(t, done.Start())
	require.NoError(t, done.Complete(StatusPassed, "output"))
	done.Reason = "old"
	done.SetUsage(10, 5, 0.1)

	done.Reset()
	assert.Equal(t, StatusPending, done.Status)
	assert.Empty(t, done.Output)
	assert.Empty(t, done.Reason)
	assert.Nil(t, done.StartedAt)
	assert.Nil(t, done.CompletedAt)
	assert.Zero(t, done.Duration)
	assert.Zero(t, done.InputTokens)
	assert.Zero(t, done.Cost)
	assert.Equal(t, "steps", done.Steps, "source fields survive a reset")
	require.NoError(t, done.Skip("disabled"))
}
