package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuneforge/tuneforge/internal/domain/entities"
)

func TestCommonOptions_ApplyToContext(t *testing.T) {
	t.Parallel()

	t.Run("with timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: 100 * time.Millisecond}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()

		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(100*time.Millisecond), deadline, 10*time.Millisecond)
	})

	t.Run("no timeout", func(t *testing.T) {
		t.Parallel()
		opts := CommonOptions{Timeout: 0}
		ctx, cancel := opts.ApplyToContext(context.Background())
		defer cancel()

		_, ok := ctx.Deadline()
		assert.False(t, ok)
	})
}

func TestCommonOptions_ValidateFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{name: "unset", format: ""},
		{name: "table", format: "table"},
		{name: "json", format: "json"},
		{name: "yaml", format: "yaml"},
		{name: "junit is not supported", format: "junit", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := CommonOptions{Format: tt.format}
			err := opts.ValidateFlags()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid format")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseAssignments(t *testing.T) {
	t.Parallel()

	params, err := parseAssignments([]string{"nozzle_temp=215", " fan_speed = 80.5 "})
	require.NoError(t, err)
	assert.Equal(t, entities.Parameters{"nozzle_temp": 215, "fan_speed": 80.5}, params)

	for _, bad := range []string{"nozzle_temp", "=5", "nozzle_temp=hot"} {
		_, err := parseAssignments([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseIssues(t *testing.T) {
	t.Parallel()

	predictions, err := parseIssues([]string{"stringing=0.8", "warping=0.3"})
	require.NoError(t, err)
	assert.Equal(t, []entities.Prediction{
		{IssueID: "stringing", Confidence: 0.8},
		{IssueID: "warping", Confidence: 0.3},
	}, predictions)

	_, err = parseIssues([]string{"stringing"})
	assert.ErrorContains(t, err, "expected issue_id=confidence")

	_, err = parseIssues([]string{"stringing=high"})
	assert.ErrorContains(t, err, "not a number")
}
