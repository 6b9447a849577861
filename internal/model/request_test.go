package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     bool
	}{
		{StatusSubmitted, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusCompleted, StatusDelivered, true},
		// Skipping stages forward is allowed.
		{StatusSubmitted, StatusDelivered, true},
		{StatusInProgress, StatusDelivered, true},
		// Standing still or moving backwards is not.
		{StatusSubmitted, StatusSubmitted, false},
		{StatusDelivered, StatusDelivered, false},
		{StatusInProgress, StatusSubmitted, false},
		{StatusDelivered, StatusCompleted, false},
		// Unknown stages never transition.
		{"ARCHIVED", StatusDelivered, false},
		{StatusSubmitted, "ARCHIVED", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusSubmitted.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.False(t, StatusCompleted.Terminal())
	assert.True(t, StatusDelivered.Terminal())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusSubmitted))
	assert.True(t, ValidStatus(StatusDelivered))
	assert.False(t, ValidStatus("ARCHIVED"))
	assert.False(t, ValidStatus(""))
}
