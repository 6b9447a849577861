package authgw

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAuthFailureStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{"unauthorized", 401, true},
		{"forbidden", 403, true},
		{"not found", 404, false},
		{"server error", 500, false},
		{"conflict", 409, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &StatusError{Status: tt.status, Message: "anything"}
			assert.Equal(t, tt.want, IsAuthFailure(err))
		})
	}
}

func TestIsAuthFailureMarkers(t *testing.T) {
	for _, marker := range authFailureMarkers {
		t.Run(marker, func(t *testing.T) {
			assert.True(t, IsAuthFailure(errors.New(marker)))
			// Case-insensitive and embedded in a longer message.
			wrapped := fmt.Errorf("call failed: %s (code 42)", marker)
			assert.True(t, IsAuthFailure(wrapped))
		})
	}
}

func TestIsAuthFailureCaseInsensitive(t *testing.T) {
	assert.True(t, IsAuthFailure(errors.New("JWT Expired")))
	assert.True(t, IsAuthFailure(errors.New("Invalid Refresh Token")))
}

func TestIsAuthFailureNegative(t *testing.T) {
	assert.False(t, IsAuthFailure(nil))
	assert.False(t, IsAuthFailure(errors.New("validation failed: email required")))
	assert.False(t, IsAuthFailure(errors.New("dial tcp: connection refused")))
}

func TestIsAuthFailureWrappedStatus(t *testing.T) {
	err := fmt.Errorf("fetch profile: %w", &StatusError{Status: 401, Message: "nope"})
	assert.True(t, IsAuthFailure(err))
}

func TestGatewayDispatchesToAllSubscribers(t *testing.T) {
	g := New()
	var order []string
	g.Subscribe(func() { order = append(order, "first") })
	g.Subscribe(func() { order = append(order, "second") })

	handled := g.HandlePossibleSessionError(&StatusError{Status: 401, Message: "jwt expired"})
	require.True(t, handled)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestGatewayIgnoresUnrelatedErrors(t *testing.T) {
	g := New()
	fired := false
	g.Subscribe(func() { fired = true })

	assert.False(t, g.HandlePossibleSessionError(errors.New("validation failed")))
	assert.False(t, g.HandlePossibleSessionError(nil))
	assert.False(t, fired)
}

func TestGatewayUnsubscribe(t *testing.T) {
	g := New()
	count := 0
	unsub := g.Subscribe(func() { count++ })

	g.HandlePossibleSessionError(ErrSessionExpired)
	require.Equal(t, 1, count)

	unsub()
	unsub() // second call is a no-op
	g.HandlePossibleSessionError(ErrSessionExpired)
	assert.Equal(t, 1, count)
}

func TestGatewayHandlesSentinelDirectly(t *testing.T) {
	g := New()
	fired := false
	g.Subscribe(func() { fired = true })

	require.True(t, g.HandlePossibleSessionError(fmt.Errorf("list fetch: %w", ErrSessionExpired)))
	assert.True(t, fired)
}
