package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMirror() *Mirror {
	return NewMirrorWithEncoder(zerolog.Nop(), func(code string) (string, error) {
		return "<encoded-" + code + ">", nil
	})
}

func TestQrIssuedClearsAuthentication(t *testing.T) {
	m := newTestMirror()
	m.Apply(Authenticated{})
	m.Apply(Ready{})

	m.Apply(QrIssued{Code: "ABC"})

	state := m.Snapshot()
	assert.Equal(t, "<encoded-ABC>", state.QR)
	assert.False(t, state.Authenticated)
	assert.False(t, state.Ready)
}

func TestAuthenticatedClearsQRAndFailure(t *testing.T) {
	m := newTestMirror()
	m.Apply(QrIssued{Code: "ABC"})
	m.Apply(AuthFailed{Reason: "scan rejected"})

	m.Apply(Authenticated{})

	state := m.Snapshot()
	assert.True(t, state.Authenticated)
	assert.Empty(t, state.QR)
	assert.Empty(t, state.AuthFailure)
}

func TestAuthFailedDefaultsToUnknown(t *testing.T) {
	m := newTestMirror()
	m.Apply(AuthFailed{})
	assert.Equal(t, "unknown", m.Snapshot().AuthFailure)

	m.Apply(AuthFailed{Reason: "bad credentials"})
	assert.Equal(t, "bad credentials", m.Snapshot().AuthFailure)
}

func TestDisconnectedClearsReady(t *testing.T) {
	m := newTestMirror()
	m.Apply(Authenticated{})
	m.Apply(Ready{})

	m.Apply(Disconnected{Reason: "NAVIGATION"})

	state := m.Snapshot()
	assert.False(t, state.Ready)
	assert.True(t, state.Authenticated)
	assert.Equal(t, "NAVIGATION", state.Disconnect)

	m.Apply(Disconnected{})
	assert.Equal(t, "unknown", m.Snapshot().Disconnect)
}

func TestEncodingFailureLeavesStateUntouched(t *testing.T) {
	calls := 0
	m := NewMirrorWithEncoder(zerolog.Nop(), func(code string) (string, error) {
		calls++
		if calls > 1 {
			return "", errors.New("encoder broke")
		}
		return "payload-" + code, nil
	})

	m.Apply(QrIssued{Code: "first"})
	before := m.Snapshot()

	m.Apply(QrIssued{Code: "second"})

	assert.Equal(t, before, m.Snapshot())
	assert.Equal(t, "payload-first", m.Snapshot().QR)
}

func TestReadyImpliesAuthenticated(t *testing.T) {
	// Every prefix of a realistic event stream must satisfy the invariant.
	events := []Event{
		QrIssued{Code: "A"},
		Authenticated{},
		Ready{},
		Disconnected{Reason: "gone"},
		Authenticated{},
		Ready{},
		QrIssued{Code: "B"},
		AuthFailed{Reason: "timeout"},
		Authenticated{},
		Ready{},
	}

	m := newTestMirror()
	for i, evt := range events {
		m.Apply(evt)
		state := m.Snapshot()
		if state.Ready {
			require.True(t, state.Authenticated, "ready without authenticated after event %d (%T)", i, evt)
		}
	}
}

func TestSnapshotUnderConcurrentMutation(t *testing.T) {
	m := newTestMirror()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			m.Apply(Authenticated{})
			m.Apply(Ready{})
			m.Apply(Disconnected{Reason: "churn"})
		}
	}()

	for i := 0; i < 500; i++ {
		state := m.Snapshot()
		if state.Ready {
			require.True(t, state.Authenticated, "torn snapshot: ready without authenticated")
		}
	}
	<-done
}

func TestDispatchAppliesInOrder(t *testing.T) {
	m := newTestMirror()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	m.Dispatch(QrIssued{Code: "ABC"})
	m.Dispatch(Authenticated{})
	m.Dispatch(Ready{})

	require.Eventually(t, func() bool {
		state := m.Snapshot()
		return state.Ready && state.Authenticated && state.QR == ""
	}, time.Second, 5*time.Millisecond)
}

func TestEncodeQRDataURI(t *testing.T) {
	payload, err := EncodeQRDataURI("2@abcdefghijklmnop")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload, "data:image/png;base64,"))
	assert.Greater(t, len(payload), len("data:image/png;base64,"))
}
