package session

import (
	"context"
	"encoding/base64"
	"sync"

	"github.com/rs/zerolog"
	"github.com/skip2/go-qrcode"

	"whatsapp-session-api/utils"
)

const unknownReason = "unknown"

// State is a snapshot of the mirrored session lifecycle. Ready is only ever
// true while Authenticated is true.
type State struct {
	Ready         bool
	Authenticated bool
	QR            string
	AuthFailure   string
	Disconnect    string
}

// Encoder turns a raw pairing code into a displayable image payload.
type Encoder func(code string) (string, error)

// EncodeQRDataURI renders the code as a 256px PNG and wraps it in a data URI
// so browsers can use it as an <img> source directly.
func EncodeQRDataURI(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Mirror reflects the engine's lifecycle events into a process-local State.
// Producers enqueue events with Dispatch; a single Run goroutine applies them,
// so ordering is structural rather than a scheduling assumption. Snapshot may
// be called from any goroutine.
type Mirror struct {
	events chan Event
	encode Encoder
	log    zerolog.Logger

	mu    sync.RWMutex
	state State
}

func NewMirror(log zerolog.Logger) *Mirror {
	return NewMirrorWithEncoder(log, EncodeQRDataURI)
}

func NewMirrorWithEncoder(log zerolog.Logger, encode Encoder) *Mirror {
	return &Mirror{
		events: make(chan Event, 64),
		encode: encode,
		log:    log.With().Str("component", "session").Logger(),
	}
}

// Dispatch enqueues an event for the Run loop. It blocks if the queue is
// full rather than dropping, preserving event order.
func (m *Mirror) Dispatch(evt Event) {
	m.events <- evt
}

// Run consumes events until ctx is cancelled. Exactly one Run loop may be
// active per mirror.
func (m *Mirror) Run(ctx context.Context) {
	for {
		select {
		case evt := <-m.events:
			m.Apply(evt)
		case <-ctx.Done():
			return
		}
	}
}

// Apply performs one state transition. It is exported so tests can drive the
// mirror synchronously; production code goes through Dispatch/Run.
func (m *Mirror) Apply(evt Event) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Str("event", evt.kind()).Msg("recovered while applying event")
		}
	}()

	utils.RecordLifecycleEvent(evt.kind())

	m.mu.Lock()
	defer m.mu.Unlock()

	switch e := evt.(type) {
	case QrIssued:
		payload, err := m.encode(e.Code)
		if err != nil {
			// Non-fatal: keep prior state so a previously served QR stays valid.
			m.log.Error().Err(err).Msg("failed to encode login code")
			return
		}
		m.state.QR = payload
		m.state.Authenticated = false
		m.state.Ready = false
		m.log.Info().Msg("new login code issued")
	case Ready:
		m.state.Ready = true
		m.log.Info().Msg("session ready")
	case Authenticated:
		m.state.Authenticated = true
		m.state.AuthFailure = ""
		m.state.QR = ""
		m.log.Info().Msg("authenticated")
	case AuthFailed:
		m.state.Authenticated = false
		m.state.AuthFailure = orUnknown(e.Reason)
		m.log.Warn().Str("reason", m.state.AuthFailure).Msg("authentication failed")
	case Disconnected:
		m.state.Ready = false
		m.state.Disconnect = orUnknown(e.Reason)
		m.log.Warn().Str("reason", m.state.Disconnect).Msg("disconnected")
	}
}

// Snapshot returns a consistent copy of the current state.
func (m *Mirror) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func orUnknown(reason string) string {
	if reason == "" {
		return unknownReason
	}
	return reason
}
