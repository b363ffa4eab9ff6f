// Package whatsapp owns the WhatsApp session: it drives the whatsmeow client,
// translates its events into session lifecycle events, and re-initializes the
// connection after every disconnect.
package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"

	"whatsapp-session-api/session"
	"whatsapp-session-api/utils"
)

// ErrNotAuthenticated is returned by query operations before login completes.
var ErrNotAuthenticated = errors.New("session is not authenticated")

// Engine wraps a whatsmeow client behind the lifecycle the rest of the
// service expects: Initialize, Destroy, ListChats, SendText.
type Engine struct {
	container *sqlstore.Container
	mirror    *session.Mirror
	log       zerolog.Logger
	clientLog waLog.Logger
	retry     *reconnector

	// ctx bounds the engine's lifetime; reconnect attempts stop when it is
	// cancelled.
	ctx context.Context

	mu     sync.RWMutex
	client *whatsmeow.Client
}

func NewEngine(ctx context.Context, container *sqlstore.Container, mirror *session.Mirror, reconnectDelay time.Duration, log zerolog.Logger) *Engine {
	e := &Engine{
		container: container,
		mirror:    mirror,
		log:       log.With().Str("component", "whatsapp").Logger(),
		clientLog: waLog.Zerolog(log.With().Str("component", "whatsmeow").Logger()),
		ctx:       ctx,
	}
	e.retry = newReconnector(reconnectDelay, e.reconnect)
	return e
}

// Initialize builds a fresh client from the persisted device store and
// connects it. It is called once at startup and again after every disconnect;
// the HTTP listener never waits on it.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	if e.client != nil {
		if e.client.IsConnected() {
			e.mu.Unlock()
			return nil
		}
		e.client.Disconnect()
		e.client = nil
	}

	device, err := e.container.GetFirstDevice(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			device = e.container.NewDevice()
		} else {
			e.mu.Unlock()
			return fmt.Errorf("failed to load device store: %w", err)
		}
	}

	client := whatsmeow.NewClient(device, e.clientLog)
	// The fixed-delay reconnect policy below is the only one allowed to run.
	client.EnableAutoReconnect = false
	client.AddEventHandler(e.handleEvent)
	e.client = client
	e.mu.Unlock()

	if client.Store.ID == nil {
		// No stored credentials: a QR pairing round is needed. The channel
		// must be requested before Connect.
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			e.log.Error().Err(err).Msg("failed to open QR channel")
		} else {
			go e.watchQR(qrChan)
		}
	}

	if err := client.Connect(); err != nil {
		e.mirror.Dispatch(session.Disconnected{Reason: err.Error()})
		e.retry.Schedule()
		return fmt.Errorf("failed to connect: %w", err)
	}
	return nil
}

// Destroy cancels any pending reconnect and tears the connection down.
func (e *Engine) Destroy() {
	e.retry.Stop()
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		e.client.Disconnect()
	}
}

func (e *Engine) currentClient() *whatsmeow.Client {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.client
}

func (e *Engine) reconnect() {
	utils.IncrementReconnectAttempts()
	e.log.Info().Msg("re-initializing session after disconnect")
	if err := e.Initialize(e.ctx); err != nil {
		e.log.Error().Err(err).Msg("re-initialization failed")
	}
}

func (e *Engine) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Connected:
		// Authenticated must reach the mirror before Ready.
		e.mirror.Dispatch(session.Authenticated{})
		e.mirror.Dispatch(session.Ready{})
	case *events.ConnectFailure:
		reason := v.Reason.String()
		e.mirror.Dispatch(session.AuthFailed{Reason: reason})
		e.mirror.Dispatch(session.Disconnected{Reason: reason})
		e.retry.Schedule()
	case *events.LoggedOut:
		// The device credentials are gone; re-initializing starts a fresh
		// QR pairing round.
		reason := v.Reason.String()
		e.mirror.Dispatch(session.AuthFailed{Reason: reason})
		e.mirror.Dispatch(session.Disconnected{Reason: reason})
		e.retry.Schedule()
	case *events.StreamReplaced:
		e.mirror.Dispatch(session.Disconnected{Reason: "stream replaced by another client"})
		e.retry.Schedule()
	case *events.Disconnected:
		e.mirror.Dispatch(session.Disconnected{})
		e.retry.Schedule()
	}
}

// watchQR consumes one pairing round worth of QR channel items. whatsmeow
// closes the channel after success, timeout or error.
func (e *Engine) watchQR(ch <-chan whatsmeow.QRChannelItem) {
	for item := range ch {
		switch item.Event {
		case whatsmeow.QRChannelEventCode:
			e.mirror.Dispatch(session.QrIssued{Code: item.Code})
		case whatsmeow.QRChannelSuccess.Event:
			e.mirror.Dispatch(session.Authenticated{})
		case whatsmeow.QRChannelTimeout.Event:
			e.mirror.Dispatch(session.AuthFailed{Reason: "login code timed out"})
		case whatsmeow.QRChannelEventError:
			reason := ""
			if item.Error != nil {
				reason = item.Error.Error()
			}
			e.mirror.Dispatch(session.AuthFailed{Reason: reason})
		}
	}
}
