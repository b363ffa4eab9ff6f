package session

// Event is a lifecycle event emitted by the WhatsApp engine. Events must be
// applied in emission order; the mirror's Run loop guarantees that.
type Event interface {
	kind() string
}

// QrIssued carries the raw pairing code of a newly issued login QR.
type QrIssued struct {
	Code string
}

// Ready fires once the session is usable for queries.
type Ready struct{}

// Authenticated fires once login has succeeded.
type Authenticated struct{}

// AuthFailed fires when an authentication attempt is rejected.
type AuthFailed struct {
	Reason string
}

// Disconnected fires when the session connection drops.
type Disconnected struct {
	Reason string
}

func (QrIssued) kind() string      { return "qr" }
func (Ready) kind() string         { return "ready" }
func (Authenticated) kind() string { return "authenticated" }
func (AuthFailed) kind() string    { return "auth_failure" }
func (Disconnected) kind() string  { return "disconnected" }
