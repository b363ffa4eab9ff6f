package types

// Chat is one entry of the chat listing exposed over HTTP. It is the
// projection of a contact or joined group down to what API consumers need.
type Chat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	IsGroup bool   `json:"isGroup"`
}

// SendRequest is the body of POST /send.
type SendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}
