package whatsapp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.mau.fi/whatsmeow/proto/waE2E"
	watypes "go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"whatsapp-session-api/types"
)

// ListChats returns every known contact and joined group, projected to the
// API shape. Both lookups round-trip to the device store or the server, with
// no timeout beyond what the caller's ctx imposes.
func (e *Engine) ListChats(ctx context.Context) ([]types.Chat, error) {
	client := e.currentClient()
	if client == nil || client.Store.ID == nil {
		return nil, ErrNotAuthenticated
	}

	contacts, err := client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	groups, err := client.GetJoinedGroups()
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return projectChats(contacts, groups), nil
}

// SendText sends a plain conversation message. The recipient may be a full
// JID or a bare phone number.
func (e *Engine) SendText(ctx context.Context, recipient, text string) error {
	client := e.currentClient()
	if client == nil || !client.IsConnected() {
		return ErrNotAuthenticated
	}

	jid, err := parseRecipient(recipient)
	if err != nil {
		return err
	}
	msg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func parseRecipient(recipient string) (watypes.JID, error) {
	if strings.Contains(recipient, "@") {
		jid, err := watypes.ParseJID(recipient)
		if err != nil {
			return watypes.JID{}, fmt.Errorf("invalid recipient JID: %w", err)
		}
		return jid, nil
	}
	return watypes.NewJID(recipient, watypes.DefaultUserServer), nil
}

func projectChats(contacts map[watypes.JID]watypes.ContactInfo, groups []*watypes.GroupInfo) []types.Chat {
	chats := make([]types.Chat, 0, len(contacts)+len(groups))
	for jid, info := range contacts {
		chats = append(chats, types.Chat{
			ID:      jid.String(),
			Name:    contactName(jid, info),
			IsGroup: false,
		})
	}
	for _, group := range groups {
		name := group.Name
		if name == "" {
			name = group.JID.User
		}
		chats = append(chats, types.Chat{
			ID:      group.JID.String(),
			Name:    name,
			IsGroup: true,
		})
	}
	// Map iteration order is random; sort so responses are stable.
	sort.Slice(chats, func(i, j int) bool { return chats[i].ID < chats[j].ID })
	return chats
}

// contactName prefers the address-book name and falls back to the push name,
// then to the bare JID user so no chat is listed nameless.
func contactName(jid watypes.JID, info watypes.ContactInfo) string {
	if info.FullName != "" {
		return info.FullName
	}
	if info.PushName != "" {
		return info.PushName
	}
	return jid.User
}
