package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	watypes "go.mau.fi/whatsmeow/types"

	"whatsapp-session-api/types"
)

func jid(user string) watypes.JID {
	return watypes.NewJID(user, watypes.DefaultUserServer)
}

func TestProjectChatsNameFallback(t *testing.T) {
	contacts := map[watypes.JID]watypes.ContactInfo{
		jid("111"): {FullName: "Ada Lovelace", PushName: "ada"},
		jid("222"): {PushName: "grace"},
		jid("333"): {},
	}

	chats := projectChats(contacts, nil)
	require.Len(t, chats, 3)

	byID := map[string]types.Chat{}
	for _, c := range chats {
		byID[c.ID] = c
	}

	assert.Equal(t, "Ada Lovelace", byID[jid("111").String()].Name)
	assert.Equal(t, "grace", byID[jid("222").String()].Name)
	assert.Equal(t, "333", byID[jid("333").String()].Name)
	for _, c := range chats {
		assert.False(t, c.IsGroup)
	}
}

func TestProjectChatsIncludesGroups(t *testing.T) {
	groupJID := watypes.NewJID("12345-67890", watypes.GroupServer)
	groups := []*watypes.GroupInfo{{
		JID:       groupJID,
		GroupName: watypes.GroupName{Name: "Book Club"},
	}}

	chats := projectChats(nil, groups)
	require.Len(t, chats, 1)
	assert.Equal(t, groupJID.String(), chats[0].ID)
	assert.Equal(t, "Book Club", chats[0].Name)
	assert.True(t, chats[0].IsGroup)
}

func TestProjectChatsSortedByID(t *testing.T) {
	contacts := map[watypes.JID]watypes.ContactInfo{
		jid("999"): {PushName: "z"},
		jid("111"): {PushName: "a"},
		jid("555"): {PushName: "m"},
	}

	chats := projectChats(contacts, nil)
	require.Len(t, chats, 3)
	for i := 1; i < len(chats); i++ {
		assert.Less(t, chats[i-1].ID, chats[i].ID)
	}
}

func TestParseRecipient(t *testing.T) {
	parsed, err := parseRecipient("123456789")
	require.NoError(t, err)
	assert.Equal(t, jid("123456789"), parsed)

	parsed, err = parseRecipient("123456789@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "123456789", parsed.User)
	assert.Equal(t, watypes.DefaultUserServer, parsed.Server)
}
