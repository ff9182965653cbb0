package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/cortexai/cortex-backend/internal/chat"
	"github.com/cortexai/cortex-backend/internal/testutil"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialChat(t *testing.T, ts *testutil.TestServer, token string) (*ws.Conn, *http.Response, error) {
	t.Helper()
	url := strings.Replace(ts.Server.URL, "http", "ws", 1) + "/ws/chat"
	if token != "" {
		url += "?token=" + token
	}
	return ws.DefaultDialer.Dial(url, nil)
}

func TestWebSocketChat_EventSequence(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := ts.RegisterUser(t, "alice", "alice@example.com", "password123")
	ts.Engine.Chunks = []chat.Chunk{{Text: "Hello"}, {Text: " world"}}

	conn, _, err := dialChat(t, ts, token)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"message": "Hi there"}))

	var events []chat.Event
	for i := 0; i < 4; i++ {
		var event chat.Event
		require.NoError(t, conn.ReadJSON(&event))
		events = append(events, event)
	}

	assert.Equal(t, chat.EventStart, events[0].Type)
	assert.NotEmpty(t, events[0].ConversationID)
	assert.Equal(t, chat.EventContent, events[1].Type)
	assert.Equal(t, "Hello", events[1].Content)
	assert.Equal(t, chat.EventContent, events[2].Type)
	assert.Equal(t, " world", events[2].Content)
	assert.Equal(t, chat.EventEnd, events[3].Type)
	assert.Equal(t, "Hello world", events[3].FullResponse)

	// The exchange landed in the store like any other transport's would.
	user, err := ts.Users.GetByEmail(t.Context(), "alice@example.com")
	require.NoError(t, err)
	conv, err := ts.Store.Get(user.ID, events[0].ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Turns, 2)
	assert.Equal(t, "Hello world", conv.Turns[1].Content)
}

func TestWebSocketChat_RejectsBadTokens(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := dialChat(t, ts, tt.token)
			if conn != nil {
				conn.Close()
			}
			require.ErrorIs(t, err, ws.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestWebSocketChat_RequiresMessage(t *testing.T) {
	ts := testutil.NewTestServer(t)
	token := ts.RegisterUser(t, "alice", "alice@example.com", "password123")

	conn, _, err := dialChat(t, ts, token)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{"message": ""}))

	var event chat.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, chat.EventError, event.Type)
	assert.Equal(t, "Message is required", event.Error)
}
