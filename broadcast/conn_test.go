package broadcast

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feather-classroom/feather/feather/types"
)

func TestConn_Pumps(t *testing.T) {
	upgrader := websocket.Upgrader{}
	handled := make(chan *Message, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(rw, r, nil)
		require.Nil(t, err)

		c := NewConn(ws, "s1", "ada", types.RoleStudent)
		go c.WritePump()
		c.ReadPump(func(m *Message) {
			handled <- m
			reply, _ := NewMessage(Question, m.SessionId, map[string]string{"echo": m.Type})
			c.Send(reply)
		})
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.Nil(t, err)
	defer client.Close()

	require.Nil(t, client.WriteJSON(&Message{Type: Heartbeat, ClientId: "spoofed"}))

	select {
	case m := <-handled:
		assert.Equal(t, Heartbeat, m.Type)
		assert.Equal(t, "s1", m.SessionId)
		assert.Equal(t, "ada", m.ClientId)
	case <-time.After(5 * time.Second):
		t.Fatal("message was not handled")
	}

	reply := &Message{}
	client.SetReadDeadline(time.Now().Add(5 * time.Second))
	require.Nil(t, client.ReadJSON(reply))
	assert.Equal(t, Question, reply.Type)

	// malformed frames are answered with an error
	require.Nil(t, client.WriteMessage(websocket.TextMessage, []byte("{nope")))
	require.Nil(t, client.ReadJSON(reply))
	assert.Equal(t, Error, reply.Type)
}
