package handlers

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/feather/types"
)

func (ts *testServer) dial(t *testing.T, sessionId, clientId, token string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	header.Set(clientHeader, clientId)
	if token != "" {
		header.Set(teacherTokenHeader, token)
	}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/sessions/" + sessionId + "/ws/"
	ws, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Cleanup(func() { ws.Close() })
	}
	return ws, resp, err
}

// readUntil reads frames until one of the given type shows up.
func readUntil(t *testing.T, ws *websocket.Conn, messageType string) *broadcast.Message {
	require.Nil(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		m := &broadcast.Message{}
		require.Nil(t, ws.ReadJSON(m))
		if m.Type == messageType {
			return m
		}
	}
}

func TestWSH_RequiresParticipant(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newSession(t, "teacher1")

	_, resp, err := ts.dial(t, created.Session.Id, "stranger", "")
	assert.NotNil(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = ts.dial(t, created.Session.Id, "teacher1", "")
	assert.NotNil(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWSH_RoundTrip(t *testing.T) {
	ts := newTestServer(t)
	created := ts.newSession(t, "teacher1")
	sessionId := created.Session.Id

	resp := ts.do(t, "POST", "/sessions/"+sessionId+"/participants", "ada", "", JoinRequest{Name: "Ada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	teacher, _, err := ts.dial(t, sessionId, "teacher1", created.TeacherToken)
	require.Nil(t, err)
	state := readUntil(t, teacher, broadcast.SyncFullState)
	snapshot := types.Snapshot{}
	require.Nil(t, state.Decode(&snapshot))
	assert.Equal(t, types.RoleTeacher, snapshot.Role)
	assert.Equal(t, []string{"teacher1"}, snapshot.Presence)

	student, _, err := ts.dial(t, sessionId, "ada", "")
	require.Nil(t, err)
	readUntil(t, student, broadcast.SyncFullState)

	enter := readUntil(t, teacher, broadcast.PresenceEnter)
	assert.Equal(t, "ada", enter.ClientId)

	require.Nil(t, teacher.WriteJSON(broadcast.Message{Type: broadcast.PushQuestion, Data: []byte(`{"kind":"blank"}`)}))
	pushed := readUntil(t, student, broadcast.Question)
	q := types.Question{}
	require.Nil(t, pushed.Decode(&q))
	assert.Equal(t, sessionId, q.SessionId)
	assert.Equal(t, q.Id, pushed.QuestionId)

	lines := `{"strokes":[{"id":"s1","tool":"pen","color":"#000","width":2,"points":[{"x":1,"y":2}]}]}`
	require.Nil(t, student.WriteJSON(broadcast.Message{Type: broadcast.StudentLines, QuestionId: q.Id, Data: []byte(lines)}))
	relayed := readUntil(t, teacher, broadcast.StudentLines)
	assert.Equal(t, "ada", relayed.StudentId)
	assert.Equal(t, q.Id, relayed.QuestionId)
	w := types.StudentWork{}
	require.Nil(t, relayed.Decode(&w))
	assert.Len(t, w.Strokes, 1)

	require.Nil(t, student.WriteJSON(broadcast.Message{Type: broadcast.TeacherAnnotation, QuestionId: q.Id, StudentId: "ada"}))
	readUntil(t, student, broadcast.Error)

	require.Nil(t, student.WriteJSON(broadcast.Message{Type: "dance"}))
	readUntil(t, student, broadcast.Error)

	require.Nil(t, student.Close())
	leave := readUntil(t, teacher, broadcast.PresenceLeave)
	assert.Equal(t, "ada", leave.ClientId)
}
