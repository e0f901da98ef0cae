package client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/feather/types"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func stroke(id string, at int) types.Stroke {
	return types.Stroke{Id: id, Tool: types.ToolPen, Color: "#000", Width: 2, Points: []types.Point{{X: 1, Y: 1}}, CreatedAt: epoch.Add(time.Duration(at) * time.Second)}
}

func ids(strokes types.Strokes) []string {
	out := []string{}
	for _, s := range strokes {
		out = append(out, s.Id)
	}
	return out
}

func newSnapshot(clientId string, role types.Role) *types.Snapshot {
	return &types.Snapshot{
		Session:   &types.Session{Id: "s1", Status: types.SessionActive, TeacherId: "teacher", CurrentQuestionId: "q1"},
		ClientId:  clientId,
		Role:      role,
		Questions: []*types.Question{{Id: "q1", SessionId: "s1"}},
		Participants: []*types.Participant{
			{SessionId: "s1", ClientId: "bob", Role: types.RoleStudent, JoinedAt: epoch.Add(2 * time.Second)},
			{SessionId: "s1", ClientId: "ada", Role: types.RoleStudent, JoinedAt: epoch.Add(time.Second)},
			{SessionId: "s1", ClientId: "teacher", Role: types.RoleTeacher, JoinedAt: epoch},
		},
		Presence:    []string{"ada", "teacher"},
		GeneratedAt: epoch.Add(time.Minute),
	}
}

func TestReconcile_FirstSync(t *testing.T) {
	snapshot := newSnapshot("ada", types.RoleStudent)
	snapshot.Work = []*types.StudentWork{{SessionId: "s1", QuestionId: "q1", StudentId: "ada", Strokes: types.Strokes{stroke("a1", 1)}}}

	state, resync := Reconcile(nil, snapshot)
	assert.True(t, resync.Empty())
	assert.Equal(t, "ada", state.ClientId)
	assert.Equal(t, types.RoleStudent, state.Role)
	assert.Equal(t, []string{"a1"}, ids(state.WorkOf("q1", "ada").Strokes))
	assert.Equal(t, "q1", state.CurrentQuestion().Id)

	require.Len(t, state.Roster, 3)
	assert.Equal(t, "teacher", state.Roster[0].ClientId)
	assert.Equal(t, "ada", state.Roster[1].ClientId)
	assert.Equal(t, "bob", state.Roster[2].ClientId)
	assert.True(t, state.Online("ada"))
	assert.False(t, state.Online("bob"))
}

func TestReconcile_OfflineStrokes(t *testing.T) {
	local := NewState("s1", "ada")
	local.AddStroke("q1", stroke("a1", 1))
	local.AddStroke("q1", stroke("a3", 3))
	local.AddStroke("gone", stroke("x1", 1))

	snapshot := newSnapshot("ada", types.RoleStudent)
	snapshot.Work = []*types.StudentWork{
		{SessionId: "s1", QuestionId: "q1", StudentId: "ada", Strokes: types.Strokes{stroke("a1", 1), stroke("a2", 2)}},
		{SessionId: "s1", QuestionId: "q1", StudentId: "bob", Strokes: types.Strokes{stroke("b1", 1)}},
	}

	state, resync := Reconcile(local, snapshot)
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids(state.WorkOf("q1", "ada").Strokes))
	assert.Equal(t, []string{"b1"}, ids(state.WorkOf("q1", "bob").Strokes))
	assert.Nil(t, state.WorkOf("gone", "ada"))

	require.Len(t, resync.Strokes, 1)
	assert.Equal(t, PendingStroke{QuestionId: "q1", Stroke: stroke("a3", 3)}, resync.Strokes[0])
}

func TestReconcile_EndedSession(t *testing.T) {
	local := NewState("s1", "ada")
	local.AddStroke("q1", stroke("a1", 1))

	snapshot := newSnapshot("ada", types.RoleStudent)
	snapshot.Session.Status = types.SessionEnded

	state, resync := Reconcile(local, snapshot)
	assert.True(t, resync.Empty())
	assert.Empty(t, state.WorkOf("q1", "ada").Strokes)
}

func TestReconcile_Annotations(t *testing.T) {
	local := NewState("s1", "teacher")
	local.SetAnnotation(&types.Annotation{QuestionId: "q1", StudentId: "ada", TeacherId: "teacher", Strokes: types.Strokes{stroke("new", 5)}, UpdatedAt: epoch.Add(5 * time.Second)})
	local.SetAnnotation(&types.Annotation{QuestionId: "q1", StudentId: "bob", TeacherId: "teacher", Strokes: types.Strokes{stroke("old", 1)}, UpdatedAt: epoch.Add(time.Second)})

	snapshot := newSnapshot("teacher", types.RoleTeacher)
	snapshot.Annotations = []*types.Annotation{
		{QuestionId: "q1", StudentId: "ada", TeacherId: "teacher", Strokes: types.Strokes{stroke("server", 2)}, UpdatedAt: epoch.Add(2 * time.Second)},
		{QuestionId: "q1", StudentId: "bob", TeacherId: "teacher", Strokes: types.Strokes{stroke("server", 3)}, UpdatedAt: epoch.Add(3 * time.Second)},
	}

	state, resync := Reconcile(local, snapshot)
	assert.Equal(t, []string{"new"}, ids(state.AnnotationOf("q1", "ada").Strokes))
	assert.Equal(t, []string{"server"}, ids(state.AnnotationOf("q1", "bob").Strokes))
	require.Len(t, resync.Annotations, 1)
	assert.Equal(t, "ada", resync.Annotations[0].StudentId)
}

func frame(t *testing.T, messageType string, data interface{}) *broadcast.Message {
	m, err := broadcast.NewMessage(messageType, "s1", data)
	require.Nil(t, err)
	return m
}

func TestApply(t *testing.T) {
	state, _ := Reconcile(nil, newSnapshot("ada", types.RoleStudent))

	changed, err := state.Apply(frame(t, broadcast.Question, &types.Question{Id: "q2", SessionId: "s1", Index: 2}))
	assert.Nil(t, err)
	assert.True(t, changed)
	assert.Equal(t, "q2", state.CurrentQuestion().Id)

	// an echo of older work keeps the strokes still in flight
	state.AddStroke("q2", stroke("a1", 1))
	state.AddStroke("q2", stroke("a2", 2))
	echo := &types.StudentWork{QuestionId: "q2", StudentId: "ada", Strokes: types.Strokes{stroke("a1", 1)}, UpdatedAt: time.Now().Add(time.Second)}
	changed, err = state.Apply(frame(t, broadcast.StudentLines, echo))
	assert.Nil(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"a1", "a2"}, ids(state.WorkOf("q2", "ada").Strokes))

	stale := &types.StudentWork{QuestionId: "q2", StudentId: "ada", Strokes: types.Strokes{}, UpdatedAt: epoch}
	changed, _ = state.Apply(frame(t, broadcast.StudentLines, stale))
	assert.False(t, changed)

	m := frame(t, broadcast.PresenceEnter, nil)
	m.ClientId = "bob"
	changed, _ = state.Apply(m)
	assert.True(t, changed)
	assert.True(t, state.Online("bob"))

	changed, _ = state.Apply(frame(t, broadcast.ParticipantJoin, &types.Participant{SessionId: "s1", ClientId: "cyd", Role: types.RoleStudent}))
	assert.True(t, changed)
	assert.Len(t, state.Roster, 4)

	m = frame(t, broadcast.ParticipantLeave, nil)
	m.ClientId = "cyd"
	changed, _ = state.Apply(m)
	assert.True(t, changed)
	assert.Len(t, state.Roster, 3)

	changed, _ = state.Apply(frame(t, broadcast.SessionEnded, &types.Session{Id: "s1", Status: types.SessionEnded}))
	assert.True(t, changed)
	assert.True(t, state.Session.IsEnded())

	changed, err = state.Apply(&broadcast.Message{Type: broadcast.Question, Data: json.RawMessage(`{`)})
	assert.NotNil(t, err)
	assert.False(t, changed)
}

func TestApply_OutOfOrder(t *testing.T) {
	state, _ := Reconcile(nil, newSnapshot("teacher", types.RoleTeacher))
	at := time.Now()

	leave := frame(t, broadcast.PresenceLeave, nil)
	leave.ClientId = "ada"
	leave.Timestamp = at.Add(time.Second)
	changed, err := state.Apply(leave)
	assert.Nil(t, err)
	assert.True(t, changed)
	assert.False(t, state.Online("ada"))

	enter := frame(t, broadcast.PresenceEnter, nil)
	enter.ClientId = "ada"
	enter.Timestamp = at
	changed, err = state.Apply(enter)
	assert.Nil(t, err)
	assert.False(t, changed)
	assert.False(t, state.Online("ada"))

	// frames older than the snapshot are already part of it
	before := frame(t, broadcast.PresenceLeave, nil)
	before.ClientId = "teacher"
	before.Timestamp = epoch
	changed, _ = state.Apply(before)
	assert.False(t, changed)
	assert.True(t, state.Online("teacher"))

	join := frame(t, broadcast.ParticipantJoin, &types.Participant{SessionId: "s1", ClientId: "cyd", Role: types.RoleStudent})
	join.Timestamp = at.Add(time.Second)
	gone := frame(t, broadcast.ParticipantLeave, nil)
	gone.ClientId = "cyd"
	gone.Timestamp = at.Add(2 * time.Second)
	_, err = state.Apply(gone)
	assert.Nil(t, err)
	changed, _ = state.Apply(join)
	assert.False(t, changed)
	assert.Len(t, state.Roster, 3)

	changed, _ = state.Apply(frame(t, broadcast.SessionEnded, &types.Session{Id: "s1", Status: types.SessionEnded}))
	assert.True(t, changed)
	changed, _ = state.Apply(frame(t, broadcast.SessionStarted, &types.Session{Id: "s1", Status: types.SessionActive}))
	assert.False(t, changed)
	assert.True(t, state.Session.IsEnded())
}
