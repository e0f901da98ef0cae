package storage

import (
	"os"
	"testing"
	"time"

	"github.com/feather-classroom/feather/feather/types"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set FEATHER_TEST_DATABASE_URL to a disposable database to run these.
func newPostgresTestStorage(t *testing.T) StorageApi {
	url := os.Getenv("FEATHER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FEATHER_TEST_DATABASE_URL not set")
	}
	s, err := NewPostgresStorage(url)
	require.Nil(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPostgres_SessionLifecycle(t *testing.T) {
	s := newPostgresTestStorage(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	session := &types.Session{
		Id:        xid.New().String(),
		Code:      xid.New().String()[14:],
		TeacherId: "teacher",
		Status:    types.SessionCreated,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.Nil(t, s.SessionPut(session))
	defer s.SessionDelete(session.Id)

	loaded, err := s.SessionGet(session.Id)
	require.Nil(t, err)
	assert.Equal(t, session.Code, loaded.Code)
	assert.Equal(t, types.SessionCreated, loaded.Status)
	assert.Nil(t, loaded.StartedAt)

	started := now.Add(time.Minute)
	session.Status = types.SessionActive
	session.StartedAt = &started
	require.Nil(t, s.SessionPut(session))

	byCode, err := s.SessionFindByCode(session.Code)
	require.Nil(t, err)
	assert.Equal(t, types.SessionActive, byCode.Status)
	assert.True(t, started.Equal(*byCode.StartedAt))

	_, err = s.SessionGet("missing")
	assert.True(t, NotFound(err))
}

func TestPostgres_WorkRequiresQuestion(t *testing.T) {
	s := newPostgresTestStorage(t)

	now := time.Now().UTC()
	session := &types.Session{Id: xid.New().String(), Code: xid.New().String()[14:], TeacherId: "t", Status: types.SessionActive, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.Nil(t, s.SessionPut(session))
	defer s.SessionDelete(session.Id)

	err := s.WorkPut(&types.StudentWork{SessionId: session.Id, QuestionId: "missing", StudentId: "c1", UpdatedAt: now})
	assert.True(t, NotFound(err))

	q := &types.Question{Id: xid.New().String(), SessionId: session.Id, Index: 1, Kind: types.QuestionBlank, CreatedAt: now}
	require.Nil(t, s.QuestionPut(q))

	strokes := types.Strokes{{Id: "st1", Tool: types.ToolPen, Color: "#123456", Width: 3, Points: []types.Point{{X: 1, Y: 1}}}}
	require.Nil(t, s.WorkPut(&types.StudentWork{SessionId: session.Id, QuestionId: q.Id, StudentId: "c1", Strokes: strokes, UpdatedAt: now}))

	w, err := s.WorkGet(q.Id, "c1")
	require.Nil(t, err)
	assert.Equal(t, "st1", w.Strokes[0].Id)

	work, err := s.WorkFindBySessionId(session.Id)
	require.Nil(t, err)
	assert.Len(t, work, 1)
}
