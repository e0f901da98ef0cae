package feather

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather/types"
	"github.com/feather-classroom/feather/id"
	"github.com/feather-classroom/feather/storage"
)

func newTestFeather(t *testing.T) (*feather, *event.Recorder) {
	s, err := storage.NewFileStorage(filepath.Join(t.TempDir(), "sessions"))
	require.Nil(t, err)
	e := event.NewRecorder()
	return NewFeather(s, e), e
}

func newTestSession(t *testing.T, p *feather) *types.Session {
	s, err := p.SessionNew(context.Background(), types.SessionConfig{TeacherId: "teacher", Title: "Fractions", Duration: time.Hour})
	require.Nil(t, err)
	return s
}

func TestSessionNew(t *testing.T) {
	_s := &storage.Mock{}
	_g := &id.MockGenerator{}
	_e := &event.Mock{}

	_g.On("NewId").Return("aaaabbbbcccc")
	_g.On("NewCode").Return("ABC234")
	_s.On("SessionFindByCode", "ABC234").Return(nil, storage.NotFoundError)
	_s.On("SessionPut", mock.AnythingOfType("*types.Session")).Return(nil)
	_s.On("ParticipantPut", mock.AnythingOfType("*types.Participant")).Return(nil)
	_s.On("SessionCount").Return(1, nil)
	_s.On("ParticipantCount").Return(1, nil)

	var nilArgs []interface{}
	_e.M.On("Emit", event.SESSION_NEW, "aaaabbbbcccc", nilArgs).Return()

	p := NewFeather(_s, _e)
	p.generator = _g

	before := time.Now()

	s, err := p.SessionNew(context.Background(), types.SessionConfig{TeacherId: "teacher", Title: "Fractions", Duration: time.Hour})
	assert.Nil(t, err)
	assert.NotNil(t, s)

	assert.Equal(t, "aaaabbbbcccc", s.Id)
	assert.Equal(t, "ABC234", s.Code)
	assert.Equal(t, "Fractions", s.Title)
	assert.Equal(t, "teacher", s.TeacherId)
	assert.Equal(t, types.SessionCreated, s.Status)
	assert.WithinDuration(t, s.CreatedAt, before, time.Since(before))
	assert.WithinDuration(t, s.ExpiresAt, before.Add(time.Hour), time.Second)
	assert.Nil(t, s.StartedAt)

	teacher := _s.Calls[2].Arguments.Get(0).(*types.Participant)
	assert.Equal(t, types.RoleTeacher, teacher.Role)
	assert.Equal(t, "teacher", teacher.ClientId)
	assert.Equal(t, s.Id, teacher.SessionId)

	_s.AssertExpectations(t)
	_g.AssertExpectations(t)
	_e.M.AssertExpectations(t)
}

func TestSessionNew_WithoutTeacher(t *testing.T) {
	p, _ := newTestFeather(t)

	_, err := p.SessionNew(context.Background(), types.SessionConfig{})
	assert.Equal(t, ErrInvalidParticipant, err)
}

func TestSessionNew_CodeCollision(t *testing.T) {
	p, _ := newTestFeather(t)
	first := newTestSession(t, p)

	_g := &id.MockGenerator{}
	_g.On("NewCode").Return(first.Code).Once()
	_g.On("NewCode").Return("ZZZ999").Once()
	_g.On("NewId").Return("second")
	p.generator = _g

	second := newTestSession(t, p)
	assert.Equal(t, "ZZZ999", second.Code)
	_g.AssertExpectations(t)
}

func TestSessionFindByCode(t *testing.T) {
	p, _ := newTestFeather(t)
	s := newTestSession(t, p)

	found, err := p.SessionFindByCode(" " + s.Code + " ")
	assert.Nil(t, err)
	assert.Equal(t, s.Id, found.Id)

	p.codes.Purge()
	found, err = p.SessionFindByCode(s.Code)
	assert.Nil(t, err)
	assert.Equal(t, s.Id, found.Id)

	_, err = p.SessionFindByCode("NOPE00")
	assert.True(t, storage.NotFound(err))
}

func TestSessionLifecycle(t *testing.T) {
	p, e := newTestFeather(t)
	s := newTestSession(t, p)

	assert.Nil(t, p.SessionStart(s))
	assert.Equal(t, types.SessionActive, s.Status)
	assert.NotNil(t, s.StartedAt)
	startedAt := *s.StartedAt

	// starting twice keeps the original start time
	assert.Nil(t, p.SessionStart(s))
	assert.Equal(t, startedAt, *s.StartedAt)

	assert.Nil(t, p.SessionEnd(s))
	assert.Equal(t, types.SessionEnded, s.Status)
	assert.NotNil(t, s.EndedAt)
	assert.Nil(t, p.SessionEnd(s))

	assert.Equal(t, ErrSessionEnded, p.SessionStart(s))

	stored, err := p.SessionGet(s.Id)
	assert.Nil(t, err)
	assert.Equal(t, types.SessionEnded, stored.Status)

	assert.Len(t, e.Of(event.SESSION_NEW), 1)
	assert.Len(t, e.Of(event.SESSION_START), 1)
	ended := e.Of(event.SESSION_END)
	assert.Len(t, ended, 1)
	assert.Equal(t, types.SessionEnded, ended[0].Args[0].(*types.Session).Status)
}

func TestSessionStart_StaleCopy(t *testing.T) {
	p, _ := newTestFeather(t)
	s := newTestSession(t, p)
	stale := *s

	assert.Nil(t, p.SessionEnd(s))
	assert.Equal(t, ErrSessionEnded, p.SessionStart(&stale))
}

func TestSessionDelete(t *testing.T) {
	p, e := newTestFeather(t)
	s := newTestSession(t, p)
	_, err := p.ParticipantJoin(s, types.ParticipantConfig{ClientId: "student", Name: "Ada"})
	require.Nil(t, err)

	assert.Nil(t, p.SessionDelete(s))

	_, err = p.SessionGet(s.Id)
	assert.True(t, storage.NotFound(err))
	_, err = p.SessionFindByCode(s.Code)
	assert.True(t, storage.NotFound(err))
	assert.Len(t, e.Of(event.SESSION_END), 1)

	sessions, err := p.SessionList()
	assert.Nil(t, err)
	assert.Empty(t, sessions)
}

func TestSessionSnapshot(t *testing.T) {
	p, _ := newTestFeather(t)
	s := newTestSession(t, p)

	for _, c := range []string{"ada", "bob"} {
		_, err := p.ParticipantJoin(s, types.ParticipantConfig{ClientId: c, Name: c})
		require.Nil(t, err)
	}
	q, err := p.QuestionPush(s, "teacher", types.QuestionConfig{Kind: types.QuestionBlank})
	require.Nil(t, err)

	_, err = p.WorkPut(s, q.Id, "ada", types.Strokes{stroke("a1")})
	require.Nil(t, err)
	_, err = p.WorkPut(s, q.Id, "bob", types.Strokes{stroke("b1")})
	require.Nil(t, err)
	_, err = p.AnnotationPut(s, "teacher", q.Id, "bob", types.Strokes{stroke("t1")})
	require.Nil(t, err)
	require.Nil(t, p.ClientConnect(s, "ada"))

	snapshot, err := p.SessionSnapshot(s, "teacher")
	assert.Nil(t, err)
	assert.Equal(t, types.RoleTeacher, snapshot.Role)
	assert.Len(t, snapshot.Participants, 3)
	assert.Len(t, snapshot.Questions, 1)
	assert.Len(t, snapshot.Work, 2)
	assert.Len(t, snapshot.Annotations, 1)
	assert.Equal(t, []string{"ada"}, snapshot.Presence)
	assert.Equal(t, q.Id, snapshot.Session.CurrentQuestionId)

	snapshot, err = p.SessionSnapshot(s, "ada")
	assert.Nil(t, err)
	assert.Equal(t, types.RoleStudent, snapshot.Role)
	assert.Len(t, snapshot.Work, 1)
	assert.Equal(t, "ada", snapshot.Work[0].StudentId)
	assert.Empty(t, snapshot.Annotations)

	snapshot, err = p.SessionSnapshot(s, "bob")
	assert.Nil(t, err)
	assert.Len(t, snapshot.Work, 1)
	assert.Equal(t, "b1", snapshot.Work[0].Strokes[0].Id)
	assert.Len(t, snapshot.Annotations, 1)

	_, err = p.SessionSnapshot(s, "mallory")
	assert.Equal(t, ErrParticipantNotFound, err)
}

func TestSessionStats(t *testing.T) {
	p, _ := newTestFeather(t)
	s := newTestSession(t, p)

	stats, err := p.SessionStats(s)
	assert.Nil(t, err)
	assert.Equal(t, &types.SessionStats{}, stats)

	for _, c := range []string{"ada", "bob", "cyd"} {
		_, err := p.ParticipantJoin(s, types.ParticipantConfig{ClientId: c})
		require.Nil(t, err)
	}
	require.Nil(t, p.ClientConnect(s, "ada"))
	require.Nil(t, p.ClientConnect(s, "teacher"))

	q, err := p.QuestionPush(s, "teacher", types.QuestionConfig{})
	require.Nil(t, err)
	_, err = p.WorkPut(s, q.Id, "ada", types.Strokes{stroke("a1")})
	require.Nil(t, err)
	_, err = p.WorkClear(s, q.Id, "bob")
	require.Nil(t, err)

	stats, err = p.SessionStats(s)
	assert.Nil(t, err)
	assert.Equal(t, &types.SessionStats{QuestionId: q.Id, Students: 3, ConnectedStudents: 1, Submitted: 1}, stats)
}
