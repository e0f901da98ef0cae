package feather

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/feather-classroom/feather/feather/types"
)

type Mock struct {
	mock.Mock
}

func (m *Mock) SessionNew(ctx context.Context, config types.SessionConfig) (*types.Session, error) {
	args := m.Called(ctx, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Session), args.Error(1)
}

func (m *Mock) SessionGet(id string) (*types.Session, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Session), args.Error(1)
}

func (m *Mock) SessionFindByCode(code string) (*types.Session, error) {
	args := m.Called(code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Session), args.Error(1)
}

func (m *Mock) SessionList() ([]*types.Session, error) {
	args := m.Called()
	return args.Get(0).([]*types.Session), args.Error(1)
}

func (m *Mock) SessionStart(session *types.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *Mock) SessionEnd(session *types.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *Mock) SessionDelete(session *types.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *Mock) SessionSnapshot(session *types.Session, clientId string) (*types.Snapshot, error) {
	args := m.Called(session, clientId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Snapshot), args.Error(1)
}

func (m *Mock) SessionStats(session *types.Session) (*types.SessionStats, error) {
	args := m.Called(session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SessionStats), args.Error(1)
}

func (m *Mock) ParticipantJoin(session *types.Session, config types.ParticipantConfig) (*types.Participant, error) {
	args := m.Called(session, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Participant), args.Error(1)
}

func (m *Mock) ParticipantGet(session *types.Session, clientId string) (*types.Participant, error) {
	args := m.Called(session, clientId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Participant), args.Error(1)
}

func (m *Mock) ParticipantLeave(session *types.Session, clientId string) error {
	args := m.Called(session, clientId)
	return args.Error(0)
}

func (m *Mock) ParticipantList(session *types.Session) ([]*types.Participant, error) {
	args := m.Called(session)
	return args.Get(0).([]*types.Participant), args.Error(1)
}

func (m *Mock) ClientConnect(session *types.Session, clientId string) error {
	args := m.Called(session, clientId)
	return args.Error(0)
}

func (m *Mock) ClientDisconnect(session *types.Session, clientId string) error {
	args := m.Called(session, clientId)
	return args.Error(0)
}

func (m *Mock) ClientHeartbeat(session *types.Session, clientId string) error {
	args := m.Called(session, clientId)
	return args.Error(0)
}

func (m *Mock) QuestionPush(session *types.Session, teacherId string, config types.QuestionConfig) (*types.Question, error) {
	args := m.Called(session, teacherId, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Question), args.Error(1)
}

func (m *Mock) QuestionList(session *types.Session) ([]*types.Question, error) {
	args := m.Called(session)
	return args.Get(0).([]*types.Question), args.Error(1)
}

func (m *Mock) WorkPut(session *types.Session, questionId, studentId string, strokes types.Strokes) (*types.StudentWork, error) {
	args := m.Called(session, questionId, studentId, strokes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.StudentWork), args.Error(1)
}

func (m *Mock) WorkAppendStroke(session *types.Session, questionId, studentId string, stroke types.Stroke) (*types.StudentWork, error) {
	args := m.Called(session, questionId, studentId, stroke)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.StudentWork), args.Error(1)
}

func (m *Mock) WorkClear(session *types.Session, questionId, studentId string) (*types.StudentWork, error) {
	args := m.Called(session, questionId, studentId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.StudentWork), args.Error(1)
}

func (m *Mock) WorkGet(session *types.Session, questionId, studentId string) (*types.StudentWork, error) {
	args := m.Called(session, questionId, studentId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.StudentWork), args.Error(1)
}

func (m *Mock) WorkList(session *types.Session, questionId string) ([]*types.StudentWork, error) {
	args := m.Called(session, questionId)
	return args.Get(0).([]*types.StudentWork), args.Error(1)
}

func (m *Mock) AnnotationPut(session *types.Session, teacherId, questionId, studentId string, strokes types.Strokes) (*types.Annotation, error) {
	args := m.Called(session, teacherId, questionId, studentId, strokes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Annotation), args.Error(1)
}

func (m *Mock) AnnotationGet(session *types.Session, questionId, studentId string) (*types.Annotation, error) {
	args := m.Called(session, questionId, studentId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Annotation), args.Error(1)
}

func (m *Mock) ImageNew(session *types.Session, r io.Reader) (*types.Image, error) {
	args := m.Called(session, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Image), args.Error(1)
}

func (m *Mock) ImageGet(id string) (*types.Image, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Image), args.Error(1)
}
