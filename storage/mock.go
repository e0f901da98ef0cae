package storage

import (
	"github.com/feather-classroom/feather/feather/types"
	"github.com/stretchr/testify/mock"
)

type Mock struct {
	mock.Mock
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

func (m *Mock) SessionGetAll() ([]*types.Session, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Session), args.Error(1)
}

func (m *Mock) SessionPut(session *types.Session) error {
	args := m.Called(session)
	return args.Error(0)
}

func (m *Mock) SessionDelete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *Mock) SessionCount() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *Mock) ParticipantGet(sessionId, clientId string) (*types.Participant, error) {
	args := m.Called(sessionId, clientId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Participant), args.Error(1)
}

func (m *Mock) ParticipantPut(participant *types.Participant) error {
	args := m.Called(participant)
	return args.Error(0)
}

func (m *Mock) ParticipantDelete(sessionId, clientId string) error {
	args := m.Called(sessionId, clientId)
	return args.Error(0)
}

func (m *Mock) ParticipantFindBySessionId(sessionId string) ([]*types.Participant, error) {
	args := m.Called(sessionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Participant), args.Error(1)
}

func (m *Mock) ParticipantCount() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *Mock) QuestionGet(id string) (*types.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Question), args.Error(1)
}

func (m *Mock) QuestionPut(question *types.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *Mock) QuestionFindBySessionId(sessionId string) ([]*types.Question, error) {
	args := m.Called(sessionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Question), args.Error(1)
}

func (m *Mock) WorkGet(questionId, studentId string) (*types.StudentWork, error) {
	args := m.Called(questionId, studentId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.StudentWork), args.Error(1)
}

func (m *Mock) WorkPut(work *types.StudentWork) error {
	args := m.Called(work)
	return args.Error(0)
}

func (m *Mock) WorkFindByQuestionId(questionId string) ([]*types.StudentWork, error) {
	args := m.Called(questionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.StudentWork), args.Error(1)
}

func (m *Mock) WorkFindBySessionId(sessionId string) ([]*types.StudentWork, error) {
	args := m.Called(sessionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.StudentWork), args.Error(1)
}

func (m *Mock) AnnotationGet(questionId, studentId string) (*types.Annotation, error) {
	args := m.Called(questionId, studentId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Annotation), args.Error(1)
}

func (m *Mock) AnnotationPut(annotation *types.Annotation) error {
	args := m.Called(annotation)
	return args.Error(0)
}

func (m *Mock) AnnotationFindBySessionId(sessionId string) ([]*types.Annotation, error) {
	args := m.Called(sessionId)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Annotation), args.Error(1)
}

func (m *Mock) ImageGet(id string) (*types.Image, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Image), args.Error(1)
}

func (m *Mock) ImagePut(image *types.Image) error {
	args := m.Called(image)
	return args.Error(0)
}

func (m *Mock) Close() error {
	args := m.Called()
	return args.Error(0)
}
