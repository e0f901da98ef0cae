package storage

import (
	"errors"

	"github.com/feather-classroom/feather/feather/types"
)

var NotFoundError = errors.New("NotFound")

func NotFound(e error) bool {
	return errors.Is(e, NotFoundError)
}

type StorageApi interface {
	SessionGet(id string) (*types.Session, error)
	SessionFindByCode(code string) (*types.Session, error)
	SessionGetAll() ([]*types.Session, error)
	SessionPut(session *types.Session) error
	SessionDelete(id string) error
	SessionCount() (int, error)

	ParticipantGet(sessionId, clientId string) (*types.Participant, error)
	ParticipantPut(participant *types.Participant) error
	ParticipantDelete(sessionId, clientId string) error
	ParticipantFindBySessionId(sessionId string) ([]*types.Participant, error)
	ParticipantCount() (int, error)

	QuestionGet(id string) (*types.Question, error)
	QuestionPut(question *types.Question) error
	QuestionFindBySessionId(sessionId string) ([]*types.Question, error)

	WorkGet(questionId, studentId string) (*types.StudentWork, error)
	WorkPut(work *types.StudentWork) error
	WorkFindByQuestionId(questionId string) ([]*types.StudentWork, error)
	WorkFindBySessionId(sessionId string) ([]*types.StudentWork, error)

	AnnotationGet(questionId, studentId string) (*types.Annotation, error)
	AnnotationPut(annotation *types.Annotation) error
	AnnotationFindBySessionId(sessionId string) ([]*types.Annotation, error)

	ImageGet(id string) (*types.Image, error)
	ImagePut(image *types.Image) error

	Close() error
}
