package feather

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather/types"
	"github.com/feather-classroom/feather/storage"
)

func annotationKey(questionId, studentId string) string {
	return "annotation/" + questionId + "/" + studentId
}

func (p *feather) AnnotationPut(s *types.Session, teacherId, questionId, studentId string, strokes types.Strokes) (*types.Annotation, error) {
	defer observeAction("AnnotationPut", time.Now())

	if err := strokes.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidStrokes, err.Error())
	}

	current, err := p.storage.SessionGet(s.Id)
	if err != nil {
		return nil, err
	}
	if current.IsEnded() {
		return nil, ErrSessionEnded
	}
	if teacherId != current.TeacherId {
		return nil, ErrNotTeacher
	}
	if _, err := p.question(s, questionId); err != nil {
		return nil, err
	}
	student, err := p.ParticipantGet(s, studentId)
	if err != nil {
		return nil, err
	}
	if student.Role != types.RoleStudent {
		return nil, ErrNotStudent
	}

	unlock := p.lock(annotationKey(questionId, studentId))
	defer unlock()

	if strokes == nil {
		strokes = types.Strokes{}
	}
	a := &types.Annotation{
		SessionId:  s.Id,
		QuestionId: questionId,
		StudentId:  studentId,
		TeacherId:  teacherId,
		Strokes:    strokes,
		UpdatedAt:  time.Now(),
	}
	if err := p.storage.AnnotationPut(a); err != nil {
		log.Println(err)
		return nil, err
	}

	updated := *a
	p.event.Emit(event.ANNOTATION_UPDATE, s.Id, &updated)
	return a, nil
}

func (p *feather) AnnotationGet(s *types.Session, questionId, studentId string) (*types.Annotation, error) {
	defer observeAction("AnnotationGet", time.Now())

	if _, err := p.question(s, questionId); err != nil {
		return nil, err
	}

	a, err := p.storage.AnnotationGet(questionId, studentId)
	if storage.NotFound(err) {
		return &types.Annotation{SessionId: s.Id, QuestionId: questionId, StudentId: studentId, TeacherId: s.TeacherId, Strokes: types.Strokes{}}, nil
	}
	return a, err
}
