package feather

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather/types"
	"github.com/feather-classroom/feather/storage"
)

func (p *feather) QuestionPush(s *types.Session, teacherId string, conf types.QuestionConfig) (*types.Question, error) {
	defer observeAction("QuestionPush", time.Now())

	unlock := p.lock(s.Id)
	defer unlock()

	if err := p.reload(s); err != nil {
		return nil, err
	}
	if s.IsEnded() {
		return nil, ErrSessionEnded
	}
	if teacherId != s.TeacherId {
		return nil, ErrNotTeacher
	}

	q := &types.Question{SessionId: s.Id, Kind: conf.Kind, Prompt: conf.Prompt}
	switch conf.Kind {
	case "", types.QuestionBlank:
		q.Kind = types.QuestionBlank
	case types.QuestionTemplate:
		if !types.Templates[conf.Template] {
			return nil, errors.Wrapf(ErrInvalidQuestion, "unknown template %q", conf.Template)
		}
		q.Template = conf.Template
	case types.QuestionImage:
		img, err := p.storage.ImageGet(conf.ImageId)
		if storage.NotFound(err) || (err == nil && img.SessionId != s.Id) {
			return nil, errors.Wrapf(ErrInvalidQuestion, "image %q not found in session", conf.ImageId)
		}
		if err != nil {
			return nil, err
		}
		q.ImageId = img.Id
	default:
		return nil, errors.Wrapf(ErrInvalidQuestion, "unknown kind %q", conf.Kind)
	}

	questions, err := p.storage.QuestionFindBySessionId(s.Id)
	if err != nil {
		return nil, err
	}
	q.Index = 1
	if len(questions) > 0 {
		q.Index = questions[len(questions)-1].Index + 1
	}

	if err := p.start(s); err != nil {
		return nil, err
	}

	q.Id = p.generator.NewId()
	q.CreatedAt = time.Now()
	if err := p.storage.QuestionPut(q); err != nil {
		log.Println(err)
		return nil, err
	}

	s.CurrentQuestionId = q.Id
	if err := p.storage.SessionPut(s); err != nil {
		log.Println(err)
		return nil, err
	}

	log.WithFields(log.Fields{"session": s.Id, "question": q.Id}).Infof("Pushed %s question #%d", q.Kind, q.Index)
	pushed := *q
	p.event.Emit(event.QUESTION_PUSH, s.Id, &pushed)

	return q, nil
}

func (p *feather) QuestionList(s *types.Session) ([]*types.Question, error) {
	defer observeAction("QuestionList", time.Now())

	return p.storage.QuestionFindBySessionId(s.Id)
}

// question loads a question and checks it belongs to the session.
func (p *feather) question(s *types.Session, questionId string) (*types.Question, error) {
	q, err := p.storage.QuestionGet(questionId)
	if storage.NotFound(err) || (err == nil && q.SessionId != s.Id) {
		return nil, ErrQuestionNotFound
	}
	return q, err
}
