package feather

import (
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather/types"
	"github.com/feather-classroom/feather/storage"
)

func workKey(questionId, studentId string) string {
	return "work/" + questionId + "/" + studentId
}

// writable checks that a student may draw on a question right now.
func (p *feather) writable(s *types.Session, questionId, studentId string) error {
	current, err := p.storage.SessionGet(s.Id)
	if err != nil {
		return err
	}
	switch current.Status {
	case types.SessionEnded:
		return ErrSessionEnded
	case types.SessionCreated:
		return ErrSessionNotStarted
	}

	if _, err := p.question(s, questionId); err != nil {
		return err
	}

	participant, err := p.ParticipantGet(s, studentId)
	if err != nil {
		return err
	}
	if participant.Role != types.RoleStudent {
		return ErrNotStudent
	}
	return nil
}

func (p *feather) WorkPut(s *types.Session, questionId, studentId string, strokes types.Strokes) (*types.StudentWork, error) {
	defer observeAction("WorkPut", time.Now())

	if err := strokes.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidStrokes, err.Error())
	}
	if err := p.writable(s, questionId, studentId); err != nil {
		return nil, err
	}

	unlock := p.lock(workKey(questionId, studentId))
	defer unlock()

	if strokes == nil {
		strokes = types.Strokes{}
	}
	return p.putWork(s, questionId, studentId, strokes)
}

func (p *feather) WorkAppendStroke(s *types.Session, questionId, studentId string, stroke types.Stroke) (*types.StudentWork, error) {
	defer observeAction("WorkAppendStroke", time.Now())

	if err := stroke.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidStrokes, err.Error())
	}
	if err := p.writable(s, questionId, studentId); err != nil {
		return nil, err
	}

	unlock := p.lock(workKey(questionId, studentId))
	defer unlock()

	work, err := p.storage.WorkGet(questionId, studentId)
	if storage.NotFound(err) {
		work = &types.StudentWork{SessionId: s.Id, QuestionId: questionId, StudentId: studentId, Strokes: types.Strokes{}}
	} else if err != nil {
		return nil, err
	}

	// replays of a stroke the server already holds are a no-op
	if work.Strokes.Contains(stroke.Id) {
		return work, nil
	}
	if len(work.Strokes) >= types.MaxStrokes {
		return nil, errors.Wrapf(ErrInvalidStrokes, "at most %d strokes allowed", types.MaxStrokes)
	}
	if stroke.CreatedAt.IsZero() {
		stroke.CreatedAt = time.Now()
	}

	return p.putWork(s, questionId, studentId, append(work.Strokes, stroke))
}

func (p *feather) WorkClear(s *types.Session, questionId, studentId string) (*types.StudentWork, error) {
	defer observeAction("WorkClear", time.Now())

	if err := p.writable(s, questionId, studentId); err != nil {
		return nil, err
	}

	unlock := p.lock(workKey(questionId, studentId))
	defer unlock()

	return p.putWork(s, questionId, studentId, types.Strokes{})
}

// putWork stores the strokes and announces them. Callers hold the work lock.
func (p *feather) putWork(s *types.Session, questionId, studentId string, strokes types.Strokes) (*types.StudentWork, error) {
	work := &types.StudentWork{
		SessionId:  s.Id,
		QuestionId: questionId,
		StudentId:  studentId,
		Strokes:    strokes,
		UpdatedAt:  time.Now(),
	}
	if err := p.storage.WorkPut(work); err != nil {
		log.Println(err)
		return nil, err
	}

	updated := *work
	p.event.Emit(event.WORK_UPDATE, s.Id, &updated)
	return work, nil
}

func (p *feather) WorkGet(s *types.Session, questionId, studentId string) (*types.StudentWork, error) {
	defer observeAction("WorkGet", time.Now())

	if _, err := p.question(s, questionId); err != nil {
		return nil, err
	}

	work, err := p.storage.WorkGet(questionId, studentId)
	if storage.NotFound(err) {
		return &types.StudentWork{SessionId: s.Id, QuestionId: questionId, StudentId: studentId, Strokes: types.Strokes{}}, nil
	}
	return work, err
}

func (p *feather) WorkList(s *types.Session, questionId string) ([]*types.StudentWork, error) {
	defer observeAction("WorkList", time.Now())

	if _, err := p.question(s, questionId); err != nil {
		return nil, err
	}
	return p.storage.WorkFindByQuestionId(questionId)
}
