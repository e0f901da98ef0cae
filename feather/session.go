package feather

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/config"
	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather/types"
	"github.com/feather-classroom/feather/storage"
)

const maxCodeAttempts = 10

func (p *feather) SessionNew(ctx context.Context, conf types.SessionConfig) (*types.Session, error) {
	defer observeAction("SessionNew", time.Now())

	if conf.TeacherId == "" {
		return nil, ErrInvalidParticipant
	}

	code, err := p.newCode(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	s := &types.Session{}
	s.Id = p.generator.NewId()
	s.Code = code
	s.Title = conf.Title
	s.TeacherId = conf.TeacherId
	s.Status = types.SessionCreated
	s.CreatedAt = now
	s.ExpiresAt = now.Add(config.GetDuration(conf.Duration))

	log.Printf("NewSession id=[%s] code=[%s]\n", s.Id, s.Code)
	if err := p.storage.SessionPut(s); err != nil {
		log.Println(err)
		return nil, err
	}

	teacher := &types.Participant{
		SessionId: s.Id,
		ClientId:  conf.TeacherId,
		Role:      types.RoleTeacher,
		JoinedAt:  now,
		LastSeen:  now,
	}
	if err := p.storage.ParticipantPut(teacher); err != nil {
		log.Println(err)
		return nil, err
	}

	p.codes.Add(s.Code, s.Id)
	p.setGauges()
	p.event.Emit(event.SESSION_NEW, s.Id)

	return s, nil
}

func (p *feather) newCode(ctx context.Context) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := p.generator.NewCode()
		_, err := p.storage.SessionFindByCode(code)
		if storage.NotFound(err) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not find a free room code after %d attempts", maxCodeAttempts)
}

func (p *feather) SessionGet(sessionId string) (*types.Session, error) {
	defer observeAction("SessionGet", time.Now())

	s, err := p.storage.SessionGet(sessionId)
	if err != nil {
		if !storage.NotFound(err) {
			log.Println(err)
		}
		return nil, err
	}

	return s, nil
}

func (p *feather) SessionFindByCode(code string) (*types.Session, error) {
	defer observeAction("SessionFindByCode", time.Now())

	code = strings.ToUpper(strings.TrimSpace(code))
	if sessionId, found := p.codes.Get(code); found {
		s, err := p.storage.SessionGet(sessionId.(string))
		if err == nil {
			return s, nil
		}
		p.codes.Remove(code)
		if !storage.NotFound(err) {
			return nil, err
		}
	}

	s, err := p.storage.SessionFindByCode(code)
	if err != nil {
		return nil, err
	}
	p.codes.Add(code, s.Id)
	return s, nil
}

func (p *feather) SessionList() ([]*types.Session, error) {
	defer observeAction("SessionList", time.Now())

	return p.storage.SessionGetAll()
}

// reload refreshes s with the stored state. Callers hold the session lock.
func (p *feather) reload(s *types.Session) error {
	current, err := p.storage.SessionGet(s.Id)
	if err != nil {
		return err
	}
	*s = *current
	return nil
}

func (p *feather) SessionStart(s *types.Session) error {
	defer observeAction("SessionStart", time.Now())

	unlock := p.lock(s.Id)
	defer unlock()

	if err := p.reload(s); err != nil {
		return err
	}
	return p.start(s)
}

// start moves a created session to active. Callers hold the session lock.
func (p *feather) start(s *types.Session) error {
	switch s.Status {
	case types.SessionEnded:
		return ErrSessionEnded
	case types.SessionActive:
		return nil
	}

	now := time.Now()
	s.Status = types.SessionActive
	s.StartedAt = &now
	if err := p.storage.SessionPut(s); err != nil {
		log.Println(err)
		return err
	}

	log.Printf("Started session [%s]\n", s.Id)
	started := *s
	p.event.Emit(event.SESSION_START, s.Id, &started)
	return nil
}

func (p *feather) SessionEnd(s *types.Session) error {
	defer observeAction("SessionEnd", time.Now())

	unlock := p.lock(s.Id)
	defer unlock()

	if err := p.reload(s); err != nil {
		return err
	}
	if s.IsEnded() {
		return nil
	}

	now := time.Now()
	s.Status = types.SessionEnded
	s.EndedAt = &now
	if err := p.storage.SessionPut(s); err != nil {
		log.Println(err)
		return err
	}

	log.Printf("Ended session [%s]\n", s.Id)
	ended := *s
	p.event.Emit(event.SESSION_END, s.Id, &ended)
	return nil
}

func (p *feather) SessionDelete(s *types.Session) error {
	defer observeAction("SessionDelete", time.Now())

	unlock := p.lock(s.Id)
	defer unlock()

	if err := p.reload(s); err != nil {
		return err
	}

	log.Printf("Starting clean up of session [%s]\n", s.Id)
	if err := p.storage.SessionDelete(s.Id); err != nil {
		log.Println(err)
		return err
	}
	p.codes.Remove(strings.ToUpper(s.Code))

	if !s.IsEnded() {
		now := time.Now()
		s.Status = types.SessionEnded
		s.EndedAt = &now
		ended := *s
		p.event.Emit(event.SESSION_END, s.Id, &ended)
	}

	log.Printf("Cleaned up session [%s]\n", s.Id)
	p.setGauges()
	p.locks.Delete(s.Id)
	return nil
}
