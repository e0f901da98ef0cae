package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/config"
	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/feather/types"
	"github.com/feather-classroom/feather/storage"
)

type Task interface {
	Name() string
	Run(ctx context.Context, session *types.Session) error
}

type SchedulerApi interface {
	Start() error
	Stop()
}

type scheduledSession struct {
	session *types.Session
	ticker  *time.Ticker
	cancel  context.CancelFunc
}

type scheduler struct {
	mu                sync.Mutex
	scheduledSessions map[string]*scheduledSession
	tasks             map[string]Task
	started           bool

	storage storage.StorageApi
	event   event.EventApi
	feather feather.FeatherApi
}

func NewScheduler(tasks []Task, s storage.StorageApi, e event.EventApi, f feather.FeatherApi) (*scheduler, error) {
	sch := &scheduler{storage: s, event: e, feather: f}

	sch.tasks = make(map[string]Task)
	sch.scheduledSessions = make(map[string]*scheduledSession)

	for _, task := range tasks {
		if err := sch.addTask(task); err != nil {
			return nil, err
		}
	}

	return sch, nil
}

func (s *scheduler) processSession(ctx context.Context, ss *scheduledSession) {
	defer s.unscheduleSession(ss.session.Id)

	expired := time.NewTimer(time.Until(ss.session.ExpiresAt))
	defer expired.Stop()

	for {
		select {
		case <-expired.C:
			// Session has expired. Need to end it.
			log.Printf("Session %s has expired\n", ss.session.Id)
			if err := s.feather.SessionEnd(ss.session); err != nil && !storage.NotFound(err) {
				log.Printf("Error ending session %s. Got: %v\n", ss.session.Id, err)
			}
			return
		case <-ss.ticker.C:
			session, err := s.storage.SessionGet(ss.session.Id)
			if err != nil {
				if storage.NotFound(err) {
					log.Printf("Session %s doesn't exist in storage.\n", ss.session.Id)
					return
				}
				log.Printf("Error retrieving session %s from storage. Got: %v\n", ss.session.Id, err)
				continue
			}
			if session.IsEnded() {
				return
			}
			for _, task := range s.tasks {
				if err := task.Run(ctx, session); err != nil {
					log.Printf("Error running task %s on session %s. Got: %v\n", task.Name(), session.Id, err)
				}
			}
		case <-ctx.Done():
			log.Printf("Processing tasks for session %s has been canceled.\n", ss.session.Id)
			return
		}
	}
}

func (s *scheduler) addTask(task Task) error {
	if _, found := s.tasks[task.Name()]; found {
		return fmt.Errorf("Task [%s] was already added", task.Name())
	}
	s.tasks[task.Name()] = task

	return nil
}

func (s *scheduler) unscheduleSession(sessionId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ss, found := s.scheduledSessions[sessionId]
	if !found {
		return
	}

	ss.cancel()
	ss.ticker.Stop()
	delete(s.scheduledSessions, sessionId)
	log.Printf("Unscheduled session %s\n", sessionId)
}

func (s *scheduler) scheduleSession(session *types.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.scheduledSessions[session.Id]; found {
		log.Printf("Session %s is already scheduled. Ignoring.\n", session.Id)
		return
	}
	ss := &scheduledSession{session: session}
	s.scheduledSessions[session.Id] = ss
	ctx, cancel := context.WithCancel(context.Background())
	ss.cancel = cancel
	ss.ticker = time.NewTicker(config.SchedulerTick)
	go s.processSession(ctx, ss)
	log.Printf("Scheduled session %s\n", session.Id)
}

func (s *scheduler) isScheduled(sessionId string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, found := s.scheduledSessions[sessionId]
	return found
}

func (s *scheduler) Stop() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.scheduledSessions))
	for id := range s.scheduledSessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.unscheduleSession(id)
	}
	s.started = false
}

func (s *scheduler) Start() error {
	sessions, err := s.storage.SessionGetAll()
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if session.IsEnded() {
			continue
		}
		s.scheduleSession(session)
	}
	s.event.On(event.SESSION_NEW, func(sessionId string, args ...interface{}) {
		log.Printf("EVENT: Session New %s\n", sessionId)
		session, err := s.storage.SessionGet(sessionId)
		if err != nil {
			log.Printf("Session [%s] was not found in storage. Got %s\n", sessionId, err)
			return
		}
		s.scheduleSession(session)
	})
	s.event.On(event.SESSION_END, func(sessionId string, args ...interface{}) {
		log.Printf("EVENT: Session End %s\n", sessionId)
		s.unscheduleSession(sessionId)
	})
	s.started = true

	return nil
}
