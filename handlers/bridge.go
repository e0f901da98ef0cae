package handlers

import (
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather/types"
)

type presencePayload struct {
	ClientId string     `json:"client_id"`
	Role     types.Role `json:"role"`
}

// BridgeEvents forwards core events to the realtime channels.
func BridgeEvents(ev event.EventApi, h broadcast.HubApi) {
	ev.OnAny(func(eventType event.EventType, sessionId string, args ...interface{}) {
		m, err := toMessage(eventType, sessionId, args...)
		if err != nil {
			log.Printf("Could not relay %s for session %s. Got: %v\n", eventType, sessionId, err)
			return
		}
		if m != nil {
			h.Deliver(m)
		}
	})
}

// toMessage maps an event to its websocket frame. Events with no frame
// return nil.
func toMessage(eventType event.EventType, sessionId string, args ...interface{}) (*broadcast.Message, error) {
	arg := func(i int) interface{} {
		if i < len(args) {
			return args[i]
		}
		return nil
	}

	switch eventType {
	case event.SESSION_START:
		return broadcast.NewMessage(broadcast.SessionStarted, sessionId, arg(0))
	case event.SESSION_END:
		return broadcast.NewMessage(broadcast.SessionEnded, sessionId, arg(0))
	case event.SESSION_STATS:
		return broadcast.NewMessage(broadcast.SessionStats, sessionId, arg(0))
	case event.PARTICIPANT_JOIN:
		m, err := broadcast.NewMessage(broadcast.ParticipantJoin, sessionId, arg(0))
		if p, ok := arg(0).(*types.Participant); ok && err == nil {
			m.ClientId = p.ClientId
		}
		return m, err
	case event.PARTICIPANT_LEAVE:
		m, err := broadcast.NewMessage(broadcast.ParticipantLeave, sessionId, nil)
		if clientId, ok := arg(0).(string); ok && err == nil {
			m.ClientId = clientId
		}
		return m, err
	case event.PRESENCE_ENTER, event.PRESENCE_LEAVE:
		messageType := broadcast.PresenceEnter
		if eventType == event.PRESENCE_LEAVE {
			messageType = broadcast.PresenceLeave
		}
		clientId, _ := arg(0).(string)
		role, _ := arg(1).(types.Role)
		m, err := broadcast.NewMessage(messageType, sessionId, presencePayload{ClientId: clientId, Role: role})
		if err == nil {
			m.ClientId = clientId
		}
		return m, err
	case event.QUESTION_PUSH:
		m, err := broadcast.NewMessage(broadcast.Question, sessionId, arg(0))
		if q, ok := arg(0).(*types.Question); ok && err == nil {
			m.QuestionId = q.Id
		}
		return m, err
	case event.WORK_UPDATE:
		m, err := broadcast.NewMessage(broadcast.StudentLines, sessionId, arg(0))
		if w, ok := arg(0).(*types.StudentWork); ok && err == nil {
			m.QuestionId = w.QuestionId
			m.StudentId = w.StudentId
			m.ClientId = w.StudentId
		}
		return m, err
	case event.ANNOTATION_UPDATE:
		m, err := broadcast.NewMessage(broadcast.TeacherAnnotation, sessionId, arg(0))
		if a, ok := arg(0).(*types.Annotation); ok && err == nil {
			m.QuestionId = a.QuestionId
			m.StudentId = a.StudentId
			m.ClientId = a.TeacherId
		}
		return m, err
	}
	return nil, nil
}
