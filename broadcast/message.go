package broadcast

import (
	"encoding/json"
	"time"
)

// Frames sent by clients.
const (
	StudentLines      = "student-lines"
	StrokeAdd         = "stroke"
	ClearLines        = "clear-lines"
	TeacherAnnotation = "teacher-annotation"
	PushQuestion      = "push-question"
	RequestFullState  = "request-full-state"
	Heartbeat         = "heartbeat"
)

// Frames sent by the server. StudentLines and TeacherAnnotation are relayed
// back with the stored state.
const (
	SyncFullState    = "sync-full-state"
	Question         = "question"
	ParticipantJoin  = "participant-join"
	ParticipantLeave = "participant-leave"
	PresenceEnter    = "presence-enter"
	PresenceLeave    = "presence-leave"
	SessionStarted   = "session-started"
	SessionEnded     = "session-ended"
	SessionStats     = "session-stats"
	Error            = "error"
)

type Message struct {
	Type       string          `json:"type"`
	SessionId  string          `json:"session_id,omitempty"`
	ClientId   string          `json:"client_id,omitempty"`
	QuestionId string          `json:"question_id,omitempty"`
	StudentId  string          `json:"student_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

func NewMessage(messageType, sessionId string, data interface{}) (*Message, error) {
	m := &Message{Type: messageType, SessionId: sessionId, Timestamp: time.Now()}
	if data == nil {
		return m, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	m.Data = raw
	return m, nil
}

func NewError(sessionId string, err error) *Message {
	m, _ := NewMessage(Error, sessionId, map[string]string{"error": err.Error()})
	return m
}

// Decode unmarshals the payload into v.
func (m *Message) Decode(v interface{}) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}
