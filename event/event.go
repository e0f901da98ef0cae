package event

type EventType string

func (e EventType) String() string {
	return string(e)
}

var (
	SESSION_NEW       = EventType("session new")
	SESSION_START     = EventType("session start")
	SESSION_END       = EventType("session end")
	SESSION_STATS     = EventType("session stats")
	PARTICIPANT_JOIN  = EventType("participant join")
	PARTICIPANT_LEAVE = EventType("participant leave")
	PRESENCE_ENTER    = EventType("presence enter")
	PRESENCE_LEAVE    = EventType("presence leave")
	QUESTION_PUSH     = EventType("question push")
	WORK_UPDATE       = EventType("work update")
	ANNOTATION_UPDATE = EventType("annotation update")
)

type Handler func(sessionId string, args ...interface{})
type AnyHandler func(eventType EventType, sessionId string, args ...interface{})

type EventApi interface {
	Emit(name EventType, sessionId string, args ...interface{})
	On(name EventType, handler Handler)
	OnAny(handler AnyHandler)
}
