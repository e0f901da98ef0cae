package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/broadcast"
	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/feather/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
			return true
		}
		return allowedOrigin(origin)
	},
}

type strokesPayload struct {
	Strokes types.Strokes `json:"strokes"`
}

// WSH attaches a participant to the realtime channel of the session. The
// client has to join the session first.
func WSH(rw http.ResponseWriter, req *http.Request) {
	s, ok := loadSession(rw, req)
	if !ok {
		return
	}

	clientId := ClientId(rw, req)
	teacherId, isTeacher := TeacherOf(req, s)
	if isTeacher {
		clientId = teacherId
	}
	participant, err := core.ParticipantGet(s, clientId)
	if err != nil {
		writeError(rw, req, err)
		return
	}
	if participant.Role == types.RoleTeacher && !isTeacher {
		writeError(rw, req, feather.ErrNotTeacher)
		return
	}

	ws, err := upgrader.Upgrade(rw, req, nil)
	if err != nil {
		log.Println(err)
		return
	}

	c := broadcast.NewConn(ws, s.Id, clientId, participant.Role)
	go c.WritePump()

	if hub.Register(c) {
		err = core.ClientConnect(s, clientId)
	} else {
		err = core.ClientHeartbeat(s, clientId)
	}
	if err != nil {
		log.Println(err)
	}
	if err := sendState(s, c); err != nil {
		c.Send(broadcast.NewError(s.Id, err))
	}

	c.ReadPump(func(m *broadcast.Message) {
		handleMessage(s, c, m)
	})

	if hub.Unregister(c) {
		if err := core.ClientDisconnect(s, clientId); err != nil && err != feather.ErrParticipantNotFound {
			log.Println(err)
		}
	}
}

func sendState(s *types.Session, c *broadcast.Conn) error {
	snapshot, err := snapshotFor(s, c.ClientId)
	if err != nil {
		return err
	}
	m, err := broadcast.NewMessage(broadcast.SyncFullState, s.Id, snapshot)
	if err != nil {
		return err
	}
	m.ClientId = c.ClientId
	c.Send(m)
	return nil
}

// handleMessage applies a client frame. Results reach the other clients
// through the events the core emits; only errors are answered directly.
func handleMessage(s *types.Session, c *broadcast.Conn, m *broadcast.Message) {
	var err error
	switch m.Type {
	case broadcast.StudentLines:
		p := strokesPayload{}
		if err = m.Decode(&p); err == nil {
			_, err = core.WorkPut(s, m.QuestionId, c.ClientId, p.Strokes)
		}
	case broadcast.StrokeAdd:
		stroke := types.Stroke{}
		if err = m.Decode(&stroke); err == nil {
			_, err = core.WorkAppendStroke(s, m.QuestionId, c.ClientId, stroke)
		}
	case broadcast.ClearLines:
		_, err = core.WorkClear(s, m.QuestionId, c.ClientId)
	case broadcast.TeacherAnnotation:
		if c.Role != types.RoleTeacher {
			err = feather.ErrNotTeacher
			break
		}
		p := strokesPayload{}
		if err = m.Decode(&p); err == nil {
			_, err = core.AnnotationPut(s, c.ClientId, m.QuestionId, m.StudentId, p.Strokes)
		}
	case broadcast.PushQuestion:
		if c.Role != types.RoleTeacher {
			err = feather.ErrNotTeacher
			break
		}
		conf := types.QuestionConfig{}
		if err = m.Decode(&conf); err == nil {
			_, err = core.QuestionPush(s, c.ClientId, conf)
		}
	case broadcast.RequestFullState:
		err = sendState(s, c)
	case broadcast.Heartbeat:
		err = core.ClientHeartbeat(s, c.ClientId)
	default:
		err = fmt.Errorf("unknown message type %q", m.Type)
	}

	if err != nil {
		log.WithFields(log.Fields{"session": s.Id, "client": c.ClientId, "type": m.Type}).Debugf("Rejected message: %v", err)
		c.Send(broadcast.NewError(s.Id, err))
	}
}
