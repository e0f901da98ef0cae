package handlers

import (
	"net/http"
	"time"

	"github.com/feather-classroom/feather/feather/types"
)

// snapshotFor builds the full state of the session as seen by the client,
// with presence taken from the live channel.
func snapshotFor(s *types.Session, clientId string) (*types.Snapshot, error) {
	snapshot, err := core.SessionSnapshot(s, clientId)
	if err != nil {
		return nil, err
	}
	snapshot.Presence = hub.Presence(s.Id)
	return snapshot, nil
}

func GetState(rw http.ResponseWriter, req *http.Request) {
	defer observeHandler("GetState", time.Now())

	s, ok := loadSession(rw, req)
	if !ok {
		return
	}

	clientId := ClientId(rw, req)
	if teacherId, isTeacher := TeacherOf(req, s); isTeacher {
		clientId = teacherId
	}

	snapshot, err := snapshotFor(s, clientId)
	if err != nil {
		writeError(rw, req, err)
		return
	}
	writeJSON(rw, http.StatusOK, snapshot)
}
