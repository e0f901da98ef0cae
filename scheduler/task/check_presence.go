package task

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/feather-classroom/feather/config"
	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/feather/types"
)

type checkPresence struct {
	feather feather.FeatherApi
}

func (t *checkPresence) Name() string {
	return "CheckPresence"
}

// Run disconnects the clients that stopped sending heartbeats.
func (t *checkPresence) Run(ctx context.Context, session *types.Session) error {
	participants, err := t.feather.ParticipantList(session)
	if err != nil {
		return err
	}

	deadline := time.Now().Add(-config.PresenceTimeout)
	for _, p := range participants {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !p.Connected || p.LastSeen.After(deadline) {
			continue
		}
		log.WithFields(log.Fields{"session": session.Id, "client": p.ClientId}).Infof("No heartbeat since %s", p.LastSeen.Format(time.RFC3339))
		if err := t.feather.ClientDisconnect(session, p.ClientId); err != nil {
			log.Println(err)
		}
	}
	return nil
}

func NewCheckPresence(f feather.FeatherApi) *checkPresence {
	return &checkPresence{feather: f}
}
