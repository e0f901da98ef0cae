package task

import (
	"context"

	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/feather/types"
)

type collectStats struct {
	event   event.EventApi
	feather feather.FeatherApi
}

func (t *collectStats) Name() string {
	return "CollectStats"
}

func (t *collectStats) Run(ctx context.Context, session *types.Session) error {
	if !session.IsActive() {
		return nil
	}
	stats, err := t.feather.SessionStats(session)
	if err != nil {
		return err
	}

	t.event.Emit(event.SESSION_STATS, session.Id, *stats)
	return nil
}

func NewCollectStats(e event.EventApi, f feather.FeatherApi) *collectStats {
	return &collectStats{event: e, feather: f}
}
