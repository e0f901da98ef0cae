package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/feather-classroom/feather/event"
	"github.com/feather-classroom/feather/feather"
	"github.com/feather-classroom/feather/feather/types"
)

func TestCollectStats_Name(t *testing.T) {
	e := &event.Mock{}
	f := &feather.Mock{}

	task := NewCollectStats(e, f)

	assert.Equal(t, "CollectStats", task.Name())
	e.M.AssertExpectations(t)
	f.AssertExpectations(t)
}

func TestCollectStats_Run(t *testing.T) {
	e := &event.Mock{}
	f := &feather.Mock{}

	s := &types.Session{Id: "aaaabbbbcccc", Status: types.SessionActive}
	stats := &types.SessionStats{QuestionId: "q1", Students: 3, ConnectedStudents: 2, Submitted: 1}

	f.On("SessionStats", s).Return(stats, nil)
	e.M.On("Emit", event.SESSION_STATS, "aaaabbbbcccc", []interface{}{*stats}).Return()

	task := NewCollectStats(e, f)
	err := task.Run(context.Background(), s)
	assert.Nil(t, err)

	e.M.AssertExpectations(t)
	f.AssertExpectations(t)
}

func TestCollectStats_RunSkipsInactiveSessions(t *testing.T) {
	e := &event.Mock{}
	f := &feather.Mock{}

	task := NewCollectStats(e, f)
	assert.Nil(t, task.Run(context.Background(), &types.Session{Id: "aaaabbbbcccc", Status: types.SessionCreated}))

	e.M.AssertExpectations(t)
	f.AssertExpectations(t)
}
