package service

import (
	"time"

	"github.com/tony-c3a/tony-mission-control/internal/model"
	"github.com/tony-c3a/tony-mission-control/internal/parser"
)

const (
	activeWindow = 10 * time.Minute
	idleWindow   = 60 * time.Minute
)

type StatusService struct {
	src *parser.Source
}

func NewStatusService(src *parser.Source) *StatusService { return &StatusService{src: src} }

func (s *StatusService) Current(now time.Time) model.AgentStatus {
	return agentStatus(s.src.TrackerState(), now)
}

// agentStatus derives the state from how long ago the tracker last pinged.
// A ping that can't be parsed counts as long ago.
func agentStatus(st *model.TimeTrackerState, now time.Time) model.AgentStatus {
	if st == nil {
		return model.AgentStatus{State: model.AgentSleeping}
	}
	status := model.AgentStatus{State: model.AgentSleeping}

	if ping, err := time.Parse(time.RFC3339Nano, st.LastPing); err == nil {
		switch since := now.Sub(ping); {
		case since < activeWindow && st.FocusMode.Active:
			status.State = model.AgentBusy
		case since < activeWindow:
			status.State = model.AgentActive
		case since < idleWindow:
			status.State = model.AgentIdle
		}
	}
	if st.LastPing != "" {
		last := st.LastPing
		status.LastAction = &last
	}
	if st.CurrentEntry != nil {
		status.SessionCount = 1
		if st.CurrentEntry.Activity != "" {
			activity := st.CurrentEntry.Activity
			status.CurrentActivity = &activity
		}
	}
	return status
}
