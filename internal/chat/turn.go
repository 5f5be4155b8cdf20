package chat

import (
	"context"

	"github.com/qmuntal/stateless"

	"github.com/comigor/gptchat/internal/logger"
)

// Turn states
type turnState string

const (
	stateIdle          turnState = "Idle"
	statePacing        turnState = "Pacing"
	stateAwaitingReply turnState = "AwaitingReply"
	statePersisting    turnState = "Persisting"
)

// Turn triggers
type turnTrigger string

const (
	triggerAsk       turnTrigger = "Ask"
	triggerPaced     turnTrigger = "Paced"
	triggerReplied   turnTrigger = "Replied"
	triggerPersisted turnTrigger = "Persisted"
	triggerFailed    turnTrigger = "Failed" // any failure returns to Idle with nothing changed
)

// newTurnMachine builds the state machine that tracks a single round trip.
//
//	Idle -> Pacing -> AwaitingReply -> Persisting -> Idle
//
// Every non-idle state may fall back to Idle on Failed.
func newTurnMachine(path string) *stateless.StateMachine {
	fsm := stateless.NewStateMachine(stateIdle)

	fsm.Configure(stateIdle).
		Permit(triggerAsk, statePacing)

	fsm.Configure(statePacing).
		Permit(triggerPaced, stateAwaitingReply).
		Permit(triggerFailed, stateIdle)

	fsm.Configure(stateAwaitingReply).
		Permit(triggerReplied, statePersisting).
		Permit(triggerFailed, stateIdle)

	fsm.Configure(statePersisting).
		Permit(triggerPersisted, stateIdle).
		Permit(triggerFailed, stateIdle)

	fsm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		logger.L.Debug("turn transition", "path", path, "from", t.Source, "to", t.Destination, "trigger", t.Trigger)
	})

	return fsm
}
