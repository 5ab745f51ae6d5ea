package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/studiobot/core/logger"
	"github.com/m3rciful/studiobot/core/telegram/state"
)

// Machine owns the per-user conversation state.
// Idle users hold no entry in the underlying store.
type Machine struct {
	sessions state.Store[State]
}

// NewMachine builds a Machine over an in-memory store.
func NewMachine() *Machine {
	return &Machine{sessions: state.NewMemory[State]()}
}

// Current returns the user's state, Idle when none is stored.
func (m *Machine) Current(userID int64) State {
	if st, ok := m.sessions.Get(userID); ok {
		return st
	}
	return Idle{}
}

// Active reports whether the user is in the middle of a form.
func (m *Machine) Active(userID int64) bool {
	return !IsIdle(m.Current(userID))
}

// Begin starts a form, replacing whatever the user had in progress.
func (m *Machine) Begin(ctx context.Context, userID int64, s State) Prompt {
	first, prompt := Start(s)
	prev := m.Current(userID)
	m.set(userID, first)
	logger.LogEvent(ctx, logger.FSM, slog.LevelDebug, "fsm.begin",
		slog.Int64("user_id", userID),
		slog.String("state", prev.Name()),
		slog.String("next_state", first.Name()),
	)
	return prompt
}

// Reset abandons any form in progress and reports whether one existed.
func (m *Machine) Reset(ctx context.Context, userID int64) bool {
	prev := m.Current(userID)
	removed := m.sessions.Delete(userID)
	if removed {
		logger.LogEvent(ctx, logger.FSM, slog.LevelDebug, "fsm.reset",
			slog.Int64("user_id", userID),
			slog.String("state", prev.Name()),
			slog.String("next_state", Idle{}.Name()),
		)
	}
	return removed
}

// Feed applies one free-text reply and stores the resulting state before
// returning the effects, so a failing effect never leaves the form half open.
func (m *Machine) Feed(ctx context.Context, userID int64, text string) ([]Effect, bool) {
	prev := m.Current(userID)
	next, effects, consumed := Transition(prev, text)
	if !consumed {
		if !IsIdle(prev) {
			logger.LogEvent(ctx, logger.FSM, slog.LevelWarn, "fsm.unexpected_state",
				slog.Int64("user_id", userID),
				slog.String("state", fmt.Sprintf("%T", prev)),
				slog.String("next_state", Idle{}.Name()),
			)
			m.set(userID, Idle{})
		}
		return nil, false
	}
	m.set(userID, next)
	logger.LogEvent(ctx, logger.FSM, slog.LevelDebug, "fsm.transition",
		slog.Int64("user_id", userID),
		slog.String("state", prev.Name()),
		slog.String("next_state", next.Name()),
		slog.Int("count", len(effects)),
	)
	return effects, true
}

// Sessions reports how many users are mid-form.
func (m *Machine) Sessions() int {
	return m.sessions.Len()
}

func (m *Machine) set(userID int64, s State) {
	if IsIdle(s) {
		m.sessions.Delete(userID)
		return
	}
	m.sessions.Put(userID, s)
}
