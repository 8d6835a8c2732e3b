package bridge

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range Statuses() {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	for _, s := range []Status{"", "done", "PENDING"} {
		if s.Valid() {
			t.Errorf("%q should be invalid", s)
		}
	}
}

func TestStatus_Transitions(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:   {StatusInitiated, StatusCancelled},
		StatusInitiated: {StatusCompleted, StatusFailed, StatusCancelled},
		StatusCompleted: {},
		StatusFailed:    {},
		StatusCancelled: {},
	}

	for from, nexts := range allowed {
		permitted := make(map[Status]bool, len(nexts))
		for _, n := range nexts {
			permitted[n] = true
		}
		for _, to := range Statuses() {
			got := from.CanTransitionTo(to)
			if got != permitted[to] {
				t.Errorf("%s -> %s = %v, want %v", from, to, got, permitted[to])
			}
		}
	}
}

func TestStatus_TerminalStatesPermitNothing(t *testing.T) {
	for _, s := range Statuses() {
		if !s.Terminal() {
			continue
		}
		if s.Cancellable() {
			t.Errorf("terminal status %q must not be cancellable", s)
		}
		for _, to := range Statuses() {
			if s.CanTransitionTo(to) {
				t.Errorf("terminal status %q permits transition to %q", s, to)
			}
		}
	}
}

func TestNew_StartsPending(t *testing.T) {
	amount := decimal.NewFromInt(10)
	fee := decimal.RequireFromString("0.1")
	gas := decimal.RequireFromString("10000000000000000")

	tx := New("owner-1", "0xtoken", amount, 1, 137, "0xdest", fee, gas)

	if tx.ID == "" {
		t.Error("expected a generated id")
	}
	if tx.Status != StatusPending {
		t.Errorf("status = %q, want pending", tx.Status)
	}
	if tx.SubmissionRef != "" {
		t.Errorf("submission ref should start empty, got %q", tx.SubmissionRef)
	}
	if tx.CancelledAt != nil {
		t.Error("cancelledAt should start nil")
	}
	if !tx.CreatedAt.Equal(tx.UpdatedAt) {
		t.Error("createdAt and updatedAt should match on creation")
	}

	other := New("owner-1", "0xtoken", amount, 1, 137, "0xdest", fee, gas)
	if other.ID == tx.ID {
		t.Error("ids must be unique per transaction")
	}
}
