package domain

import "testing"

func TestStatusLifecycleEdges(t *testing.T) {
	t.Parallel()
	allowed := []struct{ from, to Status }{
		{StatusCreated, StatusConnecting},
		{StatusConnecting, StatusActive},
		{StatusConnecting, StatusFailed},
		{StatusActive, StatusEnding},
		{StatusActive, StatusFailed},
		{StatusEnding, StatusClosed},
	}
	for _, edge := range allowed {
		if !edge.from.CanTransition(edge.to) {
			t.Errorf("%v -> %v should be allowed", edge.from, edge.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusCreated, StatusActive},
		{StatusClosed, StatusConnecting},
		{StatusClosed, StatusActive},
		{StatusFailed, StatusConnecting},
		{StatusEnding, StatusActive},
		{StatusActive, StatusConnecting},
	}
	for _, edge := range denied {
		if edge.from.CanTransition(edge.to) {
			t.Errorf("%v -> %v must be refused", edge.from, edge.to)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()
	for _, s := range []Status{StatusCreated, StatusConnecting, StatusActive, StatusEnding} {
		if s.Terminal() || !s.Live() {
			t.Errorf("%v should be live", s)
		}
	}
	for _, s := range []Status{StatusClosed, StatusFailed} {
		if !s.Terminal() || s.Live() {
			t.Errorf("%v should be terminal", s)
		}
	}
}

func TestIdentityHelpers(t *testing.T) {
	t.Parallel()
	if id := NewUserIdentity(); len(id) != len("user-")+8 {
		t.Errorf("user identity %q has wrong shape", id)
	}
	if id := NewAnonIdentity(); len(id) != len("anon-")+4 {
		t.Errorf("anon identity %q has wrong shape", id)
	}
	if id := AgentIdentity("room-a1b2c3d4"); id != "agent-room-a1b2c3d4" {
		t.Errorf("agent identity = %q", id)
	}
	if NewUserIdentity() == NewUserIdentity() {
		t.Error("user identities should not repeat")
	}
}
