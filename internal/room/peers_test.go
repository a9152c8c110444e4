package room

import (
	"errors"
	"testing"

	"github.com/workspace/room-relay/internal/roomerr"
)

func TestPeerRegistryAdmitSinglePeerInvariants(t *testing.T) {
	reg := newPeerRegistry()

	if _, err := reg.admit(RoleBrowser, "", nil); err != nil {
		t.Fatalf("first browser admit: %v", err)
	}
	if _, err := reg.admit(RoleBrowser, "", nil); !errors.Is(err, roomerr.ErrConflict) {
		t.Fatalf("second browser admit = %v, want ErrConflict", err)
	}

	if _, err := reg.admit(RoleLocal, "", nil); err != nil {
		t.Fatalf("first local admit: %v", err)
	}
	if _, err := reg.admit(RoleLocal, "", nil); !errors.Is(err, roomerr.ErrConflict) {
		t.Fatalf("second local admit = %v, want ErrConflict", err)
	}

	if _, err := reg.admit(RoleAgent, "agent-1", nil); err != nil {
		t.Fatalf("first agent admit: %v", err)
	}
	if _, err := reg.admit(RoleAgent, "agent-1", nil); !errors.Is(err, roomerr.ErrConflict) {
		t.Fatalf("duplicate clientId admit = %v, want ErrConflict", err)
	}
	if _, err := reg.admit(RoleAgent, "agent-2", nil); err != nil {
		t.Fatalf("distinct clientId admit: %v", err)
	}
}

func TestPeerRegistryRemoveFreesSlot(t *testing.T) {
	reg := newPeerRegistry()

	browser, err := reg.admit(RoleBrowser, "", nil)
	if err != nil {
		t.Fatalf("admit browser: %v", err)
	}
	reg.remove(browser)

	if _, err := reg.admit(RoleBrowser, "", nil); err != nil {
		t.Fatalf("re-admit after remove: %v", err)
	}
}

func TestPeerRegistryIsEmpty(t *testing.T) {
	reg := newPeerRegistry()
	if !reg.isEmpty() {
		t.Fatal("fresh registry should be empty")
	}

	agent, err := reg.admit(RoleAgent, "a1", nil)
	if err != nil {
		t.Fatalf("admit agent: %v", err)
	}
	if reg.isEmpty() {
		t.Fatal("registry with one agent should not be empty")
	}

	reg.remove(agent)
	if !reg.isEmpty() {
		t.Fatal("registry should be empty after removing its only peer")
	}
}

func TestPeerRegistryAgentsSnapshotExcludesOtherRoles(t *testing.T) {
	reg := newPeerRegistry()
	if _, err := reg.admit(RoleBrowser, "", nil); err != nil {
		t.Fatalf("admit browser: %v", err)
	}
	if _, err := reg.admit(RoleLocal, "", nil); err != nil {
		t.Fatalf("admit local: %v", err)
	}
	if _, err := reg.admit(RoleAgent, "a1", nil); err != nil {
		t.Fatalf("admit agent: %v", err)
	}

	agents := reg.agentsSnapshot()
	if len(agents) != 1 {
		t.Fatalf("agentsSnapshot returned %d peers, want 1", len(agents))
	}
	if agents[0].ClientID != "a1" {
		t.Fatalf("agentsSnapshot()[0].ClientID = %q, want a1", agents[0].ClientID)
	}
}
