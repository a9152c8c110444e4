package room

import (
	"errors"
	"testing"
	"time"

	"github.com/workspace/room-relay/internal/roomerr"
)

func TestRoomAuthenticateFirstWriterWins(t *testing.T) {
	r := testRoom(t)

	if err := r.Authenticate(""); !errors.Is(err, roomerr.ErrUnauthorized) {
		t.Fatalf("Authenticate(\"\") = %v, want ErrUnauthorized", err)
	}
	if err := r.Authenticate("secret"); err != nil {
		t.Fatalf("Authenticate(secret): %v", err)
	}
	if err := r.Authenticate("wrong"); !errors.Is(err, roomerr.ErrForbidden) {
		t.Fatalf("Authenticate(wrong) = %v, want ErrForbidden", err)
	}
}

func TestRoomAdmitGeneratesAgentClientID(t *testing.T) {
	r := testRoom(t)
	_, conn := dialPeerPipe(t, RoleAgent, "")

	peer, err := r.Admit(RoleAgent, "", conn)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if peer.ClientID == "" {
		t.Fatal("expected a generated clientId for an agent with no clientId")
	}
}

func TestRoomDisconnectBrowserClosesAgentsAndClearsTargets(t *testing.T) {
	r := testRoom(t)
	_, browserConn := dialPeerPipe(t, RoleBrowser, "")
	browserPeer, err := r.Admit(RoleBrowser, "", browserConn)
	if err != nil {
		t.Fatalf("admit browser: %v", err)
	}

	_, agentConn := dialPeerPipe(t, RoleAgent, "a1")
	if _, err := r.Admit(RoleAgent, "a1", agentConn); err != nil {
		t.Fatalf("admit agent: %v", err)
	}

	r.mu.Lock()
	r.targets.attach("sess-1", "target-1", TargetInfo{TargetID: "target-1"})
	r.mu.Unlock()

	r.Disconnect(browserPeer)

	r.mu.Lock()
	remaining := len(r.targets.snapshot())
	r.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("targets should be cleared after browser disconnect, got %d", remaining)
	}

	agentConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := agentConn.ReadMessage(); err == nil {
		t.Fatal("expected the agent connection to be closed by the relay")
	}
}

func TestRoomDisconnectLocalClearsLedgerOnly(t *testing.T) {
	r := testRoom(t)
	_, localConn := dialPeerPipe(t, RoleLocal, "")
	localPeer, err := r.Admit(RoleLocal, "", localConn)
	if err != nil {
		t.Fatalf("admit local: %v", err)
	}

	r.mu.Lock()
	r.ledger.recordRead("/a.txt", 1)
	r.mu.Unlock()

	r.Disconnect(localPeer)

	r.mu.Lock()
	_, ok := r.ledger.expectedMtime("/a.txt")
	r.mu.Unlock()
	if ok {
		t.Fatal("ledger should be cleared after local disconnect")
	}
}

func TestManagerGetOrCreateReusesRoom(t *testing.T) {
	cfg, err := loadTestConfig(t)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	mgr := NewManager(cfg, testLogger())

	r1 := mgr.GetOrCreate("room-1")
	r2 := mgr.GetOrCreate("room-1")
	if r1 != r2 {
		t.Fatal("GetOrCreate should return the same Room for the same id")
	}

	if _, ok := mgr.Get("room-2"); ok {
		t.Fatal("Get should not find a room that was never created")
	}
}

func TestManagerSweepReapsIdleRooms(t *testing.T) {
	cfg, err := loadTestConfig(t)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.RoomIdleGrace = time.Millisecond
	mgr := NewManager(cfg, testLogger())

	rm := mgr.GetOrCreate("room-1")
	rm.mu.Lock()
	rm.emptySince = time.Now().Add(-time.Hour)
	rm.mu.Unlock()

	mgr.sweep()

	if _, ok := mgr.Get("room-1"); ok {
		t.Fatal("expected the idle room to be reaped")
	}
}
