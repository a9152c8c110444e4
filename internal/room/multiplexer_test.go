package room

import (
	"errors"
	"testing"
	"time"

	"github.com/workspace/room-relay/internal/roomerr"
)

func TestMultiplexerNextIDIsMonotonic(t *testing.T) {
	m := newMultiplexer("Extension")
	first := m.nextID()
	second := m.nextID()
	if second <= first {
		t.Fatalf("nextID() not monotonic: %d then %d", first, second)
	}
}

func TestMultiplexerResolveDelivers(t *testing.T) {
	m := newMultiplexer("Extension")
	id := m.nextID()
	pr := m.register(id, "Target.getTargets", "", time.Minute)

	if ok := m.resolve(id, []byte(`{"ok":true}`), ""); !ok {
		t.Fatal("resolve should find the pending request")
	}

	select {
	case res := <-pr.resultCh:
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}
		if string(res.result) != `{"ok":true}` {
			t.Fatalf("result = %s", res.result)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for result")
	}
}

func TestMultiplexerResolveWithErrorString(t *testing.T) {
	m := newMultiplexer("Extension")
	id := m.nextID()
	pr := m.register(id, "Target.getTargets", "", time.Minute)

	m.resolve(id, nil, "boom")

	res := <-pr.resultCh
	if res.err == nil || res.err.Error() != "boom" {
		t.Fatalf("err = %v, want boom", res.err)
	}
}

func TestMultiplexerTimeout(t *testing.T) {
	m := newMultiplexer("Extension")
	id := m.nextID()
	pr := m.register(id, "Target.getTargets", "", 10*time.Millisecond)

	select {
	case res := <-pr.resultCh:
		var to *roomerr.Timeout
		if !errors.As(res.err, &to) {
			t.Fatalf("err = %v, want *roomerr.Timeout", res.err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for timeout result")
	}
}

func TestMultiplexerRejectAll(t *testing.T) {
	m := newMultiplexer("Extension")
	id1, id2 := m.nextID(), m.nextID()
	pr1 := m.register(id1, "a", "", time.Minute)
	pr2 := m.register(id2, "b", "", time.Minute)

	sentinel := &roomerr.Closed{Peer: "Extension"}
	m.rejectAll(sentinel)

	for _, pr := range []*PendingRequest{pr1, pr2} {
		res := <-pr.resultCh
		if !errors.Is(res.err, error(sentinel)) && res.err.Error() != sentinel.Error() {
			t.Fatalf("err = %v, want %v", res.err, sentinel)
		}
	}

	if m.pendingCount() != 0 {
		t.Fatalf("pendingCount() = %d, want 0", m.pendingCount())
	}
}

func TestMultiplexerResolveUnknownIDIsNoop(t *testing.T) {
	m := newMultiplexer("Extension")
	if ok := m.resolve(999, nil, ""); ok {
		t.Fatal("resolve on unknown id should return false")
	}
}
