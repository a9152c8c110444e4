package room

import "testing"

func TestReadTimeLedgerTracksReadsAndWrites(t *testing.T) {
	l := newReadTimeLedger()

	if _, ok := l.expectedMtime("/a.txt"); ok {
		t.Fatal("expectedMtime should report not-found before any read")
	}

	l.recordRead("/a.txt", 100.0)
	mtime, ok := l.expectedMtime("/a.txt")
	if !ok || mtime != 100.0 {
		t.Fatalf("expectedMtime = %v, %v, want 100.0, true", mtime, ok)
	}

	l.recordWrite("/a.txt", 101.0)
	mtime, ok = l.expectedMtime("/a.txt")
	if !ok || mtime != 101.0 {
		t.Fatalf("expectedMtime after write = %v, %v, want 101.0, true", mtime, ok)
	}
}

func TestReadTimeLedgerClear(t *testing.T) {
	l := newReadTimeLedger()
	l.recordRead("/a.txt", 1.0)
	l.clear()
	if _, ok := l.expectedMtime("/a.txt"); ok {
		t.Fatal("expectedMtime should report not-found after clear")
	}
}
