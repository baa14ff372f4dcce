package bridge

import (
	"sync"
	"testing"

	"callbridge/core"
)

func TestDeactivateFlipsExactlyOnce(t *testing.T) {
	sess := newSession("sess-1", "CA1", "test", newFakeStream())

	const goroutines = 32
	var wg sync.WaitGroup
	flips := make(chan bool, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			flips <- sess.Deactivate()
		}()
	}
	wg.Wait()
	close(flips)

	winners := 0
	for flipped := range flips {
		if flipped {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("%d goroutines observed the flip, want exactly 1", winners)
	}
	if sess.Active() {
		t.Error("session still active after Deactivate")
	}
}

func TestCloseStreamIsIdempotent(t *testing.T) {
	stream := newFakeStream()
	sess := newSession("sess-1", "CA1", "test", stream)

	before := streamClosures.Load()
	first := sess.CloseStream()
	second := sess.CloseStream()

	if streamClosures.Load()-before != 1 {
		t.Error("underlying stream closed more than once")
	}
	if first != second {
		t.Errorf("repeat close returned %v, first returned %v", second, first)
	}
}

func TestHistorySnapshotIsIsolated(t *testing.T) {
	sess := newSession("sess-1", "CA1", "test", newFakeStream())
	sess.AppendTurn(core.RoleCaller, "hello")

	snapshot := sess.History()
	sess.AppendTurn(core.RoleAgent, "hi there")

	if len(snapshot) != 1 {
		t.Fatalf("snapshot grew after a later append: %+v", snapshot)
	}
	snapshot[0].Text = "mutated"
	if got := sess.History()[0].Text; got != "hello" {
		t.Errorf("mutating a snapshot changed session history: %q", got)
	}
}

func TestRegistryTeardownIdempotent(t *testing.T) {
	r := NewRegistry()
	stream := newFakeStream()
	sess := newSession("sess-1", "CA1", "test", stream)
	r.Add(sess)

	before := streamClosures.Load()
	r.Teardown("sess-1")
	r.Teardown("sess-1")
	r.Teardown("never-existed")

	if r.Len() != 0 {
		t.Errorf("registry has %d entries after teardown, want 0", r.Len())
	}
	if streamClosures.Load()-before != 1 {
		t.Error("repeated teardown closed the stream more than once")
	}
	if sess.Active() {
		t.Error("session still active after teardown")
	}
	select {
	case <-sess.ctx.Done():
	default:
		t.Error("session context not cancelled by teardown")
	}
}

func TestRegistryConcurrentTeardown(t *testing.T) {
	const n = 16
	r := NewRegistry()

	before := streamClosures.Load()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		id := string(rune('a'+i)) + "-session"
		ids[i] = id
		r.Add(newSession(id, "CA1", "test", newFakeStream()))
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		// Two racing teardowns per session.
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				r.Teardown(id)
			}(id)
		}
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("registry has %d entries after concurrent teardown, want 0", r.Len())
	}
	if got := streamClosures.Load() - before; got != n {
		t.Errorf("closed %d streams, want %d", got, n)
	}
}

func TestActiveSessionsSkipsDeactivated(t *testing.T) {
	r := NewRegistry()
	live := newSession("live", "CA1", "test", newFakeStream())
	done := newSession("done", "CA2", "test", newFakeStream())
	r.Add(live)
	r.Add(done)
	done.Deactivate()

	active := r.ActiveSessions()
	if len(active) != 1 || active[0].ID != "live" {
		t.Errorf("ActiveSessions = %v", active)
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, deactivation must not remove the entry", r.Len())
	}
}
