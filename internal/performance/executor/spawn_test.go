package executor

import (
	"context"
	"testing"
	"time"
)

func TestSpawnUsers_AllAtOnce(t *testing.T) {
	calls := 0
	n := spawnUsers(context.Background(), 5, 0, func() { calls++ })
	if n != 5 || calls != 5 {
		t.Errorf("spawned %d (calls %d), want 5", n, calls)
	}
}

func TestSpawnUsers_Paced(t *testing.T) {
	var times []time.Time
	start := time.Now()
	n := spawnUsers(context.Background(), 3, 20, func() { times = append(times, time.Now()) })

	if n != 3 {
		t.Fatalf("spawned %d, want 3", n)
	}
	if times[0].Sub(start) > 20*time.Millisecond {
		t.Errorf("first user started after %v, want immediately", times[0].Sub(start))
	}
	if gap := times[2].Sub(times[0]); gap < 80*time.Millisecond {
		t.Errorf("three users at 20/s spawned within %v, want about 100ms", gap)
	}
}

func TestSpawnUsers_Cancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	calls := 0
	n := spawnUsers(ctx, 100, 1, func() { calls++ })
	if n != 1 || calls != 1 {
		t.Errorf("spawned %d (calls %d) before cancel, want 1", n, calls)
	}
}

func TestSpawnUsers_None(t *testing.T) {
	if n := spawnUsers(context.Background(), 0, 1, func() { t.Fatal("spawn called") }); n != 0 {
		t.Errorf("spawned %d, want 0", n)
	}
}
