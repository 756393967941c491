package executor

import (
	"context"
	"time"
)

// spawnUsers calls spawn n times, pacing calls at rate per second. The first
// user starts immediately; a rate <= 0 starts all users at once. It returns
// the number of users spawned before ctx ended.
func spawnUsers(ctx context.Context, n int, rate float64, spawn func()) int {
	if n <= 0 {
		return 0
	}

	if rate <= 0 {
		for i := 0; i < n; i++ {
			if ctx.Err() != nil {
				return i
			}
			spawn()
		}
		return n
	}

	interval := time.Duration(float64(time.Second) / rate)
	if interval <= 0 {
		interval = time.Nanosecond
	}

	spawn()
	if n == 1 {
		return 1
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	spawned := 1
	for spawned < n {
		select {
		case <-ctx.Done():
			return spawned
		case <-ticker.C:
			spawn()
			spawned++
		}
	}
	return spawned
}
