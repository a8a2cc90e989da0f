// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartCleanupScheduler runs the queue staleness sweep every minute. The
// returned scheduler should be Shutdown on exit.
func (q *MatchmakingQueue) StartCleanupScheduler() gocron.Scheduler {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: drop players stuck in the queue past the timeout
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if removed := q.CleanupStalePlayers(); removed > 0 {
				log.Printf("[Scheduler] Removed %d stale players from matchmaking queue", removed)
			}
		}),
	)

	return sched
}
