package tasks

import (
	"context"
)

// SchedulerInterface is what the HTTP layer needs from the scheduler:
// lifecycle control plus synchronous on-demand runs for the manual trigger.
type SchedulerInterface interface {
	Start()
	Stop()
	RunJob(ctx context.Context, name string) error
	HasJob(name string) bool
	Jobs() []string
}
