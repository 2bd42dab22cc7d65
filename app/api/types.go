package api

import (
	"github.com/sobako/babywatch/app/store"
	"github.com/sobako/babywatch/app/tasks"
)

type Handler struct {
	scheduler tasks.SchedulerInterface
	sources   store.SourceRepository
	events    store.EventRepository
	babies    store.BabyRepository
	runToken  string
}

func NewHandler(scheduler tasks.SchedulerInterface, sources store.SourceRepository,
	events store.EventRepository, babies store.BabyRepository, runToken string) *Handler {
	return &Handler{
		scheduler: scheduler,
		sources:   sources,
		events:    events,
		babies:    babies,
		runToken:  runToken,
	}
}
