package job

import (
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
)

// Service carries the ingestion queue shared between the HTTP side that
// enqueues jobs and the worker pool that drains them.
type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	DocumentStore     jobModel.DocumentStore
	SessionStore      jobModel.SessionStore
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	DocumentStore     jobModel.DocumentStore
	SessionStore      jobModel.SessionStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		DocumentStore:     cfg.DocumentStore,
		SessionStore:      cfg.SessionStore,
	}
}
