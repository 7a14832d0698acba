package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/internal/job"
	"github.com/rahulsamant37/rag-foundation/internal/metrics"
	"github.com/rahulsamant37/rag-foundation/internal/rag"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           *logger_i.Logger
)

type JobHandler struct {
	service    *job.Service
	ragService rag.Service
}

func InitHandlers(jobService *job.Service, ragService rag.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService, ragService: ragService}

		logJH = logger_i.NewLogger("JobHandler")
		logRH = logger_i.NewLogger("RequestHandler")
		logJH.Info("Starting job handler")
	})
}

// EnqueueIngest records the pending document and queues its ingestion job.
// The send blocks when the buffer is full, which keeps upload pressure from
// overwhelming the system.
func EnqueueIngest(newJob ingestJobData) error {
	log := logJH.With("traceId", newJob.traceId, "documentId", newJob.documentId)
	log.Info("To create new ingestion job")

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	doc := commonModels.Document{
		Id:          newJob.documentId,
		Name:        newJob.documentName,
		ContentType: newJob.format,
		SizeBytes:   newJob.sizeBytes,
		UploadedAt:  time.Now(),
		Status:      commonModels.StatusPending,
	}
	if err := handlerInstance.service.DocumentStore.Save(ctx, doc); err != nil {
		return err
	}

	handlerInstance.pushToJobChannel(newJob)
	return nil
}

func GetDocument(id string, traceId string) (commonModels.Document, bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.DocumentStore.Get(ctxC, id)
	}
	return commonModels.Document{}, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob ingestJobData) {
	_job := jobModel.Job{
		DocumentId:  newJob.documentId,
		TraceId:     newJob.traceId,
		FileName:    newJob.documentName,
		FilePath:    newJob.documentSource,
		Format:      newJob.format,
		CreatedTime: time.Now(),
	}

	//metrics
	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //this is a blocking send to prevent the system from being overwhelmed
	logJH.Info("Created new ingestion job")

	//ingestion involves batch processing which might take time - external system call
	//so every ingest job nudges the dispatcher; extra workers retire when idle
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1) //after sending a request increment counter
	metrics.StartDispatcherSignalCount()                         //metrics
	logJH.Debug("Request count ", accurateCount)
	select {
	case h.service.DispatcherChannel <- true:
	default:
		//dispatcher already has a pending signal
	}
}
