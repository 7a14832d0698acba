package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/config"
	jobmodel "github.com/rahulsamant37/rag-foundation/internal/domain/jobModel"
	"github.com/rahulsamant37/rag-foundation/internal/metrics"
)

// executeJob runs one queued ingestion end to end. Status bookkeeping lives
// in the rag service; the worker only provides the context and the clock.
func executeJob(job jobmodel.Job) {
	start := time.Now()
	status := "ok"
	defer func() {
		metrics.CaptureJobMetrics(status, time.Since(start))
	}()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.IngestTimeout)
	defer cancel()

	log := logger.With("traceId", job.TraceId, "documentId", job.DocumentId)
	log.Debug("Processing ingestion job")

	if err := _ragService.IngestDocument(ctx, job); err != nil {
		status = "error"
		log.Error("Ingestion job failed", "error", err)
		return
	}
	log.Debug("Ingestion job complete")
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker ", "reason", reason, "workerCount", currentWorkerCount)
	metrics.DecrementActiveWorkerCount()
}
