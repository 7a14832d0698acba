package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rahulsamant37/rag-foundation/internal/adapter"
	"github.com/rahulsamant37/rag-foundation/internal/adapter/utils"
	"github.com/rahulsamant37/rag-foundation/internal/api"
	"github.com/rahulsamant37/rag-foundation/internal/config"
	"github.com/rahulsamant37/rag-foundation/internal/domain/commonModels"
	"github.com/rahulsamant37/rag-foundation/internal/metrics"
	"github.com/rahulsamant37/rag-foundation/internal/rag"
	"github.com/rahulsamant37/rag-foundation/internal/rag/extract"
	"github.com/rahulsamant37/rag-foundation/pkg/logger_i"
)

var logRH *logger_i.Logger

type ingestJobData struct {
	documentId     string
	documentName   string
	documentSource string
	format         commonModels.DocType
	sizeBytes      int64
	traceId        string
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func toQueryRequest(req api.QueryRequest) rag.QueryRequest {
	return rag.QueryRequest{
		Question:      req.Question,
		SessionId:     req.SessionId,
		K:             req.TopK,
		ContextBudget: req.ContextBudget,
	}
}

// PostIngestHandler handles the uploading of documents for ingestion.
// @Summary      Upload a document for ingestion
// @Description  Receives a file via multipart/form-data, saves it to a temporary directory, and queues an ingestion job.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_name  formData  string  true  "The display name of the document"
// @Param        document       formData  file    true  "The PDF, DOCX, TXT or MD file to upload"
// @Success      202  {object}  api.IngestResponse "Accepted - returns document_id"
// @Failure      400  {object}  api.ErrorResponse "Bad Request - Missing fields or file too large"
// @Failure      422  {object}  api.ErrorResponse "Unsupported document format"
// @Failure      500  {object}  api.ErrorResponse "Internal Server Error - Storage or Write Error"
// @Router       /documents [post]
func PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	targetDir, errString := getTargetDirectory()
	if errString != "" {
		logRH.Error("Couldn't get target directory :", "err", errString)
		WriteErrorResponse(w, http.StatusInternalServerError, api.ErrorKindInternal, errString)
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadBytes); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, api.ErrorKindValidation, "File too large or bad request")
		return
	}

	docName := r.FormValue("document_name")
	if docName == "" {
		WriteErrorResponse(w, http.StatusBadRequest, api.ErrorKindValidation, "document_name is required")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, api.ErrorKindValidation, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	format := extract.DetectType(fileMetadata.Filename)
	if format == commonModels.ERR {
		WriteErrorResponse(w, http.StatusUnprocessableEntity, api.ErrorKindValidation, "unsupported document format")
		return
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(fileMetadata.Filename))
	tempFilePath := filepath.Join(targetDir, filename)
	destinationFileWriter, err := os.Create(tempFilePath)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, api.ErrorKindInternal, "Storage error")
		return
	}
	defer destinationFileWriter.Close()

	written, err := io.Copy(destinationFileWriter, fileReader)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, api.ErrorKindInternal, "Write error")
		return
	}

	newJob := ingestJobData{
		documentId:     utils.GetNewUUID(),
		documentName:   docName,
		documentSource: tempFilePath,
		format:         format,
		sizeBytes:      written,
		traceId:        r.Context().Value(config.TRACE_ID_KEY).(string),
	}
	if err := EnqueueIngest(newJob); err != nil {
		writeMappedError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToIngestResponse(newJob.documentId))
}

// GetStatusHandler godoc
// @Summary      Get document ingestion status
// @Description  Retrieves the current ingestion status of a document using its ID.
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.StatusResponse "The current status of the document"
// @Failure      404  {object}  api.ErrorResponse  "Document not found"
// @Router       /documents/{id}/status [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	logRH.Debug("Get Status Request:", "URL path", r.URL.Path)

	doc, isFound := GetDocument(idString, r.Context().Value(config.TRACE_ID_KEY).(string))
	if idString == "" || !isFound {
		WriteErrorResponse(w, http.StatusNotFound, api.ErrorKindNotFound, "document not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToStatusResponse(doc))
}

// DeleteDocumentHandler godoc
// @Summary      Delete a document
// @Description  Removes the document record and every indexed vector derived from it.
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DeleteResponse "Deletion summary"
// @Failure      404  {object}  api.ErrorResponse  "Document not found"
// @Failure      409  {object}  api.ErrorResponse  "Ingestion in progress"
// @Router       /documents/{id} [delete]
func DeleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	if idString == "" {
		WriteErrorResponse(w, http.StatusNotFound, api.ErrorKindNotFound, "document not found")
		return
	}

	removed, err := handlerInstance.ragService.DeleteDocument(r.Context(), idString)
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDeleteResponse(idString, removed))
}

// QueryHandler godoc
// @Summary      Ask a question over the ingested documents
// @Description  Retrieves relevant chunks, synthesizes a cited answer, and records the turn in the session.
// @Tags         Query
// @Accept       json
// @Produce      json
// @Param        request  body      api.QueryRequest  true  "Question and optional session ID"
// @Success      200      {object}  api.QueryResponse "Answer with sources and confidence"
// @Failure      400      {object}  api.ErrorResponse "Invalid request data"
// @Failure      503      {object}  api.ErrorResponse "Upstream model unavailable"
// @Router       /query [post]
func QueryHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		logRH.Warn("Invalid Context by request ", r.RemoteAddr)
		return
	}

	var requestData api.QueryRequest
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logRH.Error("Couldn't close the Query handler reader :", err)
		}
	}(r.Body)
	if err := json.NewDecoder(r.Body).Decode(&requestData); err != nil || requestData.Question == "" {
		logRH.Warn("Bad Query Request: ", "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, api.ErrorKindValidation, "question is required")
		return
	}

	start := time.Now()
	result, err := handlerInstance.ragService.ProcessQuery(r.Context(), toQueryRequest(requestData))
	if err != nil {
		metrics.CaptureQueryMetrics("error", time.Since(start))
		writeMappedError(w, err)
		return
	}
	metrics.CaptureQueryMetrics("ok", time.Since(start))
	writeJsonResponse(w, http.StatusOK, adapter.ToQueryResponse(result))
}

// StatsHandler godoc
// @Summary      Corpus and index counters
// @Tags         Stats
// @Produce      json
// @Success      200  {object}  api.StatsResponse
// @Router       /stats [get]
func StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	stats, err := handlerInstance.ragService.Stats(r.Context())
	if err != nil {
		writeMappedError(w, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToStatsResponse(stats))
}
