package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iota-uz/staffimport/modules/hrm/domain/aggregates/importjob"
	"github.com/iota-uz/staffimport/modules/hrm/services"
	"github.com/iota-uz/staffimport/pkg/application"
	"github.com/iota-uz/staffimport/pkg/composables"
	"github.com/iota-uz/staffimport/pkg/httpapi"
	"github.com/iota-uz/staffimport/pkg/middleware"
	"github.com/iota-uz/staffimport/pkg/serrors"
)

type ImportController struct {
	app      application.Application
	imports  *services.ImportService
	queries  *services.ImportQueryService
	basePath string
}

func NewImportController(app application.Application) application.Controller {
	return &ImportController{
		app:      app,
		imports:  app.Service(services.ImportService{}).(*services.ImportService),
		queries:  app.Service(services.ImportQueryService{}).(*services.ImportQueryService),
		basePath: "/hrm/import",
	}
}

func (c *ImportController) Key() string {
	return c.basePath
}

func (c *ImportController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(middleware.WithTenantFromHeaders())
	router.HandleFunc("/preview", c.Preview).Methods(http.MethodPost)
	router.HandleFunc("/confirm", c.Confirm).Methods(http.MethodPost)
	router.HandleFunc("/jobs/{id}", c.JobStatus).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{id}/failed-rows.csv", c.FailedRows).Methods(http.MethodGet)
}

func (c *ImportController) Preview(w http.ResponseWriter, r *http.Request) {
	fileName, payload, ok := c.readFilePart(w, r)
	if !ok {
		return
	}

	result, err := c.imports.Preview(r.Context(), fileName, payload)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, toPreviewResponse(result))
}

func (c *ImportController) Confirm(w http.ResponseWriter, r *http.Request) {
	fileName, payload, ok := c.readFilePart(w, r)
	if !ok {
		return
	}

	rowsPart := r.FormValue("rows")
	if rowsPart == "" {
		_ = httpapi.WriteError(w, http.StatusBadRequest,
			"IMPORT_ROWS_MISSING", "the rows part produced by preview is required", nil)
		return
	}
	var dtos []PreviewRowDTO
	if err := json.Unmarshal([]byte(rowsPart), &dtos); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest,
			"IMPORT_ROWS_MALFORMED", "the rows part is not a valid row array", nil)
		return
	}

	jobID, err := c.imports.Confirm(r.Context(), fileName, payload, toImportRows(dtos))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	// accepted, not completed: the external worker creates the records
	_ = httpapi.WriteJSON(w, http.StatusAccepted, ConfirmResponseDTO{JobID: jobID.String()})
}

func (c *ImportController) JobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := c.jobID(w, r)
	if !ok {
		return
	}

	status, err := c.queries.Status(r.Context(), id)
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusOK, JobStatusDTO{
		ID:             status.ID.String(),
		Status:         string(status.Status),
		TotalRows:      status.TotalRows,
		SuccessfulRows: status.SuccessfulRows,
		FailedRows:     status.FailedRows,
		Progress:       status.Progress,
		CreatedAt:      status.CreatedAt,
		UpdatedAt:      status.UpdatedAt,
	})
}

func (c *ImportController) FailedRows(w http.ResponseWriter, r *http.Request) {
	id, ok := c.jobID(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "failed-rows-"+id.String()+".csv"))

	if err := c.queries.ExportFailedRows(r.Context(), id, w); err != nil {
		if errors.Is(err, importjob.ErrNotFound) {
			// headers not flushed yet: nothing was written on the error path
			w.Header().Del("Content-Disposition")
			_ = httpapi.WriteError(w, http.StatusNotFound, "IMPORT_JOB_NOT_FOUND", "import job not found", nil)
			return
		}
		composables.UseLogger(r.Context()).WithError(err).Error("failed-row export failed")
	}
}

func (c *ImportController) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "IMPORT_JOB_ID_MALFORMED", "job id must be a uuid", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (c *ImportController) readFilePart(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	// one megabyte of slack for the rows part and multipart framing
	if err := r.ParseMultipartForm(c.imports.Options().MaxFileSize + 1<<20); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest,
			"IMPORT_REQUEST_MALFORMED", "expected a multipart form upload", nil)
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest,
			"IMPORT_FILE_MISSING", "no file was provided", nil)
		return "", nil, false
	}
	defer func() { _ = file.Close() }()

	payload, err := io.ReadAll(file)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest,
			"IMPORT_FILE_UNREADABLE", "failed to read the uploaded file", nil)
		return "", nil, false
	}

	return header.Filename, payload, true
}

func (c *ImportController) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var base *serrors.Base
	if errors.As(err, &base) {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrFileTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, services.ErrNoValidRows):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, services.ErrImportCancelled):
			status = http.StatusInternalServerError
		}
		meta := map[string]string(nil)
		if base.Details != "" {
			meta = map[string]string{"details": base.Details}
		}
		_ = httpapi.WriteError(w, status, base.Code, base.Message, meta)
		return
	}

	if errors.Is(err, importjob.ErrNotFound) {
		_ = httpapi.WriteError(w, http.StatusNotFound, "IMPORT_JOB_NOT_FOUND", "import job not found", nil)
		return
	}

	composables.UseLogger(r.Context()).WithError(err).Error("import request failed")
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "IMPORT_INTERNAL", "internal error", nil)
}
