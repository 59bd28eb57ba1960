package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corp-qr-hub/internal/dashboard/middleware"
	"github.com/corp-qr-hub/internal/dashboard/service"
	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/render"
)

// EntryHandler serves the JSON API over the entry store
type EntryHandler struct {
	entryService service.EntryService
	logger       *slog.Logger
}

func NewEntryHandler(logger *slog.Logger, entryService service.EntryService) *EntryHandler {
	return &EntryHandler{
		entryService: entryService,
		logger:       logger,
	}
}

// List returns every entry, or the ones matching ?q=
func (h *EntryHandler) List(c *gin.Context) {
	query := c.Query("q")
	entries := h.entryService.List(query)

	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = h.mapEntryToResponse(e)
	}
	RespondWithList(c, out, &MetaInfo{TotalItems: len(out), Query: query})
}

func (h *EntryHandler) Create(c *gin.Context) {
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		h.respondError(c, "create", "", err)
		return
	}

	e, err := h.entryService.Create(c.Request.Context(), draft)
	if err != nil && !flagStorageWarning(c, err) {
		h.respondError(c, "create", "", err)
		return
	}
	RespondCreated(c, h.mapEntryToResponse(e))
}

func (h *EntryHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	e, err := h.entryService.Get(id)
	if err != nil {
		h.respondError(c, "get", id, err)
		return
	}
	RespondOK(c, h.mapEntryToResponse(e))
}

func (h *EntryHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "id", id, "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	current, err := h.entryService.Get(id)
	if err != nil {
		h.respondError(c, "update", id, err)
		return
	}
	patch, err := req.toPatch(current.Kind())
	if err != nil {
		h.respondError(c, "update", id, err)
		return
	}

	e, err := h.entryService.Update(c.Request.Context(), id, patch)
	if err != nil && !flagStorageWarning(c, err) {
		h.respondError(c, "update", id, err)
		return
	}
	RespondOK(c, h.mapEntryToResponse(e))
}

// SetStatus sets the status named in the body, or toggles it when the body
// is empty.
func (h *EntryHandler) SetStatus(c *gin.Context) {
	id := c.Param("id")

	var status *entry.Status
	var req StatusRequest
	switch err := c.ShouldBindJSON(&req); {
	case errors.Is(err, io.EOF):
	case err != nil:
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	default:
		s := entry.Status(req.Status)
		status = &s
	}

	e, err := h.entryService.SetStatus(c.Request.Context(), id, status)
	if err != nil && !flagStorageWarning(c, err) {
		h.respondError(c, "set status", id, err)
		return
	}
	RespondOK(c, h.mapEntryToResponse(e))
}

// Delete is idempotent: an unknown id also answers 204.
func (h *EntryHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.entryService.Delete(c.Request.Context(), id); err != nil && !flagStorageWarning(c, err) {
		h.respondError(c, "delete", id, err)
		return
	}
	RespondNoContent(c)
}

func (h *EntryHandler) Duplicate(c *gin.Context) {
	id := c.Param("id")
	e, err := h.entryService.Duplicate(c.Request.Context(), id)
	if err != nil && !flagStorageWarning(c, err) {
		h.respondError(c, "duplicate", id, err)
		return
	}
	RespondCreated(c, h.mapEntryToResponse(e))
}

// RecordScan appends a scan classified from the caller's User-Agent.
func (h *EntryHandler) RecordScan(c *gin.Context) {
	id := c.Param("id")
	e, err := h.entryService.RecordScan(c.Request.Context(), id, c.Request.UserAgent(), middleware.GetCorrelationID(c))
	if err != nil && !flagStorageWarning(c, err) {
		h.respondError(c, "record scan", id, err)
		return
	}

	if len(e.ScanLog) == 0 {
		RespondCreated(c, nil)
		return
	}
	last := e.ScanLog[len(e.ScanLog)-1]
	RespondCreated(c, ScanResponse{Timestamp: formatTime(last.Timestamp), Device: string(last.Device)})
}

func (h *EntryHandler) ListScans(c *gin.Context) {
	id := c.Param("id")
	e, err := h.entryService.Get(id)
	if err != nil {
		h.respondError(c, "list scans", id, err)
		return
	}
	scans := mapScansToResponse(e.ScanLog)
	RespondWithList(c, scans, &MetaInfo{TotalItems: len(scans)})
}

func (h *EntryHandler) Analytics(c *gin.Context) {
	id := c.Param("id")
	summary, err := h.entryService.Analytics(id)
	if err != nil {
		h.respondError(c, "analytics", id, err)
		return
	}
	RespondOK(c, mapAnalyticsToResponse(id, summary))
}

// QRCode renders the entry's code as PNG, ?size= pixels per side
func (h *EntryHandler) QRCode(c *gin.Context) {
	id := c.Param("id")

	var params QRCodeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid size: "+err.Error())
		return
	}

	img, err := h.entryService.QRCode(id, params.Size)
	if err != nil {
		h.respondError(c, "render code", id, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", img)
}

// respondError maps domain errors onto API responses
func (h *EntryHandler) respondError(c *gin.Context, op, id string, err error) {
	var validationErr entry.ValidationError
	switch {
	case errors.As(err, &validationErr):
		RespondValidationError(c, validationErr)
	case errors.Is(err, entry.ErrNotFound{}):
		RespondNotFound(c, "Entry not found")
	case errors.Is(err, service.ErrEntryInactive):
		RespondGone(c, "Entry is inactive")
	case errors.Is(err, render.ErrEmptyText):
		RespondBadRequest(c, "Entry has nothing to encode")
	default:
		h.logger.Error("Entry operation failed", "op", op, "id", id, "error", err)
		RespondInternalError(c)
	}
}

func (h *EntryHandler) mapEntryToResponse(e entry.Entry) EntryResponse {
	payload, err := entry.MarshalPayload(e.Payload)
	if err != nil {
		h.logger.Error("Failed to encode payload", "id", e.ID, "error", err)
	}

	resp := EntryResponse{
		ID:           e.ID,
		Name:         e.Name,
		Description:  e.Description,
		Kind:         string(e.Kind()),
		Payload:      payload,
		Style:        e.Style,
		Status:       string(e.Status),
		CreatedAt:    formatTime(e.CreatedAt),
		ScanCount:    len(e.ScanLog),
		EncodeTarget: h.entryService.EncodeTarget(e),
	}
	if n := len(e.ScanLog); n > 0 {
		resp.LastScanAt = formatTime(e.ScanLog[n-1].Timestamp)
	}
	if e.Kind().HasPage() {
		resp.PublicURL = h.entryService.PublicURL(e.ID)
	}
	return resp
}
