package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parking-gate-service/internal/config"
	"parking-gate-service/internal/http/middleware"
	"parking-gate-service/internal/model"
	"parking-gate-service/internal/service"
	"parking-gate-service/internal/storage"
)

type Handler struct {
	gateService      *service.GateService
	whitelistService *service.WhitelistService
	exportService    *service.ExportService
	config           *config.Config
	log              zerolog.Logger
	r2               *storage.R2Client
}

func NewHandler(
	gateService *service.GateService,
	whitelistService *service.WhitelistService,
	exportService *service.ExportService,
	cfg *config.Config,
	log zerolog.Logger,
	r2 *storage.R2Client,
) *Handler {
	return &Handler{
		gateService:      gateService,
		whitelistService: whitelistService,
		exportService:    exportService,
		config:           cfg,
		log:              log,
		r2:               r2,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	// Camera endpoint stays public, cameras cannot hold tokens.
	public := r.Group("/api/v1")
	{
		public.POST("/gate/events", h.processGateEvent)
	}

	protected := r.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.POST("/whitelist", h.registerWhitelist)
		protected.GET("/whitelist", h.listWhitelist)
		protected.DELETE("/whitelist", h.removeWhitelist)
		protected.POST("/whitelist/import", h.bulkImportWhitelist)
		protected.GET("/whitelist/check", h.checkAccess)
		protected.GET("/sessions/search", h.searchSessions)
		protected.GET("/sessions/export", h.exportSessions)
		protected.DELETE("/sessions/:id", h.deleteSession)
	}
}

type gateEventRequest struct {
	Status      string                 `json:"status" binding:"required"`
	RawText     string                 `json:"raw_text"`
	ManualPlate string                 `json:"manual_plate"`
	SnapshotURL string                 `json:"snapshot_url"`
	Confirmed   bool                   `json:"confirmed"`
	EventTime   *time.Time             `json:"event_time"`
	RawPayload  map[string]interface{} `json:"raw_payload"`
}

func (h *Handler) processGateEvent(c *gin.Context) {
	input, err := h.bindGateEvent(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	h.log.Info().
		Str("status", string(input.Status)).
		Str("raw_text", input.RawText).
		Str("manual_plate", input.ManualPlate).
		Msg("processing gate event")

	result, err := h.gateService.ProcessGateEvent(c.Request.Context(), *input)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		h.log.Error().Err(err).Str("status", string(input.Status)).Msg("failed to process gate event")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
		return
	}

	status := http.StatusOK
	if result.Accepted && input.Status == model.GateEventCheckIn {
		status = http.StatusCreated
	}
	c.JSON(status, result)
}

// bindGateEvent accepts either a JSON body or a multipart form with an
// optional "snapshot" file. A multipart snapshot is uploaded to object
// storage when configured, and its bytes go to the recognizer when no
// plate text was supplied.
func (h *Handler) bindGateEvent(c *gin.Context) (*service.GateEventInput, error) {
	contentType := c.Request.Header.Get("Content-Type")
	if !strings.Contains(contentType, "multipart/form-data") {
		var req gateEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return h.toGateInput(c, req, nil)
	}

	if err := c.Request.ParseMultipartForm(10 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart payload: %w", err)
	}

	req := gateEventRequest{
		Status:      c.PostForm("status"),
		RawText:     c.PostForm("raw_text"),
		ManualPlate: c.PostForm("manual_plate"),
		Confirmed:   c.PostForm("confirmed") == "true",
	}
	if req.Status == "" {
		return nil, errors.New("status is required")
	}

	var imageBytes []byte
	if fh, err := c.FormFile("snapshot"); err == nil {
		file, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer file.Close()
		imageBytes, err = io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}

		if h.r2 != nil {
			key := fmt.Sprintf("snapshots/%s/%s", time.Now().Format("2006-01-02"), fh.Filename)
			url, err := h.r2.Upload(c.Request.Context(), key, bytes.NewReader(imageBytes), int64(len(imageBytes)), fh.Header.Get("Content-Type"))
			if err != nil {
				h.log.Warn().Err(err).Str("key", key).Msg("snapshot upload failed, continuing without image reference")
			} else {
				req.SnapshotURL = url
			}
		}
	}

	return h.toGateInput(c, req, imageBytes)
}

func (h *Handler) toGateInput(c *gin.Context, req gateEventRequest, image []byte) (*service.GateEventInput, error) {
	status := model.GateEventStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if status != model.GateEventCheckIn && status != model.GateEventCheckOut {
		return nil, fmt.Errorf("status must be %s or %s", model.GateEventCheckIn, model.GateEventCheckOut)
	}

	input := &service.GateEventInput{
		Status:      status,
		RawText:     req.RawText,
		ManualPlate: req.ManualPlate,
		Image:       image,
		SnapshotURL: req.SnapshotURL,
		Confirmed:   req.Confirmed,
		RawPayload:  req.RawPayload,
	}
	if req.EventTime != nil {
		input.EventTime = *req.EventTime
	}
	return input, nil
}

func (h *Handler) registerWhitelist(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok || !principal.IsOperator() {
		c.JSON(http.StatusForbidden, errorResponse("insufficient permissions"))
		return
	}

	var req struct {
		Plate  string `json:"plate" binding:"required"`
		Owner  string `json:"owner" binding:"required"`
		CarImg string `json:"car_img"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	entry, err := h.whitelistService.Register(c.Request.Context(), req.Plate, req.Owner, req.CarImg)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(entry))
}

func (h *Handler) listWhitelist(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok || !principal.IsOperator() {
		c.JSON(http.StatusForbidden, errorResponse("insufficient permissions"))
		return
	}

	entries, err := h.whitelistService.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(entries))
}

func (h *Handler) removeWhitelist(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok || !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, errorResponse("insufficient permissions"))
		return
	}

	plate := strings.TrimSpace(c.Query("plate"))
	if plate == "" {
		c.JSON(http.StatusBadRequest, errorResponse("plate parameter is required"))
		return
	}

	if err := h.whitelistService.Remove(c.Request.Context(), plate); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) bulkImportWhitelist(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok || !principal.IsOperator() {
		c.JSON(http.StatusForbidden, errorResponse("insufficient permissions"))
		return
	}

	var req struct {
		Rows []service.WhitelistRow `json:"rows" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	result, err := h.whitelistService.BulkImport(c.Request.Context(), req.Rows)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) checkAccess(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok || !principal.IsOperator() {
		c.JSON(http.StatusForbidden, errorResponse("insufficient permissions"))
		return
	}

	plate := strings.TrimSpace(c.Query("plate"))
	if plate == "" {
		c.JSON(http.StatusBadRequest, errorResponse("plate parameter is required"))
		return
	}

	result, err := h.whitelistService.CheckAccess(c.Request.Context(), plate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) searchSessions(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok || !principal.IsOperator() {
		c.JSON(http.StatusForbidden, errorResponse("insufficient permissions"))
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, errorResponse("q parameter is required"))
		return
	}

	results, err := h.gateService.Search(c.Request.Context(), query)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(results))
}

func (h *Handler) exportSessions(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid start time, expected RFC3339"))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid end time, expected RFC3339"))
		return
	}

	purge := c.Query("purge") == "true"
	if purge && !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, errorResponse("purge requires admin role"))
		return
	}
	if !principal.IsOperator() {
		c.JSON(http.StatusForbidden, errorResponse("insufficient permissions"))
		return
	}

	result, err := h.exportService.ExportRange(c.Request.Context(), start, end, purge)
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("sessions_%s_%s.xlsx", start.Format("20060102"), end.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("X-Export-Rows", fmt.Sprintf("%d", result.Rows))
	if purge {
		c.Header("X-Purged-Rows", fmt.Sprintf("%d", result.Purged))
	}

	if err := result.Workbook.Write(c.Writer); err != nil {
		h.log.Error().Err(err).Msg("failed to stream export workbook")
	}
}

func (h *Handler) deleteSession(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok || !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, errorResponse("insufficient permissions"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid session id"))
		return
	}

	if err := h.exportService.DeleteSession(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDuplicateWhitelist):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
