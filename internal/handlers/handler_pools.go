package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stackpos/tipengine/internal/apperrors"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
)

// poolHandler handles HTTP requests related to tip pools and their
// membership timeline.
type poolHandler struct {
	poolService portssvc.PoolSvcFacade
}

// newPoolHandler creates a new poolHandler.
func newPoolHandler(ps portssvc.PoolSvcFacade) *poolHandler {
	return &poolHandler{poolService: ps}
}

// registerPoolRoutes registers pool routes. Reads are open to every location
// member; membership and lifecycle changes are manager actions.
func registerPoolRoutes(rg *gin.RouterGroup, poolService portssvc.PoolSvcFacade) {
	h := newPoolHandler(poolService)

	pools := rg.Group("/pools")
	{
		pools.GET("", h.listPools)
		pools.GET("/:poolID", h.getPool)
		pools.GET("/:poolID/segments", h.listSegments)
		pools.GET("/:poolID/segment", h.getSegmentAt)
	}

	manager := rg.Group("/pools", middleware.RequireManager())
	{
		manager.POST("", h.createPool)
		manager.POST("/:poolID/members", h.joinPool)
		manager.DELETE("/:poolID/members/:employeeID", h.leavePool)
		manager.POST("/:poolID/end", h.endPool)
	}
}

// parseAtQuery reads the optional ?at= timestamp, defaulting to now.
func parseAtQuery(c *gin.Context) (time.Time, bool) {
	raw := c.Query("at")
	if raw == "" {
		return time.Now().UTC(), true
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// createPool godoc
// @Summary Create a tip pool
// @Description Opens a new tip pool at the location. The pool starts with no members; tips attributed to an empty segment fall back per configuration.
// @Tags pools
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   pool body dto.CreatePoolRequest true "Pool details"
// @Success 201 {object} dto.PoolResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /locations/{locationID}/pools [post]
func (h *poolHandler) createPool(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var req dto.CreatePoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreatePool", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	pool, err := h.poolService.CreatePool(c.Request.Context(), locationID, req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to create pool", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create pool"})
		return
	}

	logger.Info("Pool created", slog.String("pool_id", pool.PoolID), slog.String("name", pool.Name))
	c.JSON(http.StatusCreated, dto.ToPoolResponse(pool))
}

// listPools godoc
// @Summary List tip pools
// @Description Retrieves a page of the location's pools, newest first.
// @Tags pools
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListPoolsResponse
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Security BearerAuth
// @Router /locations/{locationID}/pools [get]
func (h *poolHandler) listPools(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	var params dto.ListPoolsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.poolService.ListPools(c.Request.Context(), locationID, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list pools", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pools"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getPool godoc
// @Summary Get a tip pool
// @Description Retrieves a single pool by ID.
// @Tags pools
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   poolID path string true "Pool ID"
// @Success 200 {object} dto.PoolResponse
// @Failure 404 {object} map[string]string "Pool not found"
// @Security BearerAuth
// @Router /locations/{locationID}/pools/{poolID} [get]
func (h *poolHandler) getPool(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	poolID := c.Param("poolID")

	pool, err := h.poolService.GetPoolByID(c.Request.Context(), locationID, poolID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
			return
		}
		logger.Error("Failed to get pool", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get pool"})
		return
	}

	c.JSON(http.StatusOK, dto.ToPoolResponse(pool))
}

// listSegments godoc
// @Summary List a pool's segments
// @Description Retrieves the pool's full membership timeline, oldest first. Each segment is an interval of constant membership with the frozen split ratios.
// @Tags pools
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   poolID path string true "Pool ID"
// @Success 200 {array} dto.SegmentResponse
// @Failure 404 {object} map[string]string "Pool not found"
// @Security BearerAuth
// @Router /locations/{locationID}/pools/{poolID}/segments [get]
func (h *poolHandler) listSegments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	poolID := c.Param("poolID")

	segments, err := h.poolService.ListSegments(c.Request.Context(), locationID, poolID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
			return
		}
		logger.Error("Failed to list segments", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list segments"})
		return
	}

	c.JSON(http.StatusOK, dto.ToSegmentResponses(segments))
}

// getSegmentAt godoc
// @Summary Get the segment covering a point in time
// @Description Retrieves the pool segment that covers the given instant, defaulting to now. This is the segment a tip collected at that instant would split by.
// @Tags pools
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   poolID path string true "Pool ID"
// @Param   at query string false "Instant to resolve (RFC3339), defaults to now"
// @Success 200 {object} dto.SegmentResponse
// @Failure 400 {object} map[string]string "Invalid timestamp"
// @Failure 404 {object} map[string]string "No segment covers that instant"
// @Security BearerAuth
// @Router /locations/{locationID}/pools/{poolID}/segment [get]
func (h *poolHandler) getSegmentAt(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	poolID := c.Param("poolID")

	at, ok := parseAtQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid at timestamp, expected RFC3339"})
		return
	}

	segment, err := h.poolService.SegmentAt(c.Request.Context(), locationID, poolID, at)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No segment covers that instant"})
			return
		}
		logger.Error("Failed to resolve segment", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve segment"})
		return
	}

	c.JSON(http.StatusOK, dto.ToSegmentResponse(segment))
}

// joinPool godoc
// @Summary Add an employee to a pool
// @Description Closes the current segment and opens a new one including the employee. Weight is only honoured for WEIGHTED pools.
// @Tags pools
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   poolID path string true "Pool ID"
// @Param   member body dto.JoinPoolRequest true "Member details"
// @Success 201 {object} dto.SegmentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Pool or employee not found"
// @Failure 409 {object} map[string]string "Already a member or pool closed"
// @Security BearerAuth
// @Router /locations/{locationID}/pools/{poolID}/members [post]
func (h *poolHandler) joinPool(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	poolID := c.Param("poolID")

	var req dto.JoinPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for JoinPool", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	segment, err := h.poolService.JoinPool(c.Request.Context(), locationID, poolID, req, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to join pool", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to join pool"})
		}
		return
	}

	logger.Info("Employee joined pool", slog.String("pool_id", poolID), slog.String("employee_id", req.EmployeeID))
	c.JSON(http.StatusCreated, dto.ToSegmentResponse(segment))
}

// leavePool godoc
// @Summary Remove an employee from a pool
// @Description Closes the current segment and opens a new one without the employee.
// @Tags pools
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   poolID path string true "Pool ID"
// @Param   employeeID path string true "Employee ID"
// @Param   at query string false "Departure instant (RFC3339), defaults to now"
// @Success 200 {object} dto.SegmentResponse
// @Failure 400 {object} map[string]string "Invalid timestamp"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Not an open member of this pool"
// @Security BearerAuth
// @Router /locations/{locationID}/pools/{poolID}/members/{employeeID} [delete]
func (h *poolHandler) leavePool(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	poolID := c.Param("poolID")

	at, ok := parseAtQuery(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid at timestamp, expected RFC3339"})
		return
	}
	req := dto.LeavePoolRequest{
		EmployeeID: c.Param("employeeID"),
		At:         &at,
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	segment, err := h.poolService.LeavePool(c.Request.Context(), locationID, poolID, req, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to leave pool", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to leave pool"})
		}
		return
	}

	logger.Info("Employee left pool", slog.String("pool_id", poolID), slog.String("employee_id", req.EmployeeID))
	c.JSON(http.StatusOK, dto.ToSegmentResponse(segment))
}

// endPool godoc
// @Summary End a tip pool
// @Description Closes the pool and its last segment. Tips collected after the end instant no longer attribute to it.
// @Tags pools
// @Accept  json
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Param   poolID path string true "Pool ID"
// @Param   end body dto.EndPoolRequest false "End instant"
// @Success 200 {object} dto.PoolResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Pool not found"
// @Failure 409 {object} map[string]string "Pool already closed"
// @Security BearerAuth
// @Router /locations/{locationID}/pools/{poolID}/end [post]
func (h *poolHandler) endPool(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")
	poolID := c.Param("poolID")

	// The body is optional; an absent body ends the pool now.
	var req dto.EndPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requestingUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	pool, err := h.poolService.EndPool(c.Request.Context(), locationID, poolID, req, requestingUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Pool not found"})
		case errors.Is(err, apperrors.ErrConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, apperrors.ErrBusy):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Temporarily busy, please retry"})
		default:
			logger.Error("Failed to end pool", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to end pool"})
		}
		return
	}

	logger.Info("Pool ended", slog.String("pool_id", poolID))
	c.JSON(http.StatusOK, dto.ToPoolResponse(pool))
}
