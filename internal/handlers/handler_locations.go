package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/stackpos/tipengine/internal/apperrors"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
	"github.com/stackpos/tipengine/internal/platform/config"
)

// locationHandler handles HTTP requests related to restaurant locations.
type locationHandler struct {
	locationService portssvc.LocationSvcFacade
}

// newLocationHandler creates a new locationHandler.
func newLocationHandler(ls portssvc.LocationSvcFacade) *locationHandler {
	return &locationHandler{locationService: ls}
}

// registerOnboardingRoutes registers location creation. It happens before
// any user exists at the new location, so the route sits outside the
// authenticated group. The bootstrap flow is create location, register the
// first manager, then log in.
func registerOnboardingRoutes(r *gin.Engine, cfg *config.Config, locationService portssvc.LocationSvcFacade) {
	h := newLocationHandler(locationService)

	rate, err := limiter.NewRateFromFormatted(cfg.AuthRateLimit)
	if err != nil {
		rate, _ = limiter.NewRateFromFormatted("20-M")
	}
	ipLimiter := limiter.New(memory.NewStore(), rate)

	r.POST("/api/v1/locations", middleware.GinMiddlewarize(ipLimiter), h.createLocation)
}

// registerLocationRoutes registers the authenticated location routes.
func registerLocationRoutes(v1 *gin.RouterGroup, loc *gin.RouterGroup, locationService portssvc.LocationSvcFacade) {
	h := newLocationHandler(locationService)

	v1.GET("/locations", h.listLocations)
	loc.GET("", h.getLocation)
}

// createLocation godoc
// @Summary Create a new location
// @Description Registers a restaurant location and provisions its house account.
// @Tags locations
// @Accept  json
// @Produce  json
// @Param   location body dto.CreateLocationRequest true "Location details"
// @Success 201 {object} dto.LocationResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Failed to create location"
// @Router /locations [post]
func (h *locationHandler) createLocation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateLocation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	// The route is open during onboarding, so there may be no caller identity.
	creatorUserID, _ := middleware.GetUserIDFromContext(c)

	newLocation, err := h.locationService.CreateLocation(c.Request.Context(), req, creatorUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to create location in service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create location"})
		return
	}

	logger.Info("Location created successfully", slog.String("location_id", newLocation.LocationID))
	c.JSON(http.StatusCreated, dto.ToLocationResponse(newLocation))
}

// listLocations godoc
// @Summary List locations
// @Description Retrieves registered locations, newest first.
// @Tags locations
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Page offset" default(0)
// @Success 200 {array} dto.LocationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list locations"
// @Security BearerAuth
// @Router /locations [get]
func (h *locationHandler) listLocations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	locations, err := h.locationService.ListLocations(c.Request.Context(), limit, offset)
	if err != nil {
		logger.Error("Failed to list locations from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list locations"})
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationResponses(locations))
}

// getLocation godoc
// @Summary Get a location
// @Description Retrieves a single location by ID.
// @Tags locations
// @Produce  json
// @Param   locationID path string true "Location ID"
// @Success 200 {object} dto.LocationResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Location not found"
// @Security BearerAuth
// @Router /locations/{locationID} [get]
func (h *locationHandler) getLocation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	locationID := c.Param("locationID")

	location, err := h.locationService.GetLocationByID(c.Request.Context(), locationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Location not found"})
			return
		}
		logger.Error("Failed to get location from service", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get location"})
		return
	}

	c.JSON(http.StatusOK, dto.ToLocationResponse(location))
}
