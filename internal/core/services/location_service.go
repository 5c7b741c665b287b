package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
	portsrepo "github.com/stackpos/tipengine/internal/core/ports/repositories"
	portssvc "github.com/stackpos/tipengine/internal/core/ports/services"
	"github.com/stackpos/tipengine/internal/dto"
	"github.com/stackpos/tipengine/internal/middleware"
)

// locationService manages restaurant locations. Creating one also provisions
// the house account that absorbs unattributable tips.
type locationService struct {
	locationRepo portsrepo.LocationRepositoryFacade
	ledgerSvc    portssvc.LedgerWriterSvc
}

// NewLocationService creates a new LocationService.
func NewLocationService(locationRepo portsrepo.LocationRepositoryFacade, ledgerSvc portssvc.LedgerWriterSvc) portssvc.LocationSvcFacade {
	return &locationService{locationRepo: locationRepo, ledgerSvc: ledgerSvc}
}

// Ensure locationService implements the portssvc.LocationSvcFacade interface
var _ portssvc.LocationSvcFacade = (*locationService)(nil)

// CreateLocation registers a location and provisions its house account.
// Implements portssvc.LocationSvcFacade
func (s *locationService) CreateLocation(ctx context.Context, req dto.CreateLocationRequest, creatorUserID string) (*domain.Location, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %s", apperrors.ErrValidation, req.Timezone)
	}

	now := time.Now().UTC()
	location := domain.Location{
		LocationID:   uuid.NewString(),
		Name:         req.Name,
		Timezone:     req.Timezone,
		CurrencyCode: strings.ToUpper(req.CurrencyCode),
		IsActive:     true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.locationRepo.SaveLocation(ctx, location); err != nil {
		logger.Error("Failed to save location", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save location: %w", err)
	}
	if _, err := s.ledgerSvc.EnsureHouseAccount(ctx, location.LocationID, creatorUserID); err != nil {
		return nil, fmt.Errorf("failed to provision house account: %w", err)
	}

	logger.Info("Location created", slog.String("location_id", location.LocationID), slog.String("name", location.Name))
	return &location, nil
}

// GetLocationByID retrieves a location by its ID.
// Implements portssvc.LocationSvcFacade
func (s *locationService) GetLocationByID(ctx context.Context, locationID string) (*domain.Location, error) {
	location, err := s.locationRepo.FindLocationByID(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("failed to find location: %w", err)
	}
	return location, nil
}

// ListLocations retrieves a paginated list of locations.
// Implements portssvc.LocationSvcFacade
func (s *locationService) ListLocations(ctx context.Context, limit int, offset int) ([]domain.Location, error) {
	locations, err := s.locationRepo.ListLocations(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}
