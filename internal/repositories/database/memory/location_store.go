package memory

import (
	"context"
	"sort"

	"github.com/stackpos/tipengine/internal/apperrors"
	"github.com/stackpos/tipengine/internal/core/domain"
)

// SaveLocation persists a new location.
func (s *Store) SaveLocation(_ context.Context, location domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.locations[location.LocationID] = location
	return nil
}

// UpdateLocation updates an existing location's details.
func (s *Store) UpdateLocation(_ context.Context, location domain.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.locations[location.LocationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	cur.Name = location.Name
	cur.Timezone = location.Timezone
	cur.CurrencyCode = location.CurrencyCode
	cur.IsActive = location.IsActive
	cur.LastUpdatedAt = location.LastUpdatedAt
	cur.LastUpdatedBy = location.LastUpdatedBy
	s.locations[location.LocationID] = cur
	return nil
}

// FindLocationByID retrieves a location by its unique identifier.
func (s *Store) FindLocationByID(_ context.Context, locationID string) (*domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	location, ok := s.locations[locationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &location, nil
}

// ListLocations retrieves a paginated list of locations, newest first.
func (s *Store) ListLocations(_ context.Context, limit int, offset int) ([]domain.Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locations := []domain.Location{}
	for _, location := range s.locations {
		locations = append(locations, location)
	}
	sort.Slice(locations, func(i, j int) bool {
		if !locations[i].CreatedAt.Equal(locations[j].CreatedAt) {
			return locations[i].CreatedAt.After(locations[j].CreatedAt)
		}
		return locations[i].LocationID > locations[j].LocationID
	})
	return pageSlice(locations, limit, offset), nil
}

// pageSlice applies LIMIT/OFFSET semantics to an already sorted slice.
func pageSlice[T any](items []T, limit int, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
