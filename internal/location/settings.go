// Package location holds per-location scheduling settings: the IANA timezone
// used to anchor working-hours rules, and the slot granularity offered to
// customers. Settings are stored in Redis keyed by location id so operators
// can change them without a deploy.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Settings drives availability computation for one location.
type Settings struct {
	LocationID             string `json:"location_id"`
	Timezone               string `json:"timezone"`
	SlotGranularityMinutes int    `json:"slot_granularity_minutes"`
}

// DefaultSettings returns the settings used when nothing is stored yet.
func DefaultSettings(locationID string) *Settings {
	return &Settings{
		LocationID:             locationID,
		Timezone:               "UTC",
		SlotGranularityMinutes: 15,
	}
}

// Granularity returns the slot step as a duration, never zero.
func (s *Settings) Granularity() time.Duration {
	if s.SlotGranularityMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.SlotGranularityMinutes) * time.Minute
}

// Location resolves the configured IANA timezone, falling back to UTC when
// unset or unparseable.
func (s *Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate rejects settings that would break slot generation.
func (s *Settings) Validate() error {
	if s.SlotGranularityMinutes < 0 || s.SlotGranularityMinutes > 24*60 {
		return fmt.Errorf("location: slot granularity %d out of range", s.SlotGranularityMinutes)
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("location: unknown timezone %q", s.Timezone)
		}
	}
	return nil
}

// Store persists location settings in Redis.
type Store struct {
	redis *redis.Client
}

// NewStore creates a settings store over the given Redis client.
func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) key(locationID string) string {
	return "location:settings:" + locationID
}

// Get loads settings for a location, returning defaults when absent.
func (s *Store) Get(ctx context.Context, locationID uuid.UUID) (*Settings, error) {
	data, err := s.redis.Get(ctx, s.key(locationID.String())).Bytes()
	if err == redis.Nil {
		return DefaultSettings(locationID.String()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("location: load settings: %w", err)
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("location: decode settings: %w", err)
	}
	if settings.LocationID == "" {
		settings.LocationID = locationID.String()
	}
	return &settings, nil
}

// Set stores settings for a location.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("location: encode settings: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(settings.LocationID), data, 0).Err(); err != nil {
		return fmt.Errorf("location: save settings: %w", err)
	}
	return nil
}
