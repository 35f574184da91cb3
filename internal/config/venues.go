package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VenueConfig represents a single venue in venues.yaml. The catalog itself
// belongs to an external collaborator; this file is the mirror the engine
// syncs into its own store.
type VenueConfig struct {
	ID          int64   `yaml:"id"`
	Name        string  `yaml:"name"`
	Address     string  `yaml:"address"`
	HourlyPrice float64 `yaml:"hourly_price"`
	OpenHour    *int    `yaml:"open_hour,omitempty"`
	CloseHour   *int    `yaml:"close_hour,omitempty"`
	IsActive    bool    `yaml:"is_active"`
}

// VenueDefaults holds operating hours applied to venues without explicit ones.
type VenueDefaults struct {
	OpenHour  int `yaml:"open_hour"`
	CloseHour int `yaml:"close_hour"`
}

// VenuesConfig is the root configuration for venues.yaml.
type VenuesConfig struct {
	Venues   []VenueConfig `yaml:"venues"`
	Defaults VenueDefaults `yaml:"defaults"`
}

// LoadVenuesConfig loads and validates the venue catalog from a YAML file.
func LoadVenuesConfig(path string) (*VenuesConfig, error) {
	if path == "" {
		path = "configs/venues.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read venues config: %w", err)
	}

	var cfg VenuesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse venues config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate venues config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Validate checks the catalog for errors.
func (c *VenuesConfig) Validate() error {
	if len(c.Venues) == 0 {
		return fmt.Errorf("no venues defined")
	}

	ids := make(map[int64]bool)
	names := make(map[string]bool)

	for i, v := range c.Venues {
		if v.ID <= 0 {
			return fmt.Errorf("venue[%d]: id must be positive, got %d", i, v.ID)
		}
		if ids[v.ID] {
			return fmt.Errorf("venue[%d]: duplicate id %d", i, v.ID)
		}
		ids[v.ID] = true

		if v.Name == "" {
			return fmt.Errorf("venue[%d]: name is required", i)
		}
		if names[v.Name] {
			return fmt.Errorf("venue[%d]: duplicate name '%s'", i, v.Name)
		}
		names[v.Name] = true

		if v.HourlyPrice < 0 {
			return fmt.Errorf("venue[%d]: hourly_price cannot be negative", i)
		}

		if err := validateWindow(v.OpenHour, v.CloseHour, fmt.Sprintf("venue[%d]", i)); err != nil {
			return err
		}
	}

	if c.Defaults.OpenHour < 0 || c.Defaults.OpenHour > 23 {
		return fmt.Errorf("defaults.open_hour must be 0-23, got %d", c.Defaults.OpenHour)
	}
	if c.Defaults.CloseHour < 0 || c.Defaults.CloseHour > 24 {
		return fmt.Errorf("defaults.close_hour must be 0-24, got %d", c.Defaults.CloseHour)
	}

	return nil
}

// validateWindow checks explicitly configured hours. A window with
// open >= close is allowed: it means the venue has no bookable hours.
func validateWindow(open, close *int, prefix string) error {
	if open != nil && (*open < 0 || *open > 23) {
		return fmt.Errorf("%s.open_hour must be 0-23, got %d", prefix, *open)
	}
	if close != nil && (*close < 0 || *close > 24) {
		return fmt.Errorf("%s.close_hour must be 0-24, got %d", prefix, *close)
	}
	if (open == nil) != (close == nil) {
		return fmt.Errorf("%s: open_hour and close_hour must be set together", prefix)
	}
	return nil
}

// applyDefaults fills operating hours for venues without explicit ones.
func (c *VenuesConfig) applyDefaults() {
	for i := range c.Venues {
		if c.Venues[i].OpenHour == nil {
			open := c.Defaults.OpenHour
			c.Venues[i].OpenHour = &open
		}
		if c.Venues[i].CloseHour == nil {
			close := c.Defaults.CloseHour
			c.Venues[i].CloseHour = &close
		}
	}
}

// GetVenueByID returns venue config by ID.
func (c *VenuesConfig) GetVenueByID(id int64) *VenueConfig {
	for i := range c.Venues {
		if c.Venues[i].ID == id {
			return &c.Venues[i]
		}
	}
	return nil
}

// ActiveVenues returns only active venues.
func (c *VenuesConfig) ActiveVenues() []VenueConfig {
	result := make([]VenueConfig, 0)
	for _, v := range c.Venues {
		if v.IsActive {
			result = append(result, v)
		}
	}
	return result
}

// String returns a summary of the catalog.
func (c *VenuesConfig) String() string {
	active := 0
	for _, v := range c.Venues {
		if v.IsActive {
			active++
		}
	}
	return fmt.Sprintf("VenuesConfig: %d venues (%d active)", len(c.Venues), active)
}
