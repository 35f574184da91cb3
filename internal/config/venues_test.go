package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVenuesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "venues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadVenuesConfig(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		path := writeVenuesFile(t, `
defaults:
  open_hour: 6
  close_hour: 22
venues:
  - id: 1
    name: "Riverside Padel"
    hourly_price: 500
    is_active: true
  - id: 2
    name: "Northside Tennis"
    hourly_price: 350
    open_hour: 8
    close_hour: 20
    is_active: true
`)
		cfg, err := LoadVenuesConfig(path)
		require.NoError(t, err)
		assert.Len(t, cfg.Venues, 2)

		// Defaults applied to the first venue only.
		assert.Equal(t, 6, *cfg.Venues[0].OpenHour)
		assert.Equal(t, 22, *cfg.Venues[0].CloseHour)
		assert.Equal(t, 8, *cfg.Venues[1].OpenHour)
		assert.Equal(t, 20, *cfg.Venues[1].CloseHour)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		path := writeVenuesFile(t, `
venues:
  - {id: 1, name: "A", hourly_price: 100, is_active: true}
  - {id: 1, name: "B", hourly_price: 100, is_active: true}
`)
		_, err := LoadVenuesConfig(path)
		assert.ErrorContains(t, err, "duplicate id")
	})

	t.Run("NegativePrice", func(t *testing.T) {
		path := writeVenuesFile(t, `
venues:
  - {id: 1, name: "A", hourly_price: -5, is_active: true}
`)
		_, err := LoadVenuesConfig(path)
		assert.ErrorContains(t, err, "hourly_price")
	})

	t.Run("HalfWindow", func(t *testing.T) {
		path := writeVenuesFile(t, `
venues:
  - {id: 1, name: "A", hourly_price: 100, open_hour: 9, is_active: true}
`)
		_, err := LoadVenuesConfig(path)
		assert.ErrorContains(t, err, "set together")
	})

	t.Run("ClosedAllDayIsAllowed", func(t *testing.T) {
		path := writeVenuesFile(t, `
venues:
  - {id: 1, name: "A", hourly_price: 100, open_hour: 9, close_hour: 9, is_active: true}
`)
		cfg, err := LoadVenuesConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 9, *cfg.Venues[0].OpenHour)
		assert.Equal(t, 9, *cfg.Venues[0].CloseHour)
	})

	t.Run("Empty", func(t *testing.T) {
		path := writeVenuesFile(t, `venues: []`)
		_, err := LoadVenuesConfig(path)
		assert.ErrorContains(t, err, "no venues")
	})
}

func TestConfigLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: `+filepath.Join(dir, "db", "courtbook.db")+`
booking:
  service_fee_percent: 10
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.10, cfg.ServiceFeeRate())
	assert.DirExists(t, filepath.Join(dir, "db"))
}

func TestServiceFeeRateFallback(t *testing.T) {
	var cfg Config
	assert.Equal(t, 0.10, cfg.ServiceFeeRate())
	cfg.Booking.ServiceFeePercent = 15
	assert.Equal(t, 0.15, cfg.ServiceFeeRate())
}
