package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "booking.events", cfg.AMQP.Queue)
	assert.Equal(t, 30, cfg.Booking.OnlineSharePct)
	assert.Equal(t, 72*time.Hour, cfg.Booking.RefundWindow)
	assert.Equal(t, 10*time.Minute, cfg.Booking.OTPTTL)
	assert.Equal(t, 5*time.Minute, cfg.Pricing.CacheTTL)
	assert.False(t, cfg.Booking.RequireStartOTP)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SAWARI_HTTP_ADDR", ":9090")
	t.Setenv("SAWARI_HTTP_CORS_ORIGINS", "https://app.example.in, https://admin.example.in")
	t.Setenv("SAWARI_BOOKING_START_OTP", "true")
	t.Setenv("SAWARI_BOOKING_REFUND_WINDOW", "48h")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, []string{"https://app.example.in", "https://admin.example.in"}, cfg.HTTP.CORSOrigins)
	assert.True(t, cfg.Booking.RequireStartOTP)
	assert.Equal(t, 48*time.Hour, cfg.Booking.RefundWindow)
}

func TestLoadDotenvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SAWARI_MAPS_API_KEY=maps-key\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SAWARI_MAPS_API_KEY") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "maps-key", cfg.Maps.APIKey)
}

func TestLoadRejectsBadShare(t *testing.T) {
	t.Setenv("SAWARI_BOOKING_ONLINE_SHARE_PCT", "100")
	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	assert.Error(t, err)
}
