package internal

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	unsetenv(t, "PORT", "CORS_ORIGINS", "TYPING_QUIET_PERIOD")

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal(4000, config.Port)
	req.Equal(time.Second, config.TypingQuietPeriod)
	req.Equal([]string{"*"}, config.Origins())
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://chat.example.com")
	t.Setenv("TYPING_QUIET_PERIOD", "2s")

	config, err := LoadConfig()

	req.NoError(err)
	req.Equal("0.0.0.0:9000", config.HTTPAddress())
	req.Equal(2*time.Second, config.TypingQuietPeriod)
	req.Equal([]string{"http://localhost:3000", "https://chat.example.com"}, config.Origins())
}

func TestConfig_Validate_RejectsEmptyBuffers(t *testing.T) {
	config := Config{BufferSize: 0, ConnectionBufferSize: 1, TypingQuietPeriod: time.Second}
	require.Error(t, config.Validate())
}

// unsetenv removes variables for the duration of the test.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}
