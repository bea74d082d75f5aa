package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_Defaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	config := manager.GetConfig()
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "kidney_track", config.Database.Database)
	assert.Equal(t, "postgres", config.Feedback.Driver)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Positive(t, config.Server.RateLimitRPS)
	assert.Positive(t, config.Cache.MemoryMaxItems)
}

func TestManager_Validate(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)
	require.NoError(t, manager.Validate())

	t.Run("Rejects invalid port", func(t *testing.T) {
		manager.config.Server.Port = 0
		assert.Error(t, manager.Validate())
		manager.config.Server.Port = 8080
	})

	t.Run("Rejects unknown feedback driver", func(t *testing.T) {
		manager.config.Feedback.Driver = "mysql"
		assert.Error(t, manager.Validate())
		manager.config.Feedback.Driver = "postgres"
	})

	t.Run("Rejects invalid log level", func(t *testing.T) {
		manager.config.Logging.Level = "verbose"
		assert.Error(t, manager.Validate())
		manager.config.Logging.Level = "info"
	})
}

func TestManager_ConnectionStrings(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	assert.Contains(t, manager.GetDatabaseConnectionString(), "dbname=kidney_track")
	assert.Contains(t, manager.GetDatabaseURL(), "postgres://")
	assert.Contains(t, manager.GetRedisConnectionString(), "redis://")
}
