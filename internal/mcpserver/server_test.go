package mcpserver

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidney-health-score-server/internal/domain"
)

func testConfig(t *testing.T) *domain.Config {
	t.Helper()
	return &domain.Config{
		Cache: domain.CacheConfig{MemoryMaxItems: 16},
		Feedback: domain.FeedbackConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "feedback.db"),
		},
	}
}

func TestNewServer(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	server, err := NewServer(testConfig(t), logger)
	require.NoError(t, err)
	defer server.Close()

	assert.NotNil(t, server.mcpServer)
	assert.NotNil(t, server.metrics)
	assert.NotNil(t, server.feedbackStore)
}

func TestJSONResult(t *testing.T) {
	result, err := jsonResult(map[string]string{"stage": "G2"})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"G2"`)
	assert.False(t, result.IsError)
}

func TestErrorResult(t *testing.T) {
	result := errorResult(errors.New("bad input"))
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)

	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "bad input", text.Text)
}
