package sessionmiddleware

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogrusLogger(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.InfoLevel)
	logger := NewLogrusLogger(base)

	logger.Debug("hidden", "k", "v")
	assert.Empty(t, hook.AllEntries(), "debug is below the configured level")

	logger.Warn("session verification failed", "outcome", "rejected", "error", errors.New("token rejected"))
	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "session verification failed", entry.Message)
	assert.Equal(t, logrus.Fields{"outcome": "rejected", "error": "token rejected"}, entry.Data)

	logger.Info("odd args", "lonely")
	assert.Equal(t, logrus.Fields{"!BADKEY": "lonely"}, hook.LastEntry().Data)

	logger.Error("no args")
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Empty(t, hook.LastEntry().Data)
}
