package logger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutSentry(t *testing.T) {
	l, err := New(Config{Debug: true, Service: "landregistry"})
	require.NoError(t, err)
	assert.Nil(t, l.sentry)
	assert.True(t, l.Core().Enabled(-1), "debug level enabled in debug mode")
	l.Close(time.Millisecond)
}

func TestNewProductionLevel(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1), "debug disabled outside debug mode")
}

func TestNewRejectsMalformedDSN(t *testing.T) {
	_, err := New(Config{SentryDSN: "::not-a-dsn"})
	assert.Error(t, err)
}
