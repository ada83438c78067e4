package redis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"neurowatch/internal/platform/config"
)

func TestNewWithoutURLIsDisabled(t *testing.T) {
	client, err := New(t.Context(), config.RedisConfig{})
	require.NoError(t, err)
	require.Nil(t, client)
}

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := New(t.Context(), config.RedisConfig{URL: "http://not-redis"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse redis URL")
}
