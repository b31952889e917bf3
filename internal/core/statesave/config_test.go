package statesave

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		cfg, err := LoadYAML(strings.NewReader("float_tolerance: 0.001\n"))
		require.NoError(t, err)
		require.Equal(t, 0.001, cfg.FloatTolerance)
	})

	t.Run("json", func(t *testing.T) {
		cfg, err := LoadJSON(strings.NewReader(`{"float_tolerance": 0.5}`))
		require.NoError(t, err)
		require.Equal(t, 0.5, cfg.FloatTolerance)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		cfg, err := LoadJSON(strings.NewReader(`{}`))
		require.NoError(t, err)
		require.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("negative tolerance rejected", func(t *testing.T) {
		_, err := LoadYAML(strings.NewReader("float_tolerance: -1\n"))
		require.Error(t, err)
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := LoadJSON(strings.NewReader(`{"float_tolerance":`))
		require.Error(t, err)
	})
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.Error(t, Config{FloatTolerance: -0.1}.Validate())
}
