package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm16kit/internal/config"
)

func TestDefaultGiveAllRangeAddrs(t *testing.T) {
	addrs := config.Default().GiveAllRange.Addrs()
	require.NotEmpty(t, addrs)
	assert.Equal(t, uint16(2670), addrs[0])
	assert.Equal(t, uint16(2734), addrs[len(addrs)-1])
	for i := 1; i < len(addrs); i++ {
		assert.Equal(t, uint16(4), addrs[i]-addrs[i-1])
	}
}

func TestDefaultReflectionPairsIncludesExtendedVariant(t *testing.T) {
	pairs := config.Default().Pairs()
	assert.Equal(t, 'b', pairs['d'])
	assert.Equal(t, 'd', pairs['b'])
	assert.Equal(t, '5', pairs['2'])
	assert.Equal(t, '2', pairs['5'])
}

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesOnlySpecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vm16.toml")
	require.NoError(t, os.WriteFile(path, []byte(`binary_path = "custom.bin"`+"\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom.bin", cfg.BinaryPath)
	assert.Equal(t, config.Default().GiveAllRange, cfg.GiveAllRange, "unspecified fields keep their defaults")
}

func TestOpeningPathDefault(t *testing.T) {
	assert.Equal(t, []string{"doorway", "north", "north"}, config.Default().OpeningPath)
}
