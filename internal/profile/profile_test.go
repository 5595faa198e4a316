package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
defaults:
  id_col: id
  lat_col: latitude
  lon_col: longitude
  value_col: value
  polygon_id_key: GEOID
  k_neighbors: 8

profiles:
  crime:
    value_col: incident_count
    k_neighbors: 12
  census:
    id_col: block_id
    lat_col: intptlat
    lon_col: intptlon
    value_col: median_income
    polygon_id_key: TRACTCE
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixtureYAML), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFixture(t))
	require.NoError(t, err)

	crime, err := cfg.Get("crime")
	require.NoError(t, err)
	assert.Equal(t, "incident_count", crime.ValueCol)
	assert.Equal(t, 12, crime.KNeighbors)
	assert.Equal(t, "id", crime.IDCol, "unset fields fall back to defaults")
	assert.Equal(t, "latitude", crime.LatCol)
	assert.Equal(t, "GEOID", crime.PolygonIDKey)

	census, err := cfg.Get("census")
	require.NoError(t, err)
	assert.Equal(t, "block_id", census.IDCol)
	assert.Equal(t, "TRACTCE", census.PolygonIDKey)
	assert.Equal(t, 8, census.KNeighbors, "k falls back to defaults")
}

func TestGet_EmptyNameIsDefaults(t *testing.T) {
	cfg, err := Load(writeFixture(t))
	require.NoError(t, err)

	p, err := cfg.Get("")
	require.NoError(t, err)
	assert.Equal(t, cfg.Defaults, p)
}

func TestGet_UnknownProfile(t *testing.T) {
	cfg, err := Load(writeFixture(t))
	require.NoError(t, err)

	_, err = cfg.Get("tornado")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown profile "tornado"`)
	assert.Contains(t, err.Error(), "census, crime")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profile: read")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("profiles: [\n"), 0o644))
		_, err := Load(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profile: parse")
	})
}
