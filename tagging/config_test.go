package tagging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []string{"nontime"}, cfg.VectorTags)
	assert.Equal(t, []string{"system"}, cfg.MatrixTags)
	assert.Empty(t, cfg.ExtraVectorTags)
	assert.Empty(t, cfg.ExtraMatrixTags)
}

func TestConfig_Normalize(t *testing.T) {
	// Nil selections fall back to defaults.
	cfg := Config{}.Normalize()
	assert.Equal(t, []string{"nontime"}, cfg.VectorTags)
	assert.Equal(t, []string{"system"}, cfg.MatrixTags)

	// Explicitly empty selections are preserved so construction fails.
	cfg = Config{VectorTags: []string{}, MatrixTags: []string{}}.Normalize()
	assert.NotNil(t, cfg.VectorTags)
	assert.Empty(t, cfg.VectorTags)
	assert.Empty(t, cfg.MatrixTags)

	// Populated selections pass through untouched.
	cfg = Config{VectorTags: []string{"time"}, MatrixTags: []string{"nontime"}}.Normalize()
	assert.Equal(t, []string{"time"}, cfg.VectorTags)
	assert.Equal(t, []string{"nontime"}, cfg.MatrixTags)
}
