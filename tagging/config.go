package tagging

// Config holds the tag selections declared by a computation.
type Config struct {
	// VectorTags names the vectors this computation fills. At least one is
	// required.
	VectorTags []string `json:"vector_tags"`
	// MatrixTags names the matrices this computation fills. At least one is
	// required.
	MatrixTags []string `json:"matrix_tags"`
	// ExtraVectorTags are additional pre-registered vector tag names merged
	// into the active set.
	ExtraVectorTags []string `json:"extra_vector_tags,omitempty"`
	// ExtraMatrixTags are additional pre-registered matrix tag names merged
	// into the active set.
	ExtraMatrixTags []string `json:"extra_matrix_tags,omitempty"`
}

// DefaultConfig returns the standard tag selections: the "nontime" residual
// vector and the "system" Jacobian matrix.
func DefaultConfig() Config {
	return Config{
		VectorTags: []string{"nontime"},
		MatrixTags: []string{"system"},
	}
}

// Normalize returns a copy with omitted (nil) tag selections replaced by
// the defaults. Explicitly empty selections are preserved so they still
// fail construction, matching required-parameter semantics.
func (c Config) Normalize() Config {
	defaults := DefaultConfig()
	if c.VectorTags == nil {
		c.VectorTags = defaults.VectorTags
	}
	if c.MatrixTags == nil {
		c.MatrixTags = defaults.MatrixTags
	}
	return c
}
