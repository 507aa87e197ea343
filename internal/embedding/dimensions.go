package embedding

import "fmt"

// maxDimensions is the widest vector each known model can return. All of
// them accept a smaller requested width.
var maxDimensions = map[string]int{
	GeminiPrimaryModel:       768,
	GeminiFallbackModel:      3072,
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
}

// CheckDimensions fails when model cannot produce vectors of width dims.
// Unknown models pass.
func CheckDimensions(model string, dims int) error {
	if dims <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", dims)
	}
	if limit, ok := maxDimensions[model]; ok && dims > limit {
		return fmt.Errorf("model %s returns at most %d dimensions, %d configured", model, limit, dims)
	}
	return nil
}
