package embedding

import (
	"fmt"

	"github.com/akolanti/pdfqa/internal/domain/commonModels"
)

// CheckVectors rejects malformed backend output: wrong count, empty or ragged vectors.
func CheckVectors(vectors [][]float32, want int) error {
	if len(vectors) != want {
		return fmt.Errorf("%w: expected %d vectors, got %d", commonModels.ErrEmbeddingService, want, len(vectors))
	}
	dimension := -1
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: empty vector at position %d", commonModels.ErrEmbeddingService, i)
		}
		if dimension == -1 {
			dimension = len(v)
		} else if len(v) != dimension {
			return fmt.Errorf("%w: vector %d has dimension %d, expected %d", commonModels.ErrEmbeddingService, i, len(v), dimension)
		}
	}
	return nil
}
