// Package render provides image generation backends for accepted phrases.
package render

import (
	"context"
	"errors"
)

// ErrContentRejected is returned when the backend's safety filter blocks a
// phrase. Callers surface it to the submitting player as an invitation to
// rephrase; it is distinct from transport failures.
var ErrContentRejected = errors.New("phrase rejected by the content safety filter")

// Static returns the same image bytes for every phrase. It backs tests and
// runs without a configured backend.
type Static struct {
	Image []byte
}

// Render implements domain.Renderer
func (s Static) Render(_ context.Context, _ string) ([]byte, error) {
	img := make([]byte, len(s.Image))
	copy(img, s.Image)
	return img, nil
}
