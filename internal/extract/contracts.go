package extract

import (
	"context"
	"fmt"
)

// Image is an uploaded photo of ingredients.
type Image struct {
	Name      string
	MediaType string
	Data      []byte
}

// Request is one extraction: the photo plus optional extra instructions for the model.
type Request struct {
	Prompt string
	Image  Image
}

// Converter prepares the photo in the container the agent should receive.
type Converter interface {
	Convert(ctx context.Context, img Image) (Image, error)
}

// ExhaustedError is returned once every attempt has failed. Err is the last cause.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("ingredient extraction failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}
