package port

import "context"

// InferInput carries one page image and the extraction instruction.
type InferInput struct {
	ImageBytes  []byte
	ContentType string
	Prompt      string
	MaxTokens   int
}

// InferOutput contains the model's raw tag text for one page.
type InferOutput struct {
	TagText   string
	ModelUsed string
}

// PageInference abstracts the visual-language model. Implementations call an
// externally hosted model and return its DocTags output verbatim.
type PageInference interface {
	Infer(ctx context.Context, input InferInput) (*InferOutput, error)
}
