package corpus

import "context"

// TransformRequest is the input to a Transformer.
type TransformRequest struct {
	// Title is the record's title, if the dataset has one. Optional.
	Title string
	// Text is the normalized extracted content.
	Text string
}

// Transformer derives new text from extracted content, e.g. a translation.
// Implementations must be safe for concurrent use.
type Transformer interface {
	// Transform returns the derived text for req.
	// Returns EINVALID if req.Text is empty.
	Transform(ctx context.Context, req TransformRequest) (string, error)
}
