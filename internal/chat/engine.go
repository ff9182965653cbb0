package chat

import "context"

// Chunk is one increment of a streamed model response: at most one text
// delta plus any inline binary parts the model emitted alongside it.
type Chunk struct {
	Text   string
	Inline []InlineBlob
}

// InlineBlob is a binary payload (image bytes) embedded in a chunk.
type InlineBlob struct {
	MIMEType string
	Data     []byte
}

// Stream is a lazy, finite, non-restartable chunk sequence. Next returns
// io.EOF when the sequence is exhausted; any other error is terminal.
type Stream interface {
	Next() (Chunk, error)
	Close()
}

type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Engine is the generative backend. Implementations may fail at any point
// during a stream; the failure surfaces once, through Next.
type Engine interface {
	Stream(ctx context.Context, prompt Prompt) (Stream, error)
	Models(ctx context.Context) ([]ModelInfo, error)
}
