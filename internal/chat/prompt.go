package chat

import (
	"encoding/base64"
	"strings"

	"github.com/cortexai/cortex-backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// imageInstruction is prepended when an image-capable model is asked for an
// image. It steers the engine toward emitting image bytes instead of prose.
// It is never persisted into conversation history.
const imageInstruction = "You are an AI with native image generation capabilities. " +
	"When the user asks you to generate, create, or make an image, you must DIRECTLY " +
	"generate and output the image - do not describe it or return JSON. The image " +
	"will be automatically displayed to the user."

var imageKeywords = []string{"generate", "create", "make", "draw", "image", "picture", "photo"}

// Prompt is the fully assembled input for one engine call.
type Prompt struct {
	Model string

	// History in stored order, oldest first.
	History []domain.Turn

	// Message is the combined instruction block and new user text.
	Message string

	// Attachment is an optional user-supplied image sent alongside Message.
	Attachment *InlineBlob
}

// ImageCapable reports whether the model can emit image bytes, going by the
// naming convention on the model identifier.
func ImageCapable(model string) bool {
	return strings.Contains(strings.ToLower(model), "image-generation")
}

// WantsImage is a best-effort keyword heuristic for image intent. It is a
// deliberate approximation: a fixed trigger list, nothing more.
func WantsImage(model, text string) bool {
	if !ImageCapable(model) {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range imageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// BuildPrompt assembles the threaded prompt for the engine: stored history,
// the optional system prompt merged into the new user text, the synthetic
// image instruction when the heuristic fires, and the decoded attachment.
// An undecodable attachment degrades to a text-only prompt.
func BuildPrompt(history []domain.Turn, systemPrompt, userText, attachment, model string) Prompt {
	parts := make([]string, 0, 3)
	if WantsImage(model, userText) {
		parts = append(parts, imageInstruction)
	}
	if systemPrompt != "" {
		parts = append(parts, systemPrompt)
	}
	parts = append(parts, userText)

	p := Prompt{
		Model:   model,
		History: history,
		Message: strings.Join(parts, "\n\n"),
	}

	if attachment != "" {
		if blob, err := decodeAttachment(attachment); err != nil {
			log.Warn().Err(err).Msg("failed to decode attached image, sending text only")
		} else {
			p.Attachment = blob
		}
	}

	return p
}

// decodeAttachment accepts raw base64 or a data URL.
func decodeAttachment(attachment string) (*InlineBlob, error) {
	mimeType := "image/png"
	data := attachment
	if idx := strings.Index(attachment, ","); idx >= 0 {
		header := attachment[:idx]
		data = attachment[idx+1:]
		if strings.HasPrefix(header, "data:") {
			if semi := strings.Index(header, ";"); semi > 5 {
				mimeType = header[5:semi]
			}
		}
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}
	return &InlineBlob{MIMEType: mimeType, Data: raw}, nil
}
