package chat

import (
	"context"
	"io"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

var defaultSafetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockMediumAndAbove},
}

// GeminiEngine implements Engine on the Gemini API.
type GeminiEngine struct {
	client *genai.Client
}

func NewGeminiEngine(ctx context.Context, apiKey string) (*GeminiEngine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiEngine{client: client}, nil
}

func (e *GeminiEngine) Close() error {
	return e.client.Close()
}

func (e *GeminiEngine) Stream(ctx context.Context, prompt Prompt) (Stream, error) {
	model := e.client.GenerativeModel(prompt.Model)
	model.SetTemperature(0.9)
	model.SetTopP(0.95)
	model.SetTopK(40)
	model.SetMaxOutputTokens(8192)
	model.SafetySettings = defaultSafetySettings

	cs := model.StartChat()
	cs.History = make([]*genai.Content, 0, len(prompt.History))
	for _, turn := range prompt.History {
		cs.History = append(cs.History, &genai.Content{
			Role:  turn.Role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}

	parts := []genai.Part{genai.Text(prompt.Message)}
	if prompt.Attachment != nil {
		parts = append(parts, genai.Blob{
			MIMEType: prompt.Attachment.MIMEType,
			Data:     prompt.Attachment.Data,
		})
	}

	return &geminiStream{it: cs.SendMessageStream(ctx, parts...)}, nil
}

func (e *GeminiEngine) Models(ctx context.Context) ([]ModelInfo, error) {
	var models []ModelInfo
	it := e.client.ListModels(ctx)
	for {
		m, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		if !supportsGeneration(m) {
			continue
		}
		models = append(models, ModelInfo{
			Name:        m.Name,
			DisplayName: m.DisplayName,
			Description: m.Description,
		})
	}
	return models, nil
}

func supportsGeneration(m *genai.ModelInfo) bool {
	for _, method := range m.SupportedGenerationMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

type geminiStream struct {
	it *genai.GenerateContentResponseIterator
}

func (s *geminiStream) Next() (Chunk, error) {
	resp, err := s.it.Next()
	if err == iterator.Done {
		return Chunk{}, io.EOF
	}
	if err != nil {
		return Chunk{}, err
	}

	var chunk Chunk
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch p := part.(type) {
			case genai.Text:
				chunk.Text += string(p)
			case genai.Blob:
				if len(p.Data) > 0 {
					chunk.Inline = append(chunk.Inline, InlineBlob{
						MIMEType: p.MIMEType,
						Data:     p.Data,
					})
				}
			}
		}
	}
	return chunk, nil
}

// Close is a no-op; the underlying stream is released by cancelling the
// request context.
func (s *geminiStream) Close() {}
