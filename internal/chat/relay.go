package chat

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/cortexai/cortex-backend/internal/conversation"
	"github.com/cortexai/cortex-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event is one message of the client-facing stream protocol.
type Event struct {
	Type           string   `json:"type"`
	ConversationID string   `json:"conversation_id,omitempty"`
	Content        string   `json:"content,omitempty"`
	Image          string   `json:"image,omitempty"`
	FullResponse   string   `json:"full_response,omitempty"`
	Images         []string `json:"images,omitempty"`
	Error          string   `json:"error,omitempty"`
}

const (
	EventStart   = "start"
	EventContent = "content"
	EventImage   = "image"
	EventEnd     = "end"
	EventError   = "error"
)

// EventSink receives relay events in generation order. A Send error means
// the client is gone; the relay stops consuming the engine stream.
type EventSink interface {
	Send(Event) error
}

type SendInput struct {
	Message        string
	ConversationID string
	SystemPrompt   string
	Model          string
	Image          string // base64 or data-URL encoded attachment
}

type Result struct {
	ConversationID string
	FullResponse   string
	Images         []string
}

// Service drives completion calls against the engine and commits the
// resulting turns into the conversation store.
type Service struct {
	engine       Engine
	store        *conversation.Store
	defaultModel string
}

func NewService(engine Engine, store *conversation.Store, defaultModel string) *Service {
	return &Service{
		engine:       engine,
		store:        store,
		defaultModel: defaultModel,
	}
}

func (s *Service) DefaultModel() string {
	return s.defaultModel
}

func (s *Service) Models(ctx context.Context) ([]ModelInfo, error) {
	return s.engine.Models(ctx)
}

// Send runs a complete exchange and returns the final response in one piece.
func (s *Service) Send(ctx context.Context, userID uuid.UUID, in SendInput) (*Result, error) {
	return s.relay(ctx, userID, in, discardSink{})
}

// StreamTo runs a complete exchange, forwarding every event to sink as it is
// produced. On engine failure the terminal error event has already been sent
// when StreamTo returns.
func (s *Service) StreamTo(ctx context.Context, userID uuid.UUID, in SendInput, sink EventSink) (*Result, error) {
	return s.relay(ctx, userID, in, sink)
}

// relay is the streaming state machine. The user turn is committed before
// the engine is called, so history always reflects the question regardless
// of outcome; the model turn is committed exactly once, only on success.
func (s *Service) relay(ctx context.Context, userID uuid.UUID, in SendInput, sink EventSink) (*Result, error) {
	model := in.Model
	if model == "" {
		model = s.defaultModel
	}
	conversationID := in.ConversationID
	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	history := s.store.History(userID, conversationID)
	prompt := BuildPrompt(history, in.SystemPrompt, in.Message, in.Image, model)

	if _, err := s.store.AppendTurn(userID, conversationID, domain.RoleUser, in.Message, nil); err != nil {
		return nil, err
	}

	if err := sink.Send(Event{Type: EventStart, ConversationID: conversationID}); err != nil {
		return nil, err
	}

	stream, err := s.engine.Stream(ctx, prompt)
	if err != nil {
		return nil, s.fail(sink, conversationID, err)
	}
	defer stream.Close()

	var acc accumulator
	for {
		if err := ctx.Err(); err != nil {
			log.Debug().Str("conversation_id", conversationID).Msg("client disconnected, abandoning stream")
			return nil, err
		}

		chunk, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, s.fail(sink, conversationID, err)
		}

		for _, event := range acc.step(chunk) {
			if err := sink.Send(event); err != nil {
				return nil, err
			}
		}
	}

	full, images := acc.finalize()
	if _, err := s.store.AppendTurn(userID, conversationID, domain.RoleModel, full, images); err != nil {
		return nil, s.fail(sink, conversationID, err)
	}

	if err := sink.Send(Event{Type: EventEnd, FullResponse: full, Images: images}); err != nil {
		return nil, err
	}

	return &Result{
		ConversationID: conversationID,
		FullResponse:   full,
		Images:         images,
	}, nil
}

func (s *Service) fail(sink EventSink, conversationID string, err error) error {
	log.Error().Err(err).Str("conversation_id", conversationID).Msg("stream failed")
	if sendErr := sink.Send(Event{Type: EventError, Error: err.Error()}); sendErr != nil {
		return err
	}
	return err
}

// accumulator is the fold state of one relay: each step consumes a chunk and
// yields the events it produced, accumulating the full response and the
// generated image list as it goes.
type accumulator struct {
	buf    strings.Builder
	images []string
}

func (a *accumulator) step(chunk Chunk) []Event {
	var events []Event
	if chunk.Text != "" {
		a.buf.WriteString(chunk.Text)
		events = append(events, Event{Type: EventContent, Content: chunk.Text})
	}
	for _, blob := range chunk.Inline {
		url := dataURL(blob)
		a.images = append(a.images, url)
		events = append(events, Event{Type: EventImage, Image: url})
	}
	return events
}

// finalize appends an ordinal-numbered markdown block for any generated
// images, so the persisted turn carries both text and image references.
func (a *accumulator) finalize() (string, []string) {
	full := a.buf.String()
	if len(a.images) > 0 {
		var b strings.Builder
		b.WriteString("\n\n")
		for i, url := range a.images {
			fmt.Fprintf(&b, "![Generated Image %d](%s)\n", i+1, url)
		}
		full += b.String()
	}
	return full, a.images
}

func dataURL(blob InlineBlob) string {
	return "data:" + blob.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(blob.Data)
}

type discardSink struct{}

func (discardSink) Send(Event) error { return nil }
