package chat_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/cortexai/cortex-backend/internal/chat"
	"github.com/cortexai/cortex-backend/internal/conversation"
	"github.com/cortexai/cortex-backend/internal/domain"
	"github.com/cortexai/cortex-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_TextAndImageStream(t *testing.T) {
	imageBytes := []byte{0x89, 0x50, 0x4e, 0x47}
	imageURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageBytes)

	engine := &testutil.FakeEngine{
		Chunks: []chat.Chunk{
			{Text: "Hello"},
			{Inline: []chat.InlineBlob{{MIMEType: "image/png", Data: imageBytes}}},
			{Text: " world"},
		},
	}
	store := conversation.NewStore()
	svc := chat.NewService(engine, store, "fake-model")

	userID := uuid.New()
	sink := testutil.NewCollectSink()

	result, err := svc.StreamTo(context.Background(), userID, chat.SendInput{
		Message:        "hi",
		ConversationID: "conv-1",
	}, sink)
	require.NoError(t, err)

	wantFull := "Hello world\n\n![Generated Image 1](" + imageURL + ")\n"

	require.Len(t, sink.Events, 5)
	assert.Equal(t, chat.Event{Type: chat.EventStart, ConversationID: "conv-1"}, sink.Events[0])
	assert.Equal(t, chat.Event{Type: chat.EventContent, Content: "Hello"}, sink.Events[1])
	assert.Equal(t, chat.Event{Type: chat.EventImage, Image: imageURL}, sink.Events[2])
	assert.Equal(t, chat.Event{Type: chat.EventContent, Content: " world"}, sink.Events[3])
	assert.Equal(t, chat.Event{Type: chat.EventEnd, FullResponse: wantFull, Images: []string{imageURL}}, sink.Events[4])

	assert.Equal(t, wantFull, result.FullResponse)
	assert.Equal(t, []string{imageURL}, result.Images)

	// Both turns committed, the model turn carrying the end event's content.
	conv, err := store.Get(userID, "conv-1")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 2)
	assert.Equal(t, domain.RoleUser, conv.Turns[0].Role)
	assert.Equal(t, "hi", conv.Turns[0].Content)
	assert.Equal(t, domain.RoleModel, conv.Turns[1].Role)
	assert.Equal(t, wantFull, conv.Turns[1].Content)
	assert.Equal(t, []string{imageURL}, conv.Turns[1].Images)
}

func TestRelay_TextOnlyStream(t *testing.T) {
	engine := &testutil.FakeEngine{
		Chunks: []chat.Chunk{{Text: "Hello"}, {Text: " world"}},
	}
	store := conversation.NewStore()
	svc := chat.NewService(engine, store, "fake-model")

	sink := testutil.NewCollectSink()
	result, err := svc.StreamTo(context.Background(), uuid.New(), chat.SendInput{Message: "hi"}, sink)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", result.FullResponse)
	assert.Empty(t, result.Images)
	assert.NotEmpty(t, result.ConversationID)

	last := sink.Events[len(sink.Events)-1]
	assert.Equal(t, chat.EventEnd, last.Type)
	assert.Equal(t, "Hello world", last.FullResponse)
}

func TestRelay_EngineFailureMidStream(t *testing.T) {
	engine := &testutil.FakeEngine{
		Chunks: []chat.Chunk{{Text: "Hello"}},
		Err:    errors.New("upstream exploded"),
	}
	store := conversation.NewStore()
	svc := chat.NewService(engine, store, "fake-model")

	userID := uuid.New()
	sink := testutil.NewCollectSink()

	_, err := svc.StreamTo(context.Background(), userID, chat.SendInput{
		Message:        "hi",
		ConversationID: "conv-1",
	}, sink)
	require.Error(t, err)

	require.Len(t, sink.Events, 3)
	assert.Equal(t, chat.EventStart, sink.Events[0].Type)
	assert.Equal(t, chat.Event{Type: chat.EventContent, Content: "Hello"}, sink.Events[1])
	assert.Equal(t, chat.EventError, sink.Events[2].Type)
	assert.Equal(t, "upstream exploded", sink.Events[2].Error)

	// The user turn is committed, no model turn for the failed attempt.
	conv, err := store.Get(userID, "conv-1")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, domain.RoleUser, conv.Turns[0].Role)
}

func TestRelay_EngineFailureAtStart(t *testing.T) {
	engine := &testutil.FakeEngine{StreamErr: errors.New("model unavailable")}
	store := conversation.NewStore()
	svc := chat.NewService(engine, store, "fake-model")

	userID := uuid.New()
	sink := testutil.NewCollectSink()

	_, err := svc.StreamTo(context.Background(), userID, chat.SendInput{
		Message:        "hi",
		ConversationID: "conv-1",
	}, sink)
	require.Error(t, err)

	require.Len(t, sink.Events, 2)
	assert.Equal(t, chat.EventStart, sink.Events[0].Type)
	assert.Equal(t, chat.EventError, sink.Events[1].Type)

	conv, err := store.Get(userID, "conv-1")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
}

func TestRelay_ClientDisconnectStopsCommit(t *testing.T) {
	engine := &testutil.FakeEngine{
		Chunks: []chat.Chunk{{Text: "Hello"}, {Text: " world"}},
	}
	store := conversation.NewStore()
	svc := chat.NewService(engine, store, "fake-model")

	userID := uuid.New()
	sink := testutil.NewCollectSink()
	sink.FailAfter = 2 // start + first content, then the client is gone

	_, err := svc.StreamTo(context.Background(), userID, chat.SendInput{
		Message:        "hi",
		ConversationID: "conv-1",
	}, sink)
	require.Error(t, err)

	conv, err := store.Get(userID, "conv-1")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
	assert.Equal(t, domain.RoleUser, conv.Turns[0].Role)
}

func TestRelay_ContextCancellation(t *testing.T) {
	engine := &testutil.FakeEngine{
		Chunks: []chat.Chunk{{Text: "Hello"}},
	}
	store := conversation.NewStore()
	svc := chat.NewService(engine, store, "fake-model")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	userID := uuid.New()
	_, err := svc.StreamTo(ctx, userID, chat.SendInput{
		Message:        "hi",
		ConversationID: "conv-1",
	}, testutil.NewCollectSink())
	require.ErrorIs(t, err, context.Canceled)

	conv, err := store.Get(userID, "conv-1")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 1)
}

func TestRelay_ThreadsHistoryIntoPrompt(t *testing.T) {
	engine := &testutil.FakeEngine{Chunks: []chat.Chunk{{Text: "answer 2"}}}
	store := conversation.NewStore()
	svc := chat.NewService(engine, store, "fake-model")

	userID := uuid.New()
	_, err := store.AppendTurn(userID, "conv-1", domain.RoleUser, "question 1", nil)
	require.NoError(t, err)
	_, err = store.AppendTurn(userID, "conv-1", domain.RoleModel, "answer 1", nil)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), userID, chat.SendInput{
		Message:        "question 2",
		ConversationID: "conv-1",
	})
	require.NoError(t, err)

	// History excludes the new message, which rides separately.
	require.Len(t, engine.LastPrompt.History, 2)
	assert.Equal(t, "question 1", engine.LastPrompt.History[0].Content)
	assert.Equal(t, "answer 1", engine.LastPrompt.History[1].Content)
	assert.Equal(t, "question 2", engine.LastPrompt.Message)
	assert.Equal(t, "fake-model", engine.LastPrompt.Model)

	conv, err := store.Get(userID, "conv-1")
	require.NoError(t, err)
	require.Len(t, conv.Turns, 4)
}

func TestRelay_MultipleImagesNumberedInOrder(t *testing.T) {
	blob := func(b byte) chat.InlineBlob {
		return chat.InlineBlob{MIMEType: "image/png", Data: []byte{b}}
	}
	engine := &testutil.FakeEngine{
		Chunks: []chat.Chunk{
			{Inline: []chat.InlineBlob{blob(1), blob(2)}},
			{Inline: []chat.InlineBlob{blob(3)}},
		},
	}
	store := conversation.NewStore()
	svc := chat.NewService(engine, store, "fake-model")

	sink := testutil.NewCollectSink()
	result, err := svc.StreamTo(context.Background(), uuid.New(), chat.SendInput{Message: "draw"}, sink)
	require.NoError(t, err)

	require.Len(t, result.Images, 3)
	for i, url := range result.Images {
		assert.Contains(t, result.FullResponse, "![Generated Image "+string(rune('1'+i))+"]("+url+")")
	}
}
