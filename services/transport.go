package services

import (
	"context"

	"github.com/google/uuid"
)

// Transport delivers conversation messages to the user. The engine only
// needs send/edit/delete; retry behavior is the transport's problem.
type Transport interface {
	Send(ctx context.Context, userID uint, msg OutgoingMessage) (string, error)
	Edit(ctx context.Context, userID uint, messageID string, msg OutgoingMessage) error
	Delete(ctx context.Context, userID uint, messageID string) error
}

// HubTransport pushes chat events over the websocket hub.
type HubTransport struct {
	hub *RealtimeHub
}

func NewHubTransport(hub *RealtimeHub) *HubTransport {
	return &HubTransport{hub: hub}
}

func (t *HubTransport) Send(_ context.Context, userID uint, msg OutgoingMessage) (string, error) {
	id := uuid.NewString()
	t.hub.Broadcast(userID, map[string]any{
		"kind":    "message.sent",
		"id":      id,
		"message": msg,
	})
	return id, nil
}

func (t *HubTransport) Edit(_ context.Context, userID uint, messageID string, msg OutgoingMessage) error {
	t.hub.Broadcast(userID, map[string]any{
		"kind":    "message.edited",
		"id":      messageID,
		"message": msg,
	})
	return nil
}

func (t *HubTransport) Delete(_ context.Context, userID uint, messageID string) error {
	t.hub.Broadcast(userID, map[string]any{
		"kind": "message.deleted",
		"id":   messageID,
	})
	return nil
}

// SentMessage is one message captured during a single chat turn.
type SentMessage struct {
	ID      string          `json:"id"`
	Action  string          `json:"action"` // "send" | "edit" | "delete"
	Message OutgoingMessage `json:"message"`
}

// RecordingTransport wraps another transport and keeps the turn's
// traffic so the HTTP chat endpoints can return it in the response.
// One instance serves one request; not safe for reuse.
type RecordingTransport struct {
	inner Transport
	Log   []SentMessage
}

func NewRecordingTransport(inner Transport) *RecordingTransport {
	return &RecordingTransport{inner: inner}
}

func (t *RecordingTransport) Send(ctx context.Context, userID uint, msg OutgoingMessage) (string, error) {
	id, err := t.inner.Send(ctx, userID, msg)
	if err != nil {
		return "", err
	}
	t.Log = append(t.Log, SentMessage{ID: id, Action: "send", Message: msg})
	return id, nil
}

func (t *RecordingTransport) Edit(ctx context.Context, userID uint, messageID string, msg OutgoingMessage) error {
	if err := t.inner.Edit(ctx, userID, messageID, msg); err != nil {
		return err
	}
	t.Log = append(t.Log, SentMessage{ID: messageID, Action: "edit", Message: msg})
	return nil
}

func (t *RecordingTransport) Delete(ctx context.Context, userID uint, messageID string) error {
	if err := t.inner.Delete(ctx, userID, messageID); err != nil {
		return err
	}
	t.Log = append(t.Log, SentMessage{ID: messageID, Action: "delete"})
	return nil
}
