package chat

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fakePubSub loops published events straight back into room subscribers,
// standing in for Redis.
type fakePubSub struct {
	handlers  map[uuid.UUID]func(event string, payload []byte)
	cancelled int
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{handlers: make(map[uuid.UUID]func(event string, payload []byte))}
}

func (f *fakePubSub) PublishRoomEvent(communityID uuid.UUID, event string, payload []byte) error {
	if h, ok := f.handlers[communityID]; ok {
		h(event, payload)
	}
	return nil
}

func (f *fakePubSub) SubscribeRoom(communityID uuid.UUID, handler func(event string, payload []byte)) (func(), error) {
	f.handlers[communityID] = handler
	return func() {
		delete(f.handlers, communityID)
		f.cancelled++
	}, nil
}

func testClient(communityID uuid.UUID) *Client {
	return &Client{
		ID:          uuid.NewString(),
		CommunityID: communityID,
		UserID:      uuid.New(),
		send:        make(chan WSMessage, 8),
	}
}

func TestHubRegisterAndRoomSize(t *testing.T) {
	ps := newFakePubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	room := uuid.New()

	a, b := testClient(room), testClient(room)
	hub.Register(a)
	hub.Register(b)

	if got := hub.RoomSize(room); got != 2 {
		t.Fatalf("expected room size 2, got %d", got)
	}
	if len(ps.handlers) != 1 {
		t.Fatalf("expected one Redis subscription per room, got %d", len(ps.handlers))
	}

	hub.Unregister(a)
	if got := hub.RoomSize(room); got != 1 {
		t.Fatalf("expected room size 1, got %d", got)
	}
	hub.Unregister(b)
	if ps.cancelled != 1 {
		t.Fatalf("expected subscription cancelled when room empties, got %d", ps.cancelled)
	}
}

func TestPublishFansOutThroughSubscription(t *testing.T) {
	ps := newFakePubSub()
	hub := NewHub(zap.NewNop(), ps, ps)
	room := uuid.New()
	other := uuid.New()

	inRoom := testClient(room)
	outside := testClient(other)
	hub.Register(inRoom)
	hub.Register(outside)

	hub.PublishToRoom(room, "chat_message", outboundChat{
		CommunityID: room,
		SenderName:  "ava",
		Body:        "hello",
	})

	select {
	case msg := <-inRoom.send:
		if msg.Event != "chat_message" {
			t.Fatalf("expected chat_message event, got %q", msg.Event)
		}
		var out outboundChat
		if err := json.Unmarshal(msg.Data, &out); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if out.Body != "hello" || out.SenderName != "ava" {
			t.Fatalf("unexpected payload: %+v", out)
		}
	default:
		t.Fatalf("room member received nothing")
	}

	select {
	case msg := <-outside.send:
		t.Fatalf("client in another room received %q", msg.Event)
	default:
	}
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zap.NewNop(), nil, nil)
	room := uuid.New()

	c := testClient(room)
	c.send = make(chan WSMessage, 1)
	hub.Register(c)

	hub.BroadcastToRoom(room, "presence", map[string]int{"online": 1})
	hub.BroadcastToRoom(room, "presence", map[string]int{"online": 2})

	if got := len(c.send); got != 1 {
		t.Fatalf("expected exactly 1 buffered message, got %d", got)
	}
}
