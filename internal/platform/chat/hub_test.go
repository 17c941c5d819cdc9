package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestOpenChannel_SameParticipantsSameRef(t *testing.T) {
	h := NewHub()
	ref1, err := h.OpenChannel(context.Background(), []string{"doc-1", "pat-1"})
	if err != nil {
		t.Fatalf("OpenChannel() error: %v", err)
	}
	ref2, err := h.OpenChannel(context.Background(), []string{"pat-1", "doc-1"})
	if err != nil {
		t.Fatalf("OpenChannel() error: %v", err)
	}
	if ref1 != ref2 {
		t.Errorf("expected stable ref for same participants, got %q vs %q", ref1, ref2)
	}
	if !h.ChannelExists(ref1) {
		t.Error("expected channel to exist after open")
	}
}

func TestOpenChannel_NoParticipants(t *testing.T) {
	h := NewHub()
	if _, err := h.OpenChannel(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty participant list")
	}
}

func TestOpenChannel_CancelledContext(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.OpenChannel(ctx, []string{"doc-1"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

func TestHub_JoinBroadcastLeave(t *testing.T) {
	h := NewHub()
	ref, _ := h.OpenChannel(context.Background(), []string{"doc-1", "pat-1"})

	c1 := &Client{ID: "c1", Channel: ref, Send: make(chan []byte, 4)}
	c2 := &Client{ID: "c2", Channel: ref, Send: make(chan []byte, 4)}
	h.Join(c1)
	h.Join(c2)

	if got := h.MemberCount(ref); got != 2 {
		t.Fatalf("expected 2 members, got %d", got)
	}

	h.Broadcast(Message{Channel: ref, Sender: "doc-1", Text: "hello"})

	for _, c := range []*Client{c1, c2} {
		select {
		case data := <-c.Send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err != nil {
				t.Fatalf("unmarshal broadcast: %v", err)
			}
			if msg.Text != "hello" {
				t.Errorf("client %s: unexpected text %q", c.ID, msg.Text)
			}
		default:
			t.Fatalf("client %s received nothing", c.ID)
		}
	}

	h.Leave(c1)
	if got := h.MemberCount(ref); got != 1 {
		t.Errorf("expected 1 member after leave, got %d", got)
	}

	// Leaving twice must not panic or double-close
	h.Leave(c1)
}

func TestHub_BroadcastIsolatedByChannel(t *testing.T) {
	h := NewHub()
	refA, _ := h.OpenChannel(context.Background(), []string{"doc-1", "pat-1"})
	refB, _ := h.OpenChannel(context.Background(), []string{"doc-2", "pat-2"})

	ca := &Client{ID: "ca", Channel: refA, Send: make(chan []byte, 4)}
	cb := &Client{ID: "cb", Channel: refB, Send: make(chan []byte, 4)}
	h.Join(ca)
	h.Join(cb)

	h.Broadcast(Message{Channel: refA, Sender: "doc-1", Text: "for A only"})

	select {
	case <-cb.Send:
		t.Fatal("channel B client should not receive channel A broadcast")
	default:
	}

	select {
	case <-ca.Send:
	default:
		t.Fatal("channel A client should have received the broadcast")
	}
}

func TestHub_BroadcastFullBufferDoesNotBlock(t *testing.T) {
	h := NewHub()
	ref, _ := h.OpenChannel(context.Background(), []string{"doc-1"})

	c := &Client{ID: "c", Channel: ref, Send: make(chan []byte)} // zero buffer
	h.Join(c)

	done := make(chan struct{})
	go func() {
		h.Broadcast(Message{Channel: ref, Text: "dropped"})
		close(done)
	}()

	select {
	case <-done:
	case <-contextDone(t):
		t.Fatal("Broadcast blocked on full client buffer")
	}
}

func contextDone(t *testing.T) <-chan struct{} {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx.Done()
}
