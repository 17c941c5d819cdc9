// Package chat provides the WebSocket companion channels opened for online
// consultations. It follows a hub-and-spoke pattern: clients join a channel
// and receive everything broadcast to it.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ChannelOpener is the interface the booking path depends on: it provisions
// a chat channel for the given participants and returns its reference.
type ChannelOpener interface {
	OpenChannel(ctx context.Context, participants []string) (string, error)
}

// Message is a single chat payload relayed through a channel.
type Message struct {
	Channel   string    `json:"channel"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Channel is a provisioned consultation channel.
type Channel struct {
	Ref          string    `json:"ref"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// Client represents a single WebSocket connection joined to one channel.
type Client struct {
	ID      string
	Channel string
	Send    chan []byte
}

// Hub tracks channels and the clients joined to them. All operations are
// thread-safe via sync.RWMutex.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	clients  map[string]map[*Client]struct{} // channel ref -> joined clients
}

// NewHub creates a Hub ready to provision channels and manage clients.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]*Channel),
		clients:  make(map[string]map[*Client]struct{}),
	}
}

// OpenChannel provisions a channel for the given participants. The same
// participant set always maps to the same channel, so re-booking an online
// consultation reuses the existing channel.
func (h *Hub) OpenChannel(ctx context.Context, participants []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(participants) == 0 {
		return "", fmt.Errorf("open channel: no participants")
	}

	sorted := make([]string, len(participants))
	copy(sorted, participants)
	sort.Strings(sorted)
	ref := "consult:" + strings.Join(sorted, ":")

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.channels[ref]; !ok {
		h.channels[ref] = &Channel{
			Ref:          ref,
			Participants: sorted,
			CreatedAt:    time.Now().UTC(),
		}
	}
	return ref, nil
}

// ChannelExists reports whether a channel has been provisioned.
func (h *Hub) ChannelExists(ref string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.channels[ref]
	return ok
}

// Join adds a client to its channel.
func (h *Hub) Join(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.Channel] == nil {
		h.clients[client.Channel] = make(map[*Client]struct{})
	}
	h.clients[client.Channel][client] = struct{}{}
}

// Leave removes a client from its channel and closes its Send channel.
func (h *Hub) Leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.clients[client.Channel]
	if !ok {
		return
	}
	if _, joined := members[client]; !joined {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.clients, client.Channel)
	}
	close(client.Send)
}

// Broadcast relays a message to every client joined to its channel.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[msg.Channel] {
		select {
		case client.Send <- data:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
}

// MemberCount returns the number of clients joined to a channel.
func (h *Hub) MemberCount(ref string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ref])
}

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // tighten in production
	},
}

// Handler handles HTTP-to-WebSocket upgrades for chat channels.
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a Handler bound to the given Hub.
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{hub: hub, logger: logger}
}

// RegisterRoutes registers the chat endpoint on the provided Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws/chat", h.HandleConnect)
}

// HandleConnect upgrades the connection and joins the client to the channel
// named in the "channel" query parameter.
func (h *Handler) HandleConnect(c echo.Context) error {
	ref := c.QueryParam("channel")
	if ref == "" || !h.hub.ChannelExists(ref) {
		return echo.NewHTTPError(http.StatusNotFound, "unknown channel")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:      uuid.NewString(),
		Channel: ref,
		Send:    make(chan []byte, 256),
	}
	h.hub.Join(client)

	go h.writePump(client, ws)
	go h.readPump(client, ws)

	return nil
}

func (h *Handler) readPump(client *Client, ws *gorillawebsocket.Conn) {
	defer func() {
		h.hub.Leave(client)
		ws.Close()
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue // ignore malformed messages
		}
		msg.Channel = client.Channel
		msg.Timestamp = time.Now().UTC()
		h.hub.Broadcast(msg)
	}
}

func (h *Handler) writePump(client *Client, ws *gorillawebsocket.Conn) {
	defer ws.Close()

	for data := range client.Send {
		if err := ws.WriteMessage(gorillawebsocket.TextMessage, data); err != nil {
			h.logger.Debug().Err(err).Str("client_id", client.ID).Msg("chat write failed")
			return
		}
	}
}
