package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe        MessageType = "subscribe"
	MessageTypeUnsubscribe      MessageType = "unsubscribe"
	MessageTypeNewCommunication MessageType = "new_communication"
	MessageTypeError            MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      MessageType `json:"type"`
	CompanyID string      `json:"company_id,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// NewCommunicationPayload represents the payload for new communication
// notifications pushed to subscribed clients.
type NewCommunicationPayload struct {
	ID          string `json:"id"`
	Type        string `json:"communication_type"`
	Direction   string `json:"direction"`
	Category    string `json:"category"`
	FromAddress string `json:"from_address"`
	FromName    string `json:"from_name,omitempty"`
	Subject     string `json:"subject,omitempty"`
	ReceivedAt  string `json:"received_at"`
}

// Hub maintains the set of active clients and broadcasts messages.
// Subscriptions are keyed by company; a client only sees events for
// companies it explicitly subscribed to.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Company subscriptions: companyID -> set of clients
	subscriptions map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Subscribe to a company feed
	subscribe chan *subscriptionRequest

	// Unsubscribe from a company feed
	unsubscribeCompany chan *subscriptionRequest

	// Broadcast to company subscribers
	broadcast chan *broadcastMessage

	// Mutex for thread-safe operations
	mu sync.RWMutex

	// Logger
	logger *slog.Logger
}

type subscriptionRequest struct {
	client    *Client
	companyID string
}

type broadcastMessage struct {
	companyID string
	message   []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:            make(map[*Client]bool),
		subscriptions:      make(map[string]map[*Client]bool),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
		subscribe:          make(chan *subscriptionRequest),
		unsubscribeCompany: make(chan *subscriptionRequest),
		broadcast:          make(chan *broadcastMessage, 256),
		logger:             logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered")
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				// Remove from all subscriptions
				for companyID, subscribers := range h.subscriptions {
					delete(subscribers, client)
					if len(subscribers) == 0 {
						delete(h.subscriptions, companyID)
					}
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered")
			}

		case req := <-h.subscribe:
			h.mu.Lock()
			if h.subscriptions[req.companyID] == nil {
				h.subscriptions[req.companyID] = make(map[*Client]bool)
			}
			h.subscriptions[req.companyID][req.client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client subscribed to company", slog.String("company_id", req.companyID))
			}

		case req := <-h.unsubscribeCompany:
			h.mu.Lock()
			if subscribers, ok := h.subscriptions[req.companyID]; ok {
				delete(subscribers, req.client)
				if len(subscribers) == 0 {
					delete(h.subscriptions, req.companyID)
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unsubscribed from company", slog.String("company_id", req.companyID))
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			subscribers := h.subscriptions[msg.companyID]
			for client := range subscribers {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to a company feed
func (h *Hub) Subscribe(client *Client, companyID string) {
	h.subscribe <- &subscriptionRequest{client: client, companyID: companyID}
}

// Unsubscribe unsubscribes a client from a company feed
func (h *Hub) Unsubscribe(client *Client, companyID string) {
	h.unsubscribeCompany <- &subscriptionRequest{client: client, companyID: companyID}
}

// BroadcastNewCommunication broadcasts a new communication notification
// to all clients subscribed to the company.
func (h *Hub) BroadcastNewCommunication(companyID string, payload *NewCommunicationPayload) {
	msg := WSMessage{
		Type:      MessageTypeNewCommunication,
		CompanyID: companyID,
		Payload:   payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	h.broadcast <- &broadcastMessage{
		companyID: companyID,
		message:   data,
	}
}
