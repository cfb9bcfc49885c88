package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/resourcebook/backend/internal/events"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Subscriber subscribes to an organization's booking events. *events.RedisPubSub satisfies it.
type Subscriber interface {
	Subscribe(orgID int64, handler func(e events.Event)) (cancel func(), err error)
}

// Hub maintains organization_id -> set of connections and fans booking events out to them.
// Each instance holds one Redis subscription per organization with at least one local client.
type Hub struct {
	// organizationID -> map[clientID]*Client
	orgs   map[int64]map[string]*Client
	subs   map[int64]func()
	mu     sync.RWMutex
	logger *zap.Logger
	sub    Subscriber
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		orgs:   make(map[int64]map[string]*Client),
		subs:   make(map[int64]func()),
		logger: logger,
		sub:    sub,
	}
}

// Register adds a client to its organization's room. Starts the Redis subscription for the organization if first client.
// The subscription round-trip runs without the hub lock held.
func (h *Hub) Register(c *Client) error {
	orgID := c.OrganizationID
	h.mu.Lock()
	if room, ok := h.orgs[orgID]; ok || h.sub == nil {
		if !ok {
			room = make(map[string]*Client)
			h.orgs[orgID] = room
		}
		room[c.ID] = c
		h.mu.Unlock()
		h.logJoin(c)
		return nil
	}
	h.mu.Unlock()

	cancel, err := h.sub.Subscribe(orgID, func(e events.Event) {
		h.Broadcast(orgID, e)
	})
	if err != nil {
		return err
	}

	h.mu.Lock()
	room, ok := h.orgs[orgID]
	if ok {
		// another client opened the room meanwhile
		cancel()
	} else {
		room = make(map[string]*Client)
		h.orgs[orgID] = room
		h.subs[orgID] = cancel
	}
	room[c.ID] = c
	h.mu.Unlock()
	h.logJoin(c)
	return nil
}

func (h *Hub) logJoin(c *Client) {
	h.logger.Debug("client subscribed", zap.String("client_id", c.ID), zap.Int64("organization_id", c.OrganizationID), zap.Int64("user_id", c.UserID))
}

// Unregister removes a client from its room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.orgs[c.OrganizationID]
	if !ok {
		return
	}
	if _, ok := m[c.ID]; !ok {
		return
	}
	delete(m, c.ID)
	close(c.send)
	if len(m) == 0 {
		delete(h.orgs, c.OrganizationID)
		if cancel, ok := h.subs[c.OrganizationID]; ok {
			cancel()
			delete(h.subs, c.OrganizationID)
		}
	}
	h.logger.Debug("client unsubscribed", zap.String("client_id", c.ID), zap.Int64("organization_id", c.OrganizationID))
}

// Broadcast sends a booking event to all local clients of an organization.
func (h *Hub) Broadcast(orgID int64, e events.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		h.logger.Warn("marshal booking event", zap.Error(err))
		return
	}
	msg := WSMessage{Event: string(e.Type), Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.orgs[orgID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
			h.logger.Warn("dropping event for slow client", zap.String("client_id", c.ID), zap.String("event", msg.Event))
		}
	}
}

// ConnectionCount returns the number of connected clients in an organization.
func (h *Hub) ConnectionCount(orgID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.orgs[orgID])
}

// sendTo delivers a message to a single client.
func (h *Hub) sendTo(c *Client, msg WSMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.orgs[c.OrganizationID][c.ID]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
