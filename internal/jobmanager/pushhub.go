// Package jobmanager runs generation jobs and streams their progress to
// recipients over WebSocket.
package jobmanager

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bobmcallan/trivia/internal/common"
	"github.com/bobmcallan/trivia/internal/interfaces"
	"github.com/bobmcallan/trivia/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// jobLister answers a "jobs_status" query with the requesting recipient's
// owned jobs. Satisfied by *Manager; kept as a narrow interface here so
// the hub has no import-cycle dependency on the Manager it is wired into.
type jobLister interface {
	ListOwned(recipientID string) []*models.Job
}

// PushHub fans job events out to the WebSocket clients of the recipient
// that owns each job, instead of broadcasting to every connection.
type PushHub struct {
	clients    map[string]map[*pushClient]bool
	publish    chan recipientEvent
	broadcast  chan models.JobEvent
	register   chan *pushClient
	unregister chan *pushClient
	done       chan struct{}
	mu         sync.RWMutex
	logger     *common.Logger
	jobs       jobLister
}

type recipientEvent struct {
	recipientID string
	event       models.JobEvent
}

type pushClient struct {
	hub         *PushHub
	recipientID string
	conn        *websocket.Conn
	send        chan []byte
}

// NewPushHub creates a new per-recipient WebSocket hub.
func NewPushHub(logger *common.Logger) *PushHub {
	return &PushHub{
		clients:    make(map[string]map[*pushClient]bool),
		publish:    make(chan recipientEvent, 256),
		broadcast:  make(chan models.JobEvent, 256),
		register:   make(chan *pushClient),
		unregister: make(chan *pushClient),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

var _ interfaces.PushHub = (*PushHub)(nil)

// SetJobLister wires the component that answers "jobs_status" queries.
// Called once from Manager.New, since the hub is constructed before the
// Manager that owns its job list.
func (h *PushHub) SetJobLister(l jobLister) {
	h.jobs = l
}

// Run starts the hub's event loop. Intended to be launched as a goroutine.
func (h *PushHub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.recipientID]
			if !ok {
				set = make(map[*pushClient]bool)
				h.clients[client.recipientID] = set
			}
			set[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.recipientID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.send)
				}
				if len(set) == 0 {
					delete(h.clients, client.recipientID)
				}
			}
			h.mu.Unlock()

		case re := <-h.publish:
			h.deliver(re.recipientID, re.event)

		case event := <-h.broadcast:
			h.mu.RLock()
			recipients := make([]string, 0, len(h.clients))
			for r := range h.clients {
				recipients = append(recipients, r)
			}
			h.mu.RUnlock()
			for _, r := range recipients {
				h.deliver(r, event)
			}
		}
	}
}

func (h *PushHub) deliver(recipientID string, event models.JobEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to marshal job event")
		return
	}

	h.mu.RLock()
	set := h.clients[recipientID]
	var slow []*pushClient
	for client := range set {
		select {
		case client.send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	if len(slow) > 0 {
		h.mu.Lock()
		for _, c := range slow {
			if set, ok := h.clients[recipientID]; ok {
				delete(set, c)
			}
			close(c.send)
		}
		h.mu.Unlock()
	}
}

// Stop signals the event loop to exit.
func (h *PushHub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Publish sends an event to the WebSocket clients owned by recipientID only.
func (h *PushHub) Publish(recipientID string, event models.JobEvent) {
	select {
	case h.publish <- recipientEvent{recipientID: recipientID, event: event}:
	default:
		h.logger.Warn().Str("recipient_id", recipientID).Msg("Push hub publish channel full, dropping event")
	}
}

// Broadcast sends an event to every connected recipient's clients.
func (h *PushHub) Broadcast(event models.JobEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn().Msg("Push hub broadcast channel full, dropping event")
	}
}

// ServeWS upgrades the connection and registers it under recipientID.
func (h *PushHub) ServeWS(w http.ResponseWriter, r *http.Request, recipientID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := &pushClient{
		hub:         h,
		recipientID: recipientID,
		conn:        conn,
		send:        make(chan []byte, 256),
	}

	h.register <- client

	h.Publish(recipientID, models.JobEvent{
		Type:      models.EventConnectionEstablished,
		Message:   fmt.Sprintf("Connected to real-time updates for %s", recipientID),
		Timestamp: time.Now(),
	})

	go client.writePump()
	go client.readPump()
}

// StreamCount returns the total number of connected WebSocket clients
// across all recipients.
func (h *PushHub) StreamCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, set := range h.clients {
		total += len(set)
	}
	return total
}

func (c *pushClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// clientFrame is an inbound WebSocket frame from a push client, matching
// the original's "ping"/"get_jobs" request vocabulary.
type clientFrame struct {
	Type string `json:"type"`
}

func (c *pushClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		c.handleFrame(frame)
	}
}

// handleFrame dispatches a decoded client frame to the matching response
// event, grounded on the original's ping/get_jobs handling.
func (c *pushClient) handleFrame(frame clientFrame) {
	switch frame.Type {
	case "ping":
		c.hub.Publish(c.recipientID, models.JobEvent{
			Type:      models.EventPong,
			Timestamp: time.Now(),
		})
	case "get_jobs":
		var jobs []*models.Job
		if c.hub.jobs != nil {
			jobs = c.hub.jobs.ListOwned(c.recipientID)
		}
		c.hub.Publish(c.recipientID, models.JobEvent{
			Type:      models.EventJobsStatus,
			Jobs:      jobs,
			Timestamp: time.Now(),
		})
	}
}
