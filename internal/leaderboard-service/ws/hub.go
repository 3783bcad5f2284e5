package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/radieske/betting-tracker/pkg/contracts/events"
)

const (
	writeWait = 5 * time.Second
	// mensagens pendentes por cliente antes de ele ser considerado lento
	sendBuffer = 64
)

// SnapshotFunc devolve o estado atual de um tópico (nil quando não há) para quem acabou de assinar
type SnapshotFunc func(ctx context.Context, topic string) (json.RawMessage, error)

// client tem uma fila própria; writePump é o único writer da conexão
// (gorilla/websocket aceita um único writer por conexão)
type client struct {
	conn *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan any, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue não bloqueia; false quando o cliente já foi fechado ou a fila está cheia
func (c *client) enqueue(v any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- v:
		return true
	default:
		return false
	}
}

// close sinaliza o writePump, que fecha a conexão e encerra o loop de leitura
func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) writePump() {
	defer c.conn.Close()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case v := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(v); err != nil {
				c.close()
				return
			}
		}
	}
}

// Hub gerencia conexões WebSocket e assinaturas por tópico
// subs: tópico -> conjunto de clientes inscritos
type Hub struct {
	log      *zap.Logger
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	subs     map[string]map[*client]struct{}

	Snapshot     SnapshotFunc
	OnConnect    func()
	OnDisconnect func()
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*client]struct{}),
	}
}

// ValidTopic aceita "leaderboard" e "summary:<userId>"
func ValidTopic(topic string) bool {
	if topic == events.TopicLeaderboard {
		return true
	}
	id, ok := strings.CutPrefix(topic, events.TopicSummaryPrefix)
	return ok && id != ""
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Cada cliente pode assinar vários tópicos
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := newClient(conn)
	go c.writePump()
	if h.OnConnect != nil {
		h.OnConnect()
	}
	defer func() {
		h.drop(c)
		c.close()
		if h.OnDisconnect != nil {
			h.OnDisconnect()
		}
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "subscribe":
			if !ValidTopic(msg.Topic) {
				c.enqueue(ServerMsg{Type: "error", Topic: msg.Topic, Error: "unknown topic"})
				continue
			}
			h.subscribe(c, msg.Topic)
			c.enqueue(ServerMsg{Type: "subscribed", Topic: msg.Topic})
			h.sendSnapshot(r.Context(), c, msg.Topic)
		case "unsubscribe":
			h.unsubscribe(c, msg.Topic)
			c.enqueue(ServerMsg{Type: "unsubscribed", Topic: msg.Topic})
		case "ping":
			c.enqueue(ServerMsg{Type: "pong"})
		default:
			c.enqueue(ServerMsg{Type: "error", Error: "unknown message type"})
		}
	}
}

func (h *Hub) subscribe(c *client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[topic]; !ok {
		h.subs[topic] = make(map[*client]struct{})
	}
	h.subs[topic][c] = struct{}{}
}

func (h *Hub) unsubscribe(c *client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[topic]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, topic)
		}
	}
}

// drop remove a conexão de todas as assinaturas ao desconectar
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for topic, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, topic)
		}
	}
}

func (h *Hub) sendSnapshot(ctx context.Context, c *client, topic string) {
	if h.Snapshot == nil {
		return
	}
	payload, err := h.Snapshot(ctx, topic)
	if err != nil {
		h.log.Warn("ws snapshot failed", zap.String("topic", topic), zap.Error(err))
		return
	}
	if payload == nil {
		return
	}
	c.enqueue(events.Update{Topic: topic, Payload: payload})
}

// Subscribers devolve quantos clientes assinam o tópico
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Broadcast enfileira a atualização para os inscritos no tópico sem esperar a escrita.
// Um cliente com a fila cheia é desconectado; ao reassinar recebe o snapshot atual.
func (h *Hub) Broadcast(update events.Update) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.subs[update.Topic]))
	for c := range h.subs[update.Topic] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.enqueue(update) {
			continue
		}
		h.log.Warn("ws client too slow, disconnecting", zap.String("topic", update.Topic))
		h.drop(c)
		c.close()
	}
}
