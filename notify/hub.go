// Package notify fans game notifications out to every connected host page.
package notify

import (
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
)

// subscriberBuffer 每个订阅者的缓冲大小，满了就丢弃
const subscriberBuffer = 16

// Subscription is one host connection's view of the hub.
type Subscription struct {
	ID       string
	Messages <-chan structs.Message
	hub      *Hub
}

// Close detaches the subscription and closes its channel.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.ID)
}

// Hub implements the engine's Notifier by publishing to all subscribers.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]chan structs.Message
	last        map[string]structs.Message
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]chan structs.Message),
		last:        make(map[string]structs.Message),
	}
}

// Subscribe registers a new subscriber. With replay set, a gameReady
// message already published is delivered first so a page that loads late
// still learns the game has loaded. Reconnects pass false: the host saw
// ready on its first connection and must not see it twice.
func (h *Hub) Subscribe(replay bool) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan structs.Message, subscriberBuffer)
	if ready, ok := h.last["ready"]; ok && replay {
		ch <- ready
	}
	h.subscribers[id] = ch
	glog.V(1).Infof("subscriber %s attached, %d total", id, len(h.subscribers))
	return &Subscription{ID: id, Messages: ch, hub: h}
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
		glog.V(1).Infof("subscriber %s detached", id)
	}
}

// Notify never blocks the game loop: a subscriber whose buffer is full
// misses the message.
func (h *Hub) Notify(msg structs.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[msg.Kind()] = msg
	for id, ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			glog.Warningf("subscriber %s is not keeping up, dropped %s message", id, msg.Kind())
		}
	}
}

// Len 当前订阅者数量
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
