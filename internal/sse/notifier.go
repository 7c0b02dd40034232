package sse

import (
	"context"
	"sync"

	"ms-eventreg/internal/models"
)

// Notifier is the in-process broadcast channel behind the live
// notification stream. Publish fans a message out to every currently
// connected subscriber; there is no replay buffer and no delivery
// guarantee. A subscriber whose buffer is full simply misses the
// message.
type Notifier struct {
	mu      sync.RWMutex
	clients []chan models.Notification
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers a client channel. The subscription is removed
// and the channel closed when ctx is done.
func (n *Notifier) Subscribe(ctx context.Context) <-chan models.Notification {
	clientChan := make(chan models.Notification, 10)

	n.mu.Lock()
	n.clients = append(n.clients, clientChan)
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.remove(clientChan)
	}()

	return clientChan
}

// Publish delivers a notification to every connected subscriber.
// Sends are non-blocking so a slow client cannot stall the publisher.
// The read lock is held across the sends: remove closes channels under
// the write lock, so a concurrent disconnect cannot close a channel
// mid-send.
func (n *Notifier) Publish(notification models.Notification) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, clientChan := range n.clients {
		select {
		case clientChan <- notification:
		default:
			// Buffer full, skip this client.
		}
	}
}

// ClientCount returns the number of connected subscribers.
func (n *Notifier) ClientCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.clients)
}

func (n *Notifier) remove(clientChan chan models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, ch := range n.clients {
		if ch == clientChan {
			n.clients = append(n.clients[:i], n.clients[i+1:]...)
			close(clientChan)
			return
		}
	}
}
