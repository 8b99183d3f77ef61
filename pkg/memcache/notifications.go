// pkg/memcache/notifications.go
package mem

import (
	"sync"
	"time"
)

type Notification struct {
	Message   string `json:"message"`
	CreatedAt int64  `json:"created_at"`
}

type NotificationStore interface {
	Push(userID string, message string)

	// Drain returns and removes all queued notifications for userID.
	Drain(userID string) []Notification

	// Peek reads without consuming.
	Peek(userID string) []Notification
}

type Notifications struct {
	mu   sync.RWMutex
	data map[string][]Notification
}

func NewNotifications() *Notifications {
	return &Notifications{
		data: make(map[string][]Notification),
	}
}

func (s *Notifications) Push(userID string, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = append(s.data[userID], Notification{
		Message:   message,
		CreatedAt: time.Now().Unix(),
	})
}

func (s *Notifications) Drain(userID string) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.data[userID]
	delete(s.data, userID)
	return out
}

func (s *Notifications) Peek(userID string) []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Notification(nil), s.data[userID]...)
}
