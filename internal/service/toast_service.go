package service

import (
	"sync"
	"time"

	"cryptodash/internal/domain"
)

// DefaultToastTTL is how long a toast stays visible unless told otherwise
const DefaultToastTTL = 3 * time.Second

// Toast is one notification
type Toast struct {
	Message   string            `json:"message"`
	Level     domain.ToastLevel `json:"type"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// ToastService holds at most one visible toast; a new push replaces the old one
type ToastService struct {
	mu      sync.Mutex
	current *Toast
	sink    func(Toast)
	now     func() time.Time
}

// NewToastService creates a service; sink, when set, sees every pushed toast
func NewToastService(sink func(Toast)) *ToastService {
	return &ToastService{sink: sink, now: time.Now}
}

// Push shows message for DefaultToastTTL
func (s *ToastService) Push(message string, level domain.ToastLevel) {
	s.PushFor(message, level, DefaultToastTTL)
}

// PushFor shows message for ttl
func (s *ToastService) PushFor(message string, level domain.ToastLevel, ttl time.Duration) {
	t := Toast{Message: message, Level: level, ExpiresAt: s.now().Add(ttl)}

	s.mu.Lock()
	s.current = &t
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		sink(t)
	}
}

// Current returns the visible toast, if it has not expired
func (s *ToastService) Current() (Toast, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Toast{}, false
	}
	if !s.now().Before(s.current.ExpiresAt) {
		s.current = nil
		return Toast{}, false
	}
	return *s.current, true
}
