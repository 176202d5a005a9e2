package reconciler

import (
	"sync"
	"time"

	"github.com/yukikurage/taskboard-web/internal/constants"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a user-visible message about the result of an action.
type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives exactly one notice per reconciled action.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Inbox is a bounded FIFO Notifier. When full the oldest notice is dropped.
type Inbox struct {
	mu      sync.Mutex
	size    int
	notices []Notice
}

func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = constants.DefaultInboxSize
	}
	return &Inbox{size: size}
}

func (in *Inbox) Notify(n Notice) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.notices) == in.size {
		in.notices = append(in.notices[:0], in.notices[1:]...)
	}
	in.notices = append(in.notices, n)
}

// Drain returns the pending notices, oldest first, and empties the inbox.
func (in *Inbox) Drain() []Notice {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := in.notices
	in.notices = nil
	if out == nil {
		return []Notice{}
	}
	return out
}

// Len returns the number of pending notices.
func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.notices)
}
