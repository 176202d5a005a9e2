package services

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/board"
	"github.com/yukikurage/taskboard-web/internal/constants"
	"github.com/yukikurage/taskboard-web/internal/reconciler"
)

// Board is the in-memory state behind one browser session.
type Board struct {
	ID    string
	Store *board.Store
	Inbox *reconciler.Inbox

	mu       sync.Mutex
	loaded   bool
	lastSeen time.Time
}

// Loaded reports whether the board has been filled from the remote API.
func (b *Board) Loaded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// MarkLoaded records a successful load.
func (b *Board) MarkLoaded() {
	b.mu.Lock()
	b.loaded = true
	b.mu.Unlock()
}

func (b *Board) touch(now time.Time) {
	b.mu.Lock()
	b.lastSeen = now
	b.mu.Unlock()
}

func (b *Board) idleSince(now time.Time) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return now.Sub(b.lastSeen)
}

// BoardRegistry maps board ids kept in session cookies to their boards.
// Boards are never persisted; an evicted board reloads from the remote API.
type BoardRegistry struct {
	mu     sync.Mutex
	boards map[string]*Board
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

func NewBoardRegistry(idleTTL time.Duration, logger *zap.Logger) *BoardRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardRegistry{
		boards: make(map[string]*Board),
		ttl:    idleTTL,
		now:    time.Now,
		logger: logger,
	}
}

// Acquire returns the board with id, creating a fresh one under a new id when
// id is empty or unknown.
func (r *BoardRegistry) Acquire(id string) *Board {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.boards[id]; ok && id != "" {
		b.touch(now)
		return b
	}
	b := &Board{
		ID:       uuid.NewString(),
		Store:    board.NewStore(),
		Inbox:    reconciler.NewInbox(constants.DefaultInboxSize),
		lastSeen: now,
	}
	r.boards[b.ID] = b
	return b
}

// Drop forgets the board with id.
func (r *BoardRegistry) Drop(id string) {
	r.mu.Lock()
	delete(r.boards, id)
	r.mu.Unlock()
}

// Len returns the number of live boards.
func (r *BoardRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Sweep evicts boards idle for longer than the ttl and returns how many went.
func (r *BoardRegistry) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, b := range r.boards {
		if b.idleSince(now) > r.ttl {
			delete(r.boards, id)
			n++
		}
	}
	if n > 0 {
		r.logger.Debug("swept idle boards", zap.Int("evicted", n), zap.Int("live", len(r.boards)))
	}
	return n
}

// Run sweeps every interval until stop is closed.
func (r *BoardRegistry) Run(interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.Sweep()
		case <-stop:
			return
		}
	}
}
