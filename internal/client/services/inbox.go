package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/client/models"
	"github.com/dmitrijs2005/qryptovault/internal/client/pushchan"
	"github.com/dmitrijs2005/qryptovault/internal/logging"
)

// Push event names published by the backend.
const (
	EventNewBlock         = "new_block"
	EventBlockchainUpdate = "blockchain_update"
)

const (
	DefaultPreviewSize = 5
	EmptyInboxText     = "No files yet"
)

// BlockSource is the one-shot historical read. client.Client satisfies it.
type BlockSource interface {
	Blocks(ctx context.Context) ([]models.Block, error)
}

// BlockCache persists the last-known sequence. blocks.Repository satisfies it.
type BlockCache interface {
	ReplaceAll(ctx context.Context, blocks []models.Block) error
	Append(ctx context.Context, block models.Block) error
	GetAll(ctx context.Context) ([]models.Block, error)
}

// ChannelFactory opens a fresh push channel for one Run.
type ChannelFactory func() (pushchan.Channel, error)

type InboxOptions struct {
	PreviewSize int
	// Location formats entry timestamps; nil means time.Local.
	Location *time.Location
}

// InboxSynchronizer keeps the ordered inbox sequence: seeded by Restore
// and Initialize, then kept current by push events while Run is active.
//
// Entries are de-duplicated by block hash (or file id when the hash is
// missing); blocks with neither are always appended.
type InboxSynchronizer struct {
	source     BlockSource
	cache      BlockCache
	newChannel ChannelFactory
	log        logging.Logger
	preview    int
	loc        *time.Location

	// writeMu serializes mutations together with their cache write-through
	// so the cache sees them in the same order as memory.
	writeMu sync.Mutex

	mu      sync.RWMutex
	blocks  []models.Block
	entries []models.InboxEntry
	seen    map[string]struct{}
	state   pushchan.State

	subsMu sync.Mutex
	subs   map[chan struct{}]struct{}
}

// NewInboxSynchronizer builds a synchronizer. cache may be nil.
func NewInboxSynchronizer(source BlockSource, cache BlockCache, newChannel ChannelFactory,
	opts InboxOptions, log logging.Logger) *InboxSynchronizer {

	if log == nil {
		log = logging.Nop()
	}
	if opts.PreviewSize <= 0 {
		opts.PreviewSize = DefaultPreviewSize
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &InboxSynchronizer{
		source:     source,
		cache:      cache,
		newChannel: newChannel,
		log:        log.With("component", "inbox"),
		preview:    opts.PreviewSize,
		loc:        opts.Location,
		seen:       map[string]struct{}{},
		subs:       map[chan struct{}]struct{}{},
	}
}

// Restore seeds the sequence from the local cache.
func (s *InboxSynchronizer) Restore(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	blocks, err := s.cache.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("restore inbox: %w", err)
	}
	s.swap(blocks)
	s.log.Debug(ctx, "inbox restored from cache", "entries", len(blocks))
	return nil
}

// Initialize performs the one historical fetch. On failure the sequence is
// left untouched and the error is logged and returned.
func (s *InboxSynchronizer) Initialize(ctx context.Context) error {
	blocks, err := s.source.Blocks(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to fetch inbox", "error", err)
		return fmt.Errorf("fetch inbox: %w", err)
	}
	s.replace(ctx, blocks)
	s.log.Info(ctx, "inbox synchronized", "entries", len(blocks), "source", "fetch")
	return nil
}

// OnNewEntry appends one block. It reports false when the block was a duplicate.
func (s *InboxSynchronizer) OnNewEntry(b models.Block) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	id := b.StableID()

	s.mu.Lock()
	if _, dup := s.seen[id]; dup && id != "" {
		s.mu.Unlock()
		s.log.Debug(context.Background(), "duplicate block ignored", "id", id)
		return false
	}
	if id != "" {
		s.seen[id] = struct{}{}
	}
	s.blocks = append(s.blocks, b)
	s.entries = append(s.entries, models.NewInboxEntry(b, s.loc))
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Append(context.Background(), b); err != nil {
			s.log.Warn(context.Background(), "failed to cache block", "id", id, "error", err)
		}
	}
	s.notify()
	return true
}

// OnFullResync replaces the whole sequence with blocks, in order.
func (s *InboxSynchronizer) OnFullResync(blocks []models.Block) {
	s.replace(context.Background(), blocks)
	s.log.Info(context.Background(), "inbox synchronized", "entries", len(blocks), "source", "push")
}

func (s *InboxSynchronizer) replace(ctx context.Context, blocks []models.Block) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.swap(blocks)
	if s.cache != nil {
		if err := s.cache.ReplaceAll(ctx, blocks); err != nil {
			s.log.Warn(ctx, "failed to cache inbox", "error", err)
		}
	}
}

// swap installs blocks as the new sequence. Callers hold writeMu.
func (s *InboxSynchronizer) swap(blocks []models.Block) {
	nb := make([]models.Block, len(blocks))
	copy(nb, blocks)
	entries := make([]models.InboxEntry, len(nb))
	seen := make(map[string]struct{}, len(nb))
	for i, b := range nb {
		entries[i] = models.NewInboxEntry(b, s.loc)
		if id := b.StableID(); id != "" {
			seen[id] = struct{}{}
		}
	}

	s.mu.Lock()
	s.blocks, s.entries, s.seen = nb, entries, seen
	s.mu.Unlock()
	s.notify()
}

// OnConnecting marks a dial in progress, including every reconnect attempt.
func (s *InboxSynchronizer) OnConnecting() {
	s.setState(pushchan.Connecting)
}

func (s *InboxSynchronizer) OnConnect() {
	s.setState(pushchan.Connected)
	s.log.Info(context.Background(), "connected to push channel")
}

func (s *InboxSynchronizer) OnDisconnect(err error) {
	s.setState(pushchan.Disconnected)
	s.log.Warn(context.Background(), "disconnected from push channel", "error", err)
}

// OnEvent decodes push events; it makes the synchronizer a pushchan.Handler.
func (s *InboxSynchronizer) OnEvent(name string, payload json.RawMessage) {
	ctx := context.Background()
	switch name {
	case EventNewBlock:
		var b models.Block
		if err := json.Unmarshal(payload, &b); err != nil {
			s.log.Warn(ctx, "malformed new_block event", "error", err)
			return
		}
		s.OnNewEntry(b)
	case EventBlockchainUpdate:
		var blocks []models.Block
		if err := json.Unmarshal(payload, &blocks); err != nil {
			s.log.Warn(ctx, "malformed blockchain_update event", "error", err)
			return
		}
		s.OnFullResync(blocks)
	default:
		s.log.Debug(ctx, "ignoring push event", "event", name)
	}
}

// Run opens the push channel and applies its events until ctx is done.
// The channel is closed on return however Run exits.
func (s *InboxSynchronizer) Run(ctx context.Context) error {
	ch, err := s.newChannel()
	if err != nil {
		return fmt.Errorf("open push channel: %w", err)
	}
	s.setState(pushchan.Connecting)
	defer func() {
		if err := ch.Close(); err != nil {
			s.log.Warn(ctx, "failed to close push channel", "error", err)
		}
		s.setState(pushchan.Disconnected)
	}()

	return ch.Run(ctx, s)
}

func (s *InboxSynchronizer) setState(st pushchan.State) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()
	if changed {
		s.notify()
	}
}

// State is the push channel state as last observed.
func (s *InboxSynchronizer) State() pushchan.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Entries returns a copy of the full sequence.
func (s *InboxSynchronizer) Entries() []models.InboxEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.InboxEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Blocks returns a copy of the raw blocks behind the sequence.
func (s *InboxSynchronizer) Blocks() []models.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Block, len(s.blocks))
	copy(out, s.blocks)
	return out
}

// Preview is the display projection: the first PreviewSize entries, or the
// empty state.
func (s *InboxSynchronizer) Preview() models.InboxView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(len(s.entries), s.preview)
	view := models.InboxView{
		Entries: make([]models.InboxEntry, n),
		Total:   len(s.entries),
	}
	copy(view.Entries, s.entries[:n])
	if n == 0 {
		view.Empty = true
		view.EmptyText = EmptyInboxText
	}
	return view
}

// Subscribe returns a channel that receives a signal after each change.
// Signals coalesce: a slow reader sees at least one pending signal.
// Call cancel to stop receiving.
func (s *InboxSynchronizer) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, ch)
			s.subsMu.Unlock()
		})
	}
}

func (s *InboxSynchronizer) notify() {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
