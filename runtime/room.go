package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// historyLimit caps the in-memory recent history of a room.
const historyLimit = 50

// gifPlaceholder replaces the raw text in the latest-message
// denormalization when the posted message is not plain text.
const gifPlaceholder = "GIF"

// RoomDeps bundles the collaborators every room needs. One instance is built
// at process start and shared by the registry.
type RoomDeps struct {
	Messages    repositories.IMessageRepository
	Profiles    repositories.IUserRepository
	Friendships repositories.IFriendshipRepository
	Queue       contract.IQueue
	AvatarBase  string
	QueueDelay  time.Duration
	Log         *slog.Logger
}

// Room is one addressable chat channel. It owns its membership, a bounded
// recent-history buffer and the enrichment caches. All mutation goes through
// the room mutex so concurrent posts are serialized: history order, the
// 50-entry trim and cache fills are deterministic, and every member observes
// broadcasts in the same order.
type Room struct {
	key        string
	kind       domain.RoomKind
	validation *domain.DirectValidation
	deps       RoomDeps
	enricher   *Enricher

	mu      sync.Mutex
	members map[string]contract.Member
	history []domain.EnrichedMessage

	ready chan struct{}
	log   *slog.Logger
}

// NewRoom allocates a room and starts warming its history from storage in
// the background. The constructor returns immediately; callers either wait
// on Ready or race Join against the warm-up.
func NewRoom(key string, kind domain.RoomKind, validation *domain.DirectValidation, deps RoomDeps) *Room {
	r := &Room{
		key:        key,
		kind:       kind,
		validation: validation,
		deps:       deps,
		enricher:   NewEnricher(key, kind, deps.Messages, deps.Profiles, deps.AvatarBase, deps.Log),
		members:    make(map[string]contract.Member),
		ready:      make(chan struct{}),
		log:        deps.Log,
	}
	r.log.Info("Room created", "room", key, "kind", kind)
	go r.warmUp()
	return r
}

// warmUp loads the stored history of the room, oldest first, runs it through
// enrichment and installs it as the initial history. A storage failure is
// logged and leaves the room with an empty history; the room still becomes
// ready so joins are never wedged.
func (r *Room) warmUp() {
	defer close(r.ready)

	stored, err := r.deps.Messages.GetMessages(r.key, r.kind)
	if err != nil {
		r.log.Warn("History warm-up failed", "room", r.key, "error", err)
		return
	}
	raw := make([]domain.Message, 0, len(stored))
	for _, m := range stored {
		raw = append(raw, fromDiskMessage(m))
	}
	enriched := r.enricher.Enrich(raw)

	r.mu.Lock()
	r.history = trim(enriched)
	r.mu.Unlock()
}

// Ready is closed once the history warm-up has finished.
func (r *Room) Ready() <-chan struct{} {
	return r.ready
}

func (r *Room) Key() string           { return r.key }
func (r *Room) Kind() domain.RoomKind { return r.kind }

// Join registers a member and immediately sends it the current history
// snapshot as one batch, plus the room identity. Re-joining with an id that
// is already present replaces the previous handle; the replaced handle is
// closed so it does not leak its connection.
func (r *Room) Join(member contract.Member) {
	r.mu.Lock()
	if previous, ok := r.members[member.ID()]; ok {
		r.log.Info("Replacing existing member handle", "room", r.key, "member", member.ID())
		_ = previous.Close()
	}
	r.members[member.ID()] = member
	snapshot := make([]domain.EnrichedMessage, len(r.history))
	copy(snapshot, r.history)
	r.mu.Unlock()

	member.Send(domain.NewBatch(r.key, r.kind, snapshot))
}

// Leave deregisters a member by id. Idempotent when the member is absent.
func (r *Room) Leave(memberID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, memberID)
}

// Post runs a new message through the full pipeline:
//
//  1. persist to storage, fire and forget;
//  2. direct rooms only: refresh the latest-message denormalization;
//  3. enrich, append to history (trimmed to the most recent 50) and
//     broadcast to every member, all under the room mutex so members see
//     one identical order;
//  4. after a fixed delay, emit a queue entry for the notification
//     dispatcher. The delay lets the storage write settle before a
//     downstream consumer re-reads the message.
//
// A failure on any write path is logged and never blocks the broadcast: the
// author always sees their own message reflected in real time.
func (r *Room) Post(authorID string, raw domain.Message) {
	raw.AuthorID = authorID

	go func() {
		if err := r.deps.Messages.StoreMessage(toDiskMessage(r.key, r.kind, raw)); err != nil {
			r.log.Warn("Storing message failed", "room", r.key, "error", err)
		}
	}()

	if r.kind == domain.KindDirect {
		go r.updateLatestMessage(raw)
	}

	r.mu.Lock()
	enriched := r.enricher.Enrich([]domain.Message{raw})[0]
	r.history = trim(append(r.history, enriched))
	for _, member := range r.members {
		member.Send(domain.NewBatch(r.key, r.kind, []domain.EnrichedMessage{enriched}))
	}
	r.mu.Unlock()

	time.AfterFunc(r.deps.QueueDelay, func() {
		entry := domain.QueueEntry{
			Kind:              r.kind,
			Room:              r.key,
			ClientGeneratedID: raw.ClientGeneratedID,
		}
		if err := r.deps.Queue.Push(context.Background(), entry); err != nil {
			r.log.Warn("Queue push failed", "room", r.key, "error", err)
		}
	})
}

func (r *Room) updateLatestMessage(raw domain.Message) {
	roomNumber, err := strconv.Atoi(r.key)
	if err != nil {
		r.log.Warn("Direct room key is not numeric", "room", r.key, "error", err)
		return
	}
	text := raw.Text
	if raw.Kind == "gif" {
		text = gifPlaceholder
	}
	err = r.deps.Friendships.UpdateLatestMessage(roomNumber, text, raw.AuthorID, r.validation, raw.ClientGeneratedID)
	if err != nil {
		r.log.Warn("Latest-message update failed", "room", r.key, "error", err)
	}
}

// IsEmpty reports whether the room has no connected members. The registry
// uses it to garbage-collect idle rooms.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members) == 0
}

// Destroy clears the in-memory history. Storage is untouched.
func (r *Room) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = nil
	r.log.Info("Room destroyed", "room", r.key, "kind", r.kind)
}

// History returns a copy of the current history snapshot.
func (r *Room) History() []domain.EnrichedMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := make([]domain.EnrichedMessage, len(r.history))
	copy(snapshot, r.history)
	return snapshot
}

func trim(history []domain.EnrichedMessage) []domain.EnrichedMessage {
	if len(history) <= historyLimit {
		return history
	}
	return history[len(history)-historyLimit:]
}
