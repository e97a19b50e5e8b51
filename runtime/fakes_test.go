package runtime

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"sync"
	"time"
)

// In-memory collaborators for room and registry tests. They count their
// storage calls so tests can assert the caches actually short-circuit.

type fakeMessageRepo struct {
	mu          sync.Mutex
	warm        []repositories.DiskMessage
	byClientID  map[string]repositories.DiskMessage
	stored      []repositories.DiskMessage
	getCalls    int
	parentCalls int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{byClientID: make(map[string]repositories.DiskMessage)}
}

func (f *fakeMessageRepo) StoreMessage(message repositories.DiskMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = append(f.stored, message)
	f.byClientID[message.ClientID] = message
	return nil
}

func (f *fakeMessageRepo) GetMessages(_ string, _ domain.RoomKind) ([]repositories.DiskMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return append([]repositories.DiskMessage{}, f.warm...), nil
}

func (f *fakeMessageRepo) GetMessagesByParentIDs(_ string, _ domain.RoomKind, parentIDs []string) ([]repositories.DiskMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parentCalls++
	var parents []repositories.DiskMessage
	for _, id := range parentIDs {
		if parent, ok := f.byClientID[id]; ok {
			parents = append(parents, parent)
		}
	}
	return parents, nil
}

type fakeUserRepo struct {
	mu       sync.Mutex
	profiles map[string]string
	calls    int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{profiles: make(map[string]string)}
}

func (f *fakeUserRepo) SaveProfile(profile repositories.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profile.ID] = profile.DisplayName
	return nil
}

func (f *fakeUserRepo) GetDisplayNames(userIDs []string) ([]repositories.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var profiles []repositories.Profile
	for _, id := range userIDs {
		if name, ok := f.profiles[id]; ok {
			profiles = append(profiles, repositories.Profile{ID: id, DisplayName: name})
		}
	}
	return profiles, nil
}

type latestMessageCall struct {
	room     int
	text     string
	authorID string
}

type fakeFriendshipRepo struct {
	mu    sync.Mutex
	calls []latestMessageCall
}

func (f *fakeFriendshipRepo) UpdateLatestMessage(room int, text, authorID string, _ *domain.DirectValidation, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, latestMessageCall{room: room, text: text, authorID: authorID})
	return nil
}

func (f *fakeFriendshipRepo) snapshot() []latestMessageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]latestMessageCall{}, f.calls...)
}

type fakeQueue struct {
	mu      sync.Mutex
	entries []domain.QueueEntry
}

func (f *fakeQueue) Push(_ context.Context, entry domain.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeQueue) Pop(_ context.Context) (domain.QueueEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.entries) == 0 {
		return domain.QueueEntry{}, false, nil
	}
	entry := f.entries[0]
	f.entries = f.entries[1:]
	return entry, true, nil
}

func (f *fakeQueue) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

type recordingMember struct {
	id     string
	mu     sync.Mutex
	seen   []domain.Envelope
	closed bool
}

func (m *recordingMember) ID() string { return m.id }

func (m *recordingMember) Send(payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if envelope, ok := payload.(domain.Envelope); ok {
		m.seen = append(m.seen, envelope)
	}
}

func (m *recordingMember) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *recordingMember) envelopes() []domain.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Envelope{}, m.seen...)
}

func (m *recordingMember) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type testWorld struct {
	messages    *fakeMessageRepo
	profiles    *fakeUserRepo
	friendships *fakeFriendshipRepo
	queue       *fakeQueue
	deps        RoomDeps
}

func newTestWorld() *testWorld {
	w := &testWorld{
		messages:    newFakeMessageRepo(),
		profiles:    newFakeUserRepo(),
		friendships: &fakeFriendshipRepo{},
		queue:       &fakeQueue{},
	}
	w.deps = RoomDeps{
		Messages:    w.messages,
		Profiles:    w.profiles,
		Friendships: w.friendships,
		Queue:       w.queue,
		AvatarBase:  "https://avatars.example.dev/v1",
		QueueDelay:  time.Millisecond,
		Log:         slog.Default(),
	}
	return w
}
