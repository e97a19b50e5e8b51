// Package domain contains the core concepts of the chat system.
// This file defines the per-room metadata caches used by enrichment.
// Entries are append-only: a filled key is never invalidated or rewritten,
// display names and historical message text are treated as immutable for
// the lifetime of a room's process residency.
package domain

// UserEntry is the cached display metadata of one user.
type UserEntry struct {
	DisplayName string
}

// UserCache maps user id to display metadata.
// Not safe for concurrent use: the owning Room serializes access.
type UserCache struct {
	entries map[string]UserEntry
}

func NewUserCache() *UserCache {
	return &UserCache{entries: make(map[string]UserEntry)}
}

func (c *UserCache) Get(userID string) (UserEntry, bool) {
	e, ok := c.entries[userID]
	return e, ok
}

// Fill records an entry for a user id. The first fill wins so the
// append-only invariant holds even on redundant resolution.
func (c *UserCache) Fill(userID string, entry UserEntry) {
	if _, ok := c.entries[userID]; ok {
		return
	}
	c.entries[userID] = entry
}

func (c *UserCache) Len() int {
	return len(c.entries)
}

// ReplyEntry is the cached snippet of a reply parent message.
type ReplyEntry struct {
	ParentText       string
	ParentAuthorID   string
	ParentAuthorName string
}

// ReplyCache maps a client generated message id to its parent snippet.
// Same ownership and append-only rules as UserCache.
type ReplyCache struct {
	entries map[string]ReplyEntry
}

func NewReplyCache() *ReplyCache {
	return &ReplyCache{entries: make(map[string]ReplyEntry)}
}

func (c *ReplyCache) Get(clientGeneratedID string) (ReplyEntry, bool) {
	e, ok := c.entries[clientGeneratedID]
	return e, ok
}

func (c *ReplyCache) Fill(clientGeneratedID string, entry ReplyEntry) {
	if _, ok := c.entries[clientGeneratedID]; ok {
		return
	}
	c.entries[clientGeneratedID] = entry
}

func (c *ReplyCache) Len() int {
	return len(c.entries)
}
