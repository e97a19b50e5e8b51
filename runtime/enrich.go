package runtime

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

// Enricher decorates raw messages with denormalized display metadata:
// author display names and reply-parent snippets. It is owned by exactly one
// Room and relies on the Room's serialization of posts, so it holds no lock
// of its own.
//
// Both caches are filled on demand and never invalidated: names and
// historical text are treated as immutable while the room is resident, and
// staleness is accepted to keep the broadcast path free of repeated storage
// round-trips.
type Enricher struct {
	room       string
	kind       domain.RoomKind
	users      *domain.UserCache
	replies    *domain.ReplyCache
	messages   repositories.IMessageRepository
	profiles   repositories.IUserRepository
	avatarBase string
	log        *slog.Logger
}

func NewEnricher(
	room string,
	kind domain.RoomKind,
	messages repositories.IMessageRepository,
	profiles repositories.IUserRepository,
	avatarBase string,
	log *slog.Logger,
) *Enricher {
	return &Enricher{
		room:       room,
		kind:       kind,
		users:      domain.NewUserCache(),
		replies:    domain.NewReplyCache(),
		messages:   messages,
		profiles:   profiles,
		avatarBase: avatarBase,
		log:        log,
	}
}

// Enrich resolves author and reply-parent metadata for a batch of messages.
// Storage failures and missing reference data degrade gracefully: the
// messages are still returned, with empty display names or absent parent
// fields. It never fails the caller.
func (e *Enricher) Enrich(messages []domain.Message) []domain.EnrichedMessage {
	unresolvedReplyIDs := lo.Filter(lo.Uniq(lo.Map(messages, func(m domain.Message, _ int) string {
		return m.ParentClientGeneratedID
	})), func(id string, _ int) bool {
		if id == "" {
			return false
		}
		_, cached := e.replies.Get(id)
		return !cached
	})

	if len(unresolvedReplyIDs) > 0 {
		e.resolveReplies(messages, unresolvedReplyIDs)
	} else {
		e.resolveUsernames(messages)
	}

	return lo.Map(messages, func(m domain.Message, _ int) domain.EnrichedMessage {
		return e.decorate(m)
	})
}

// resolveReplies fetches the parent rows of unresolved reply ids in one
// batch, makes sure usernames are resolved for both the batch and the
// fetched parents, then fills the reply cache. A parent id with no stored
// row is logged and left unresolved, the child still renders without its
// quoted parent.
func (e *Enricher) resolveReplies(messages []domain.Message, replyIDs []string) {
	parents, err := e.messages.GetMessagesByParentIDs(e.room, e.kind, replyIDs)
	if err != nil {
		e.log.Warn("Fetching reply parents failed", "room", e.room, "error", err)
		e.resolveUsernames(messages)
		return
	}

	parentMessages := lo.Map(parents, func(p repositories.DiskMessage, _ int) domain.Message {
		return fromDiskMessage(p)
	})
	e.resolveUsernames(append(append([]domain.Message{}, messages...), parentMessages...))

	for _, replyID := range replyIDs {
		parent, found := lo.Find(parentMessages, func(p domain.Message) bool {
			return p.ClientGeneratedID == replyID
		})
		if !found {
			e.log.Info(fmt.Sprintf("Reply with id %s not found", replyID))
			continue
		}
		authorName, _ := e.users.Get(parent.AuthorID)
		e.replies.Fill(replyID, domain.ReplyEntry{
			ParentText:       parent.Text,
			ParentAuthorID:   parent.AuthorID,
			ParentAuthorName: authorName.DisplayName,
		})
	}
}

// resolveUsernames batch-fetches display names for author ids missing from
// the user cache. Users without a stored profile stay unresolved and render
// with an empty display name.
func (e *Enricher) resolveUsernames(messages []domain.Message) {
	unresolved := lo.Filter(lo.Uniq(lo.Map(messages, func(m domain.Message, _ int) string {
		return m.AuthorID
	})), func(id string, _ int) bool {
		if id == "" {
			return false
		}
		_, cached := e.users.Get(id)
		return !cached
	})
	if len(unresolved) == 0 {
		return
	}

	profiles, err := e.profiles.GetDisplayNames(unresolved)
	if err != nil {
		e.log.Warn("Fetching display names failed", "room", e.room, "error", err)
		return
	}
	for _, profile := range profiles {
		e.users.Fill(profile.ID, domain.UserEntry{DisplayName: profile.DisplayName})
	}
}

// decorate maps one raw message to its enriched form using the warmed
// caches. The avatar URL is deterministically derived from the display name.
func (e *Enricher) decorate(m domain.Message) domain.EnrichedMessage {
	user, _ := e.users.Get(m.AuthorID)
	enriched := domain.EnrichedMessage{
		Message:           m,
		AuthorDisplayName: user.DisplayName,
		AuthorImageURL:    fmt.Sprintf("%s/%s", e.avatarBase, user.DisplayName),
	}
	if m.ParentClientGeneratedID == "" {
		return enriched
	}
	if reply, ok := e.replies.Get(m.ParentClientGeneratedID); ok {
		enriched.ParentText = lo.ToPtr(reply.ParentText)
		enriched.ParentAuthorDisplayName = lo.ToPtr(reply.ParentAuthorName)
		enriched.ParentAuthorID = lo.ToPtr(reply.ParentAuthorID)
	}
	return enriched
}

func fromDiskMessage(m repositories.DiskMessage) domain.Message {
	return domain.Message{
		ID:                      m.ID,
		AuthorID:                m.Author,
		Text:                    m.Content,
		ClientGeneratedID:       m.ClientID,
		Kind:                    m.ContentKind,
		ParentClientGeneratedID: m.ParentClientID,
		CreatedAt:               m.At,
	}
}

func toDiskMessage(room string, kind domain.RoomKind, m domain.Message) repositories.DiskMessage {
	return repositories.DiskMessage{
		ID:             m.ID,
		Room:           room,
		Kind:           kind,
		Author:         m.AuthorID,
		Content:        m.Text,
		ContentKind:    m.Kind,
		ClientID:       m.ClientGeneratedID,
		ParentClientID: m.ParentClientGeneratedID,
		At:             m.CreatedAt,
	}
}
