// Package history retrieves a conversation's recent backlog and turns the
// raw message records into display rows: edited messages collapsed to their
// nested original payload, non-message subtypes dropped, order flipped to
// oldest-first, user IDs resolved to names.
package history

import (
	"context"
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ewholloway/slackline/internal/directory"
	"github.com/ewholloway/slackline/internal/gateway"
	"github.com/ewholloway/slackline/pkg/logger"
)

// ErrUnimplemented marks direct-message backlog, which needs a name to
// IM-channel mapping this plugin does not maintain.
var ErrUnimplemented = errors.New("direct message history is not implemented")

// Caller is the slice of the API gateway the fetcher needs.
type Caller interface {
	Call(ctx context.Context, method, endpoint string, params map[string]string, out any) error
}

// Resolver is the slice of the directory the fetcher needs.
type Resolver interface {
	Classify(ctx context.Context, name string) directory.Classification
	GroupID(ctx context.Context, name string, force bool) (string, bool)
	UserName(ctx context.Context, id string, force bool) (string, bool)
}

// Message is one backlog row ready for rendering. User is the resolved
// display name, empty when the ID could not be resolved. Timestamp is the
// raw Slack "seconds.sequence" string.
type Message struct {
	User      string
	Text      string
	Timestamp string
}

// Fetcher retrieves and normalizes conversation backlog.
type Fetcher struct {
	api Caller
	dir Resolver
	log logger.Logger
}

// NewFetcher returns a Fetcher over the given gateway and directory.
func NewFetcher(api Caller, dir Resolver, log logger.Logger) *Fetcher {
	return &Fetcher{api: api, dir: dir, log: log}
}

const subtypeMessageChanged = "message_changed"

type record struct {
	Subtype string `json:"subtype"`
	User    string `json:"user"`
	Text    string `json:"text"`
	TS      string `json:"ts"`
	Message *struct {
		User string `json:"user"`
		Text string `json:"text"`
	} `json:"message"`
}

type historyListing struct {
	Messages []record `json:"messages"`
}

// FetchLog returns up to count backlog messages for name, oldest first. A
// leading "#" is stripped before resolution. A name classified as a
// direct-message target yields ErrUnimplemented.
func (f *Fetcher) FetchLog(ctx context.Context, name string, count int) ([]Message, error) {
	if len(name) > 0 && name[0] == '#' {
		name = name[1:]
	}

	cls := f.dir.Classify(ctx, name)
	switch cls.Kind {
	case directory.KindPublicChannel:
		msgs, err := f.fetch(ctx, "channels.history", cls.ID, count)
		if err == nil {
			return msgs, nil
		}
		// A stale channels table can classify a converted or recreated
		// conversation as public; the history endpoint is the
		// authority. Retry as a group only on its not-found code.
		var rerr *gateway.RemoteError
		if errors.As(err, &rerr) && rerr.Code == gateway.CodeChannelNotFound {
			if id, ok := f.dir.GroupID(ctx, name, false); ok {
				return f.fetch(ctx, "groups.history", id, count)
			}
		}
		return nil, err
	case directory.KindPrivateGroup:
		return f.fetch(ctx, "groups.history", cls.ID, count)
	default:
		return nil, ErrUnimplemented
	}
}

func (f *Fetcher) fetch(ctx context.Context, endpoint, id string, count int) ([]Message, error) {
	params := map[string]string{
		"channel": id,
		"count":   strconv.Itoa(count),
	}

	var listing historyListing
	if err := f.api.Call(ctx, http.MethodGet, endpoint, params, &listing); err != nil {
		return nil, err
	}

	// The API returns newest first; emit in reading order.
	msgs := make([]Message, 0, len(listing.Messages))
	for i := len(listing.Messages) - 1; i >= 0; i-- {
		m, ok := normalize(listing.Messages[i])
		if !ok {
			continue
		}
		if name, ok := f.dir.UserName(ctx, m.User, false); ok {
			m.User = name
		} else {
			m.User = ""
		}
		msgs = append(msgs, m)
	}

	return msgs, nil
}

// normalize maps a raw record to a display message. Plain messages pass
// through; an edited message's effective text and author live in its nested
// original payload; every other subtype is discarded.
func normalize(r record) (Message, bool) {
	switch r.Subtype {
	case "":
		return Message{User: r.User, Text: r.Text, Timestamp: r.TS}, true
	case subtypeMessageChanged:
		if r.Message == nil {
			return Message{}, false
		}
		return Message{User: r.Message.User, Text: r.Message.Text, Timestamp: r.TS}, true
	default:
		return Message{}, false
	}
}
