// Package directory maintains the local name/identifier tables for the
// Slack workspace: users (ID to display name), public channels and private
// groups (name to ID). Each table is refreshed lazily on a TTL and replaced
// wholesale; a failed refresh leaves the previous data in place, so a remote
// outage degrades to serving stale names rather than none.
package directory

import (
	"context"
	"net/http"
	"time"

	"github.com/ewholloway/slackline/pkg/logger"
	"github.com/ewholloway/slackline/pkg/metrics"
)

// DefaultTTL is how long a table is considered fresh after a successful
// refresh.
const DefaultTTL = 4 * time.Hour

// Caller is the slice of the API gateway the directory needs.
type Caller interface {
	Call(ctx context.Context, method, endpoint string, params map[string]string, out any) error
	HasCredential() bool
}

// table pairs a mapping with the time it was last replaced. The two fields
// are only ever assigned together.
type table struct {
	entries       map[string]string
	lastRefreshed time.Time
}

// Directory owns the three lookup tables. It is confined to the host
// dispatch thread; no locking.
type Directory struct {
	api Caller
	ttl time.Duration
	now func() time.Time

	log logger.Logger
	m   *metrics.Metrics

	users    table
	channels table
	groups   table
}

// Option configures a Directory.
type Option func(*Directory)

// WithTTL overrides the refresh TTL.
func WithTTL(ttl time.Duration) Option {
	return func(d *Directory) { d.ttl = ttl }
}

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

// WithMetrics attaches refresh counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Directory) { d.m = m }
}

// New returns a Directory with empty tables; the first lookup on each
// resource triggers its first listing.
func New(api Caller, log logger.Logger, opts ...Option) *Directory {
	d := &Directory{
		api: api,
		ttl: DefaultTTL,
		now: time.Now,
		log: log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

type member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type userListing struct {
	Members []member `json:"members"`
}

type channelListing struct {
	Channels []member `json:"channels"`
}

type groupListing struct {
	Groups []member `json:"groups"`
}

// UserName resolves a Slack user ID to its display name. With no credential
// configured it returns absent without attempting any network I/O, so it is
// safe to call unconditionally from a settings-changed trigger.
func (d *Directory) UserName(ctx context.Context, id string, force bool) (string, bool) {
	if !d.api.HasCredential() {
		return "", false
	}
	return d.lookup(ctx, &d.users, id, force, d.refreshUsers)
}

// ChannelID resolves a public channel name to its ID.
func (d *Directory) ChannelID(ctx context.Context, name string, force bool) (string, bool) {
	return d.lookup(ctx, &d.channels, name, force, d.refreshChannels)
}

// GroupID resolves a private group name to its ID.
func (d *Directory) GroupID(ctx context.Context, name string, force bool) (string, bool) {
	return d.lookup(ctx, &d.groups, name, force, d.refreshGroups)
}

// lookup serves key from t, refreshing first when forced, when the key is
// absent, or when the table has aged past the TTL. A failed refresh keeps
// the previous entries and timestamp untouched.
func (d *Directory) lookup(ctx context.Context, t *table, key string, force bool, refresh func(context.Context) (map[string]string, error)) (string, bool) {
	_, present := t.entries[key]
	stale := d.now().Sub(t.lastRefreshed) >= d.ttl

	if force || !present || stale {
		entries, err := refresh(ctx)
		if err != nil {
			d.log.Warn("directory refresh failed, serving cached data",
				logger.ErrorField(err))
		} else {
			t.entries = entries
			t.lastRefreshed = d.now()
		}
	}

	v, ok := t.entries[key]
	return v, ok
}

func (d *Directory) refreshUsers(ctx context.Context) (map[string]string, error) {
	var listing userListing
	if err := d.api.Call(ctx, http.MethodGet, "users.list", nil, &listing); err != nil {
		return nil, err
	}
	d.countRefresh("users")
	entries := make(map[string]string, len(listing.Members))
	for _, m := range listing.Members {
		entries[m.ID] = m.Name
	}
	return entries, nil
}

func (d *Directory) refreshChannels(ctx context.Context) (map[string]string, error) {
	var listing channelListing
	err := d.api.Call(ctx, http.MethodGet, "channels.list", map[string]string{"exclude_archived": "1"}, &listing)
	if err != nil {
		return nil, err
	}
	d.countRefresh("channels")
	return indexByName(listing.Channels), nil
}

func (d *Directory) refreshGroups(ctx context.Context) (map[string]string, error) {
	var listing groupListing
	err := d.api.Call(ctx, http.MethodGet, "groups.list", map[string]string{"exclude_archived": "1"}, &listing)
	if err != nil {
		return nil, err
	}
	d.countRefresh("groups")
	return indexByName(listing.Groups), nil
}

func indexByName(members []member) map[string]string {
	entries := make(map[string]string, len(members))
	for _, m := range members {
		entries[m.Name] = m.ID
	}
	return entries
}

// WarmUsers refreshes the user table eagerly. Without a credential it is a
// no-op; the settings-changed trigger calls it after a token change.
func (d *Directory) WarmUsers(ctx context.Context) {
	if !d.api.HasCredential() {
		return
	}
	d.lookup(ctx, &d.users, "", true, d.refreshUsers)
}

func (d *Directory) countRefresh(resource string) {
	if d.m != nil {
		d.m.IncrementCacheRefresh(resource)
	}
}
