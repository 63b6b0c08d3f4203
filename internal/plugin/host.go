package plugin

import (
	"regexp"

	"github.com/ewholloway/slackline/internal/history"
	"github.com/ewholloway/slackline/internal/marker"
)

// Setting names stored in the host settings store.
const (
	// SettingToken is the Slack token setting; empty leaves the plugin
	// inert.
	SettingToken = "slack_token"
	// SettingBacklog is the number of backlog messages fetched on join.
	SettingBacklog = "slack_backlog"
)

// DefaultBacklog is used when the backlog setting is absent or non-positive.
const DefaultBacklog = 20

// ActiveWindowToken is the reserved mark-command token naming the currently
// active window.
const ActiveWindowToken = "active"

var slackHostPattern = regexp.MustCompile(`^\w+\.irc\.slack\.com`)

// IsSlackHost reports whether a server address belongs to the Slack IRC
// gateway; windows on any other network are ignored.
func IsSlackHost(addr string) bool {
	return slackHostPattern.MatchString(addr)
}

// Settings is the host's named-settings storage.
type Settings interface {
	String(name string) string
	Int(name string) int
}

// Window is the slice of the host window/view model the plugin consumes.
// Viewport returns the line sequence starting at the first visible line,
// with per-line cached row heights, plus the visible height in rows.
type Window interface {
	Name() string
	ServerAddress() string
	IsChannel() bool
	AtBottom() bool
	Viewport() (lines []marker.Line, height int)
}

// Windows looks windows up by name and exposes the active one.
type Windows interface {
	Active() Window
	Find(name string) (Window, bool)
}

// Printer renders backlog messages into a target window.
type Printer interface {
	PrintMessage(target string, m history.Message)
}
