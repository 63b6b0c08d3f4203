// Package plugin ties the host IRC-client's signals to the Slack components:
// backlog on join, read-marker reconciliation on window activity, settings
// propagation, and the user-facing mark command. Everything runs on the host
// dispatch thread; handlers complete before the next signal arrives.
package plugin

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/ewholloway/slackline/internal/history"
	"github.com/ewholloway/slackline/internal/marker"
	"github.com/ewholloway/slackline/pkg/logger"
)

// Credentials is the token surface of the API gateway.
type Credentials interface {
	SetToken(token string)
	HasCredential() bool
}

// Fetcher retrieves backlog for a conversation name.
type Fetcher interface {
	FetchLog(ctx context.Context, name string, count int) ([]history.Message, error)
}

// Reconciler pushes read markers for a viewport.
type Reconciler interface {
	Reconcile(ctx context.Context, channel string, lines []marker.Line, height int) error
}

// Warmer refreshes the user directory eagerly.
type Warmer interface {
	WarmUsers(ctx context.Context)
}

// Plugin is the signal dispatcher.
type Plugin struct {
	settings Settings
	windows  Windows
	printer  Printer

	creds   Credentials
	fetcher Fetcher
	rec     Reconciler
	dir     Warmer

	log logger.Logger
}

// New wires the plugin. All collaborators are required.
func New(settings Settings, windows Windows, printer Printer, creds Credentials, fetcher Fetcher, rec Reconciler, dir Warmer, log logger.Logger) *Plugin {
	return &Plugin{
		settings: settings,
		windows:  windows,
		printer:  printer,
		creds:    creds,
		fetcher:  fetcher,
		rec:      rec,
		dir:      dir,
		log:      log,
	}
}

func (p *Plugin) backlogSize() int {
	if n := p.settings.Int(SettingBacklog); n > 0 {
		return n
	}
	return DefaultBacklog
}

// HandleServerConnected logs the start of a gateway session.
func (p *Plugin) HandleServerConnected(ctx context.Context, addr string) {
	if !IsSlackHost(addr) {
		return
	}
	p.log.Info("slack gateway connected", logger.StringField("server", addr))
}

// HandleServerDisconnected logs the end of a gateway session. The directory
// and mark state survive; they are process-lifetime, not session-lifetime.
func (p *Plugin) HandleServerDisconnected(ctx context.Context, addr string) {
	if !IsSlackHost(addr) {
		return
	}
	p.log.Info("slack gateway disconnected", logger.StringField("server", addr))
}

// HandleChannelJoined fetches the channel's backlog and prints it, oldest
// first, into the joined window.
func (p *Plugin) HandleChannelJoined(ctx context.Context, serverAddr, channel string) {
	if !IsSlackHost(serverAddr) {
		return
	}
	ctx, _ = logger.EnsureCorrelationID(ctx)
	log := logger.GetLoggerFromContext(ctx, p.log)

	msgs, err := p.fetcher.FetchLog(ctx, channel, p.backlogSize())
	if err != nil {
		if errors.Is(err, history.ErrUnimplemented) {
			log.Debug("no backlog for direct messages", logger.StringField("channel", channel))
			return
		}
		log.Warn("backlog fetch skipped", logger.StringField("channel", channel), logger.ErrorField(err))
		return
	}

	for _, m := range msgs {
		p.printer.PrintMessage(channel, m)
	}
	log.Debug("backlog replayed",
		logger.StringField("channel", channel),
		logger.IntField("messages", len(msgs)))
}

// HandleWindowChanged reconciles the read marker of the newly active window.
func (p *Plugin) HandleWindowChanged(ctx context.Context, win Window) {
	ctx, _ = logger.EnsureCorrelationID(ctx)
	p.reconcile(ctx, win)
}

// HandlePublicMessage reconciles when a message lands in the window the user
// is both looking at and scrolled to the bottom of. A message arriving while
// scrolled up must not auto-mark itself read.
func (p *Plugin) HandlePublicMessage(ctx context.Context, serverAddr, channel string) {
	if !IsSlackHost(serverAddr) {
		return
	}
	active := p.windows.Active()
	if active == nil || active.Name() != channel || !active.AtBottom() {
		return
	}
	ctx, _ = logger.EnsureCorrelationID(ctx)
	p.reconcile(ctx, active)
}

// HandleSettingsChanged re-reads the token into the gateway and warms the
// user directory; with no token both are safe no-ops.
func (p *Plugin) HandleSettingsChanged(ctx context.Context) {
	p.creds.SetToken(p.settings.String(SettingToken))
	p.dir.WarmUsers(ctx)
}

// HandleMarkCommand reconciles each named window independently. The reserved
// token "active" names the currently active window.
func (p *Plugin) HandleMarkCommand(ctx context.Context, args string) {
	ctx, _ = logger.EnsureCorrelationID(ctx)
	log := logger.GetLoggerFromContext(ctx, p.log)

	for _, name := range strings.Fields(args) {
		var win Window
		if name == ActiveWindowToken {
			win = p.windows.Active()
		} else {
			w, ok := p.windows.Find(name)
			if !ok {
				log.Warn("no such window", logger.StringField("window", name))
				continue
			}
			win = w
		}
		p.reconcile(ctx, win)
	}
}

// reconcile applies the entry guards and hands the viewport to the
// reconciler. Guard failures are silent no-ops.
func (p *Plugin) reconcile(ctx context.Context, win Window) {
	if win == nil || !win.IsChannel() || !IsSlackHost(win.ServerAddress()) {
		return
	}
	if !p.creds.HasCredential() {
		return
	}

	lines, height := win.Viewport()
	if err := p.rec.Reconcile(ctx, win.Name(), lines, height); err != nil {
		logger.GetLoggerFromContext(ctx, p.log).Warn("read marker push failed",
			logger.StringField("channel", win.Name()),
			logger.ErrorField(err))
	}
}
