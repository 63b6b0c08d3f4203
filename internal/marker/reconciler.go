// Package marker keeps Slack's per-conversation "last read" pointer in step
// with what the user has actually scrolled to. It computes the newest fully
// visible line of a viewport and pushes that line's timestamp to the mark
// endpoint, but only when it is strictly newer than the last value this
// process pushed for the conversation.
package marker

import (
	"context"
	"net/http"
	"strings"

	"github.com/ewholloway/slackline/internal/directory"
	"github.com/ewholloway/slackline/pkg/logger"
	"github.com/ewholloway/slackline/pkg/metrics"
)

// Caller is the slice of the API gateway the reconciler needs.
type Caller interface {
	Call(ctx context.Context, method, endpoint string, params map[string]string, out any) error
	HasCredential() bool
}

// Classifier is the slice of the directory the reconciler needs.
type Classifier interface {
	Classify(ctx context.Context, name string) directory.Classification
}

// Reconciler tracks, per conversation, the newest timestamp this process has
// pushed as the read marker. The state is process-lifetime only; after a
// restart the first reconciliation may redundantly re-push a marker the
// remote side already has, which the API treats as a no-op.
type Reconciler struct {
	api Caller
	dir Classifier
	log logger.Logger
	m   *metrics.Metrics

	marks map[string]string
}

// NewReconciler returns a Reconciler with no pushed marks.
func NewReconciler(api Caller, dir Classifier, log logger.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		api:   api,
		dir:   dir,
		log:   log,
		m:     m,
		marks: make(map[string]string),
	}
}

// Reconcile considers the viewport of channel described by lines (starting
// at the first visible line) and height, and pushes the candidate line's
// timestamp when it advances the marker. Everything short of a failed push
// is a silent no-op: no credential, empty viewport, unmarked lines, a
// candidate at or behind the last push, or a direct-message target.
func (r *Reconciler) Reconcile(ctx context.Context, channel string, lines []Line, height int) error {
	if !r.api.HasCredential() {
		return nil
	}

	idx := LastVisibleIndex(lines, height)
	if idx < 0 {
		return nil
	}
	ts := lines[idx].Timestamp
	if ts == "" {
		return nil
	}

	name := strings.TrimPrefix(channel, "#")
	if !tsAfter(ts, r.marks[name]) {
		return nil
	}

	cls := r.dir.Classify(ctx, name)
	var endpoint string
	switch cls.Kind {
	case directory.KindPublicChannel:
		endpoint = "channels.mark"
	case directory.KindPrivateGroup:
		endpoint = "groups.mark"
	default:
		// No mark endpoint is wired for IM targets.
		return nil
	}

	params := map[string]string{
		"channel": cls.ID,
		"ts":      ts,
	}
	if err := r.api.Call(ctx, http.MethodGet, endpoint, params, nil); err != nil {
		// Keep the old state so the next trigger retries with the
		// same or a newer candidate.
		return err
	}

	r.marks[name] = ts
	if r.m != nil {
		r.m.IncrementMarkPush()
	}
	r.log.Debug("read marker advanced",
		logger.StringField("channel", name),
		logger.StringField("ts", ts))

	return nil
}

// LastPushed returns the newest timestamp pushed for channel in this
// process, or absent when none has been.
func (r *Reconciler) LastPushed(channel string) (string, bool) {
	ts, ok := r.marks[strings.TrimPrefix(channel, "#")]
	return ts, ok
}
