package history

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewholloway/slackline/internal/directory"
	"github.com/ewholloway/slackline/internal/gateway"
	"github.com/ewholloway/slackline/pkg/logger"
)

// fakeAPI serves canned JSON per endpoint and records calls with their
// params.
type fakeAPI struct {
	bodies map[string]string
	fail   map[string]error
	calls  []call
}

type call struct {
	endpoint string
	params   map[string]string
}

func (f *fakeAPI) HasCredential() bool { return true }

func (f *fakeAPI) Call(_ context.Context, _ string, endpoint string, params map[string]string, out any) error {
	f.calls = append(f.calls, call{endpoint: endpoint, params: params})
	if err, ok := f.fail[endpoint]; ok {
		return err
	}
	body, ok := f.bodies[endpoint]
	if !ok {
		return &gateway.RemoteError{Endpoint: endpoint, Code: gateway.CodeChannelNotFound}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(body), out)
}

func testLogger() logger.Logger {
	return logger.NewLogger(logger.Config{Level: logger.ErrorLevel, Format: "json", Output: &bytes.Buffer{}})
}

func newTestFetcher(api *fakeAPI) *Fetcher {
	log := testLogger()
	dir := directory.New(api, log)
	return NewFetcher(api, dir, log)
}

const workspaceListing = `{"ok":true,"channels":[{"id":"C1","name":"general"}]}`

func TestFetchLogOldestFirst(t *testing.T) {
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list": workspaceListing,
			"users.list":    `{"ok":true,"members":[{"id":"U1","name":"alice"}]}`,
			"channels.history": `{"ok":true,"messages":[
				{"user":"U1","text":"three","ts":"3.000000"},
				{"user":"U1","text":"two","ts":"2.000000"},
				{"user":"U1","text":"one","ts":"1.000000"}]}`,
		},
	}
	f := newTestFetcher(api)

	msgs, err := f.FetchLog(context.Background(), "#general", 20)

	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "one", msgs[0].Text)
	assert.Equal(t, "two", msgs[1].Text)
	assert.Equal(t, "three", msgs[2].Text)
	assert.Equal(t, "1.000000", msgs[0].Timestamp)
}

func TestFetchLogPassesChannelAndCount(t *testing.T) {
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list":    workspaceListing,
			"channels.history": `{"ok":true,"messages":[]}`,
		},
	}
	f := newTestFetcher(api)

	_, err := f.FetchLog(context.Background(), "general", 42)
	require.NoError(t, err)

	last := api.calls[len(api.calls)-1]
	assert.Equal(t, "channels.history", last.endpoint)
	assert.Equal(t, "C1", last.params["channel"])
	assert.Equal(t, "42", last.params["count"])
}

func TestFetchLogNormalizesEditedMessages(t *testing.T) {
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list": workspaceListing,
			"users.list":    `{"ok":true,"members":[{"id":"U1","name":"alice"},{"id":"U2","name":"bob"}]}`,
			"channels.history": `{"ok":true,"messages":[
				{"subtype":"message_changed","ts":"2.000000","user":"USLACKBOT","text":"",
				 "message":{"user":"U2","text":"fixed typo"}},
				{"user":"U1","text":"hello","ts":"1.000000"}]}`,
		},
	}
	f := newTestFetcher(api)

	msgs, err := f.FetchLog(context.Background(), "general", 20)

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "alice", msgs[0].User)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "bob", msgs[1].User)
	assert.Equal(t, "fixed typo", msgs[1].Text)
}

func TestFetchLogDropsOtherSubtypes(t *testing.T) {
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list": workspaceListing,
			"channels.history": `{"ok":true,"messages":[
				{"subtype":"channel_join","user":"U1","text":"alice joined","ts":"2.000000"},
				{"user":"U1","text":"hello","ts":"1.000000"}]}`,
		},
	}
	f := newTestFetcher(api)

	msgs, err := f.FetchLog(context.Background(), "general", 20)

	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
}

func TestFetchLogUnresolvableUserYieldsEmptyName(t *testing.T) {
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list":    workspaceListing,
			"users.list":       `{"ok":true,"members":[]}`,
			"channels.history": `{"ok":true,"messages":[{"user":"U9","text":"hi","ts":"1.000000"}]}`,
		},
	}
	f := newTestFetcher(api)

	msgs, err := f.FetchLog(context.Background(), "general", 20)

	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].User)
	assert.Equal(t, "hi", msgs[0].Text)
}

func TestFetchLogGroupHistory(t *testing.T) {
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list":  `{"ok":true,"channels":[]}`,
			"groups.list":    `{"ok":true,"groups":[{"id":"G1","name":"ops"}]}`,
			"groups.history": `{"ok":true,"messages":[{"user":"U1","text":"deploying","ts":"1.000000"}]}`,
		},
	}
	f := newTestFetcher(api)

	msgs, err := f.FetchLog(context.Background(), "ops", 20)

	require.NoError(t, err)
	require.Len(t, msgs, 1)

	var hist *call
	for i := range api.calls {
		if api.calls[i].endpoint == "groups.history" {
			hist = &api.calls[i]
		}
	}
	require.NotNil(t, hist)
	assert.Equal(t, "G1", hist.params["channel"])
}

func TestFetchLogFallsBackToGroupOnNotFound(t *testing.T) {
	// A stale channels table still lists "ops" as public, but the history
	// endpoint rejects it; the fetcher retries via the group family.
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list":  `{"ok":true,"channels":[{"id":"C9","name":"ops"}]}`,
			"groups.list":    `{"ok":true,"groups":[{"id":"G1","name":"ops"}]}`,
			"groups.history": `{"ok":true,"messages":[{"user":"U1","text":"moved","ts":"1.000000"}]}`,
		},
		fail: map[string]error{
			"channels.history": &gateway.RemoteError{Endpoint: "channels.history", Code: gateway.CodeChannelNotFound},
		},
	}
	f := newTestFetcher(api)

	msgs, err := f.FetchLog(context.Background(), "ops", 20)

	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "moved", msgs[0].Text)
}

func TestFetchLogDoesNotMaskUnrelatedRemoteErrors(t *testing.T) {
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list": workspaceListing,
		},
		fail: map[string]error{
			"channels.history": &gateway.RemoteError{Endpoint: "channels.history", Code: "ratelimited"},
		},
	}
	f := newTestFetcher(api)

	_, err := f.FetchLog(context.Background(), "general", 20)

	var rerr *gateway.RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "ratelimited", rerr.Code)
	for _, c := range api.calls {
		assert.NotEqual(t, "groups.history", c.endpoint)
	}
}

func TestFetchLogDirectMessageUnimplemented(t *testing.T) {
	api := &fakeAPI{
		bodies: map[string]string{
			"channels.list": `{"ok":true,"channels":[]}`,
			"groups.list":   `{"ok":true,"groups":[]}`,
		},
	}
	f := newTestFetcher(api)

	msgs, err := f.FetchLog(context.Background(), "alice", 20)

	assert.ErrorIs(t, err, ErrUnimplemented)
	assert.Empty(t, msgs)
}

func TestNormalizeIdempotentAcrossRepresentations(t *testing.T) {
	edited := record{
		Subtype: subtypeMessageChanged,
		TS:      "5.000100",
		Message: &struct {
			User string `json:"user"`
			Text string `json:"text"`
		}{User: "U1", Text: "same text"},
	}
	plain := record{User: "U1", Text: "same text", TS: "5.000100"}

	a, ok := normalize(edited)
	require.True(t, ok)
	b, ok := normalize(plain)
	require.True(t, ok)

	assert.Equal(t, b, a)
}
