package chain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cur8/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func node(t *testing.T, handler func(call rpcCall) (int, string)) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var call rpcCall
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &call)
		status, out := handler(call)
		w.WriteHeader(status)
		io.WriteString(w, out)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func down(call rpcCall) (int, string) { return http.StatusBadGateway, "bad gateway" }

func TestLatestPost_RotatesToHealthyNode(t *testing.T) {
	bad, badHits := node(t, down)
	good, goodHits := node(t, func(call rpcCall) (int, string) {
		assert.Equal(t, "condenser_api.get_discussions_by_blog", call.Method)
		var q map[string]any
		require.NoError(t, json.Unmarshal(call.Params[0], &q))
		assert.Equal(t, "alice", q["tag"])
		assert.Equal(t, 1.0, q["limit"])
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":[{"author":"alice","permlink":"hello-world","title":"Hello","created":"2024-03-01T10:20:30"}]}`
	})

	r := New(Config{Nodes: map[types.Platform][]string{types.PlatformSteem: {bad.URL, good.URL}}})

	post, err := r.LatestPost(context.Background(), types.PlatformSteem, "alice")
	require.NoError(t, err)
	require.NotNil(t, post)
	assert.Equal(t, "hello-world", post.Permlink)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), post.Created)
	assert.Equal(t, types.PlatformSteem, post.Platform)
	assert.Equal(t, int32(1), badHits.Load())
	assert.Equal(t, int32(1), goodHits.Load())
	assert.Equal(t, good.URL, r.CurrentNode(types.PlatformSteem), "healthy node stays selected")
}

func TestLatestPost_EmptyBlog(t *testing.T) {
	n, _ := node(t, func(call rpcCall) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"result":[]}`
	})
	r := New(Config{Nodes: map[types.Platform][]string{types.PlatformHive: {n.URL}}})

	post, err := r.LatestPost(context.Background(), types.PlatformHive, "nobody")
	require.NoError(t, err)
	assert.Nil(t, post)
}

func TestCall_GivesUpAfterThreeAttempts(t *testing.T) {
	a, aHits := node(t, down)
	b, bHits := node(t, down)
	r := New(Config{Nodes: map[types.Platform][]string{types.PlatformHive: {a.URL, b.URL}}})

	_, err := r.AccountExists(context.Background(), types.PlatformHive, "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max attempts exceeded")
	assert.Equal(t, int32(3), aHits.Load()+bHits.Load())
}

func TestCall_RPCErrorIsAFailure(t *testing.T) {
	n, hits := node(t, func(call rpcCall) (int, string) {
		return http.StatusOK, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"boom"}}`
	})
	r := New(Config{Nodes: map[types.Platform][]string{types.PlatformSteem: {n.URL}}, Attempts: 2})

	_, err := r.AccountExists(context.Background(), types.PlatformSteem, "alice")
	assert.ErrorIs(t, err, ErrRPC)
	assert.Equal(t, int32(2), hits.Load())
}

func TestAccountExists(t *testing.T) {
	n, _ := node(t, func(call rpcCall) (int, string) {
		var names []string
		_ = json.Unmarshal(call.Params[0], &names)
		if len(names) == 1 && names[0] == "alice" {
			return http.StatusOK, `{"result":[{"name":"alice"}]}`
		}
		return http.StatusOK, `{"result":[]}`
	})
	r := New(Config{Nodes: map[types.Platform][]string{types.PlatformSteem: {n.URL}}})

	ok, err := r.AccountExists(context.Background(), types.PlatformSteem, "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.AccountExists(context.Background(), types.PlatformSteem, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoNodes(t *testing.T) {
	r := New(Config{})
	_, err := r.LatestPost(context.Background(), types.PlatformSteem, "alice")
	assert.ErrorIs(t, err, ErrNoNodes)
	assert.Equal(t, "", r.CurrentNode(types.PlatformSteem))
}

func TestPing_SwitchesOnFailure(t *testing.T) {
	a, _ := node(t, down)
	b, _ := node(t, func(call rpcCall) (int, string) {
		return http.StatusOK, `{"result":{"head_block_number":1}}`
	})
	r := New(Config{Nodes: map[types.Platform][]string{types.PlatformSteem: {a.URL, b.URL}}})

	assert.False(t, r.Ping(context.Background(), types.PlatformSteem))
	assert.Equal(t, b.URL, r.CurrentNode(types.PlatformSteem))
	assert.True(t, r.Ping(context.Background(), types.PlatformSteem))
}

func TestParsePostRef(t *testing.T) {
	tests := []struct {
		in       string
		author   string
		permlink string
	}{
		{"@alice/hello", "alice", "hello"},
		{"alice/hello", "alice", "hello"},
		{"https://steemit.com/@alice/hello", "alice", "hello"},
		{"https://steemit.com/photography/@alice/hello", "alice", "hello"},
		{"https://peakd.com/@bob/post-1/", "bob", "post-1"},
		{"https://cur8.fun/#/@carol/my-post", "carol", "my-post"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, p, err := ParsePostRef(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.author, a)
			assert.Equal(t, tt.permlink, p)
		})
	}

	for _, bad := range []string{"", "alice", "@alice/", "https://steemit.com/"} {
		_, _, err := ParsePostRef(bad)
		assert.ErrorIs(t, err, ErrInvalidPostRef, bad)
	}
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://steemit.com/@a/p", PostURL(types.PlatformSteem, "a", "p"))
	assert.Equal(t, "https://peakd.com/@a/p", PostURL(types.PlatformHive, "a", "p"))
	assert.Equal(t, "https://cur8.fun/#/@a/p", ViewURL("a", "p"))

}

func TestCanonicalPostURL_KeepsChainOfFrontEnd(t *testing.T) {
	tests := []struct {
		active types.Platform
		in     string
		want   string
	}{
		{types.PlatformSteem, "https://hive.blog/@alice/my-first-post", "https://peakd.com/@alice/my-first-post"},
		{types.PlatformSteem, "https://peakd.com/hive-1/@alice/my-first-post", "https://peakd.com/@alice/my-first-post"},
		{types.PlatformSteem, "https://www.ecency.com/@alice/p", "https://peakd.com/@alice/p"},
		{types.PlatformHive, "https://steemit.com/@a/p", "https://steemit.com/@a/p"},
		{types.PlatformHive, "@a/p", "https://peakd.com/@a/p"},
		{types.PlatformSteem, "a/p", "https://steemit.com/@a/p"},
		{types.PlatformHive, "https://cur8.fun/#/@a/p", "https://peakd.com/@a/p"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := CanonicalPostURL(tt.active, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, u)
		})
	}
}
