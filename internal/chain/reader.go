// Package chain reads public data (accounts, blog posts) from the Steem and
// Hive public API nodes. Calls rotate to the next node of the platform after
// each failed attempt.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"cur8/internal/logging"
	"cur8/internal/types"
)

var (
	ErrNoNodes = errors.New("no nodes configured for platform")
	ErrRPC     = errors.New("rpc error")
)

// Config configures a Reader.
type Config struct {
	Nodes      map[types.Platform][]string
	Timeout    time.Duration
	Attempts   int
	HTTPClient *http.Client
}

// Reader is a read-only JSON-RPC client with per-platform node rotation.
type Reader struct {
	mu         sync.Mutex
	nodes      map[types.Platform][]string
	current    map[types.Platform]int
	attempts   int
	httpClient *http.Client
	nextID     atomic.Int64
}

// New creates a Reader.
func New(cfg Config) *Reader {
	if cfg.Attempts < 1 {
		cfg.Attempts = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	nodes := make(map[types.Platform][]string, len(cfg.Nodes))
	for p, list := range cfg.Nodes {
		nodes[p] = append([]string(nil), list...)
	}
	return &Reader{
		nodes:      nodes,
		current:    make(map[types.Platform]int),
		attempts:   cfg.Attempts,
		httpClient: hc,
	}
}

// CurrentNode returns the node the next call for platform will use.
func (r *Reader) CurrentNode(platform types.Platform) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.nodes[platform]
	if len(list) == 0 {
		return ""
	}
	return list[r.current[platform]%len(list)]
}

// switchNode advances platform to its next node.
func (r *Reader) switchNode(platform types.Platform) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.nodes[platform]
	if len(list) == 0 {
		return ""
	}
	r.current[platform] = (r.current[platform] + 1) % len(list)
	next := list[r.current[platform]]
	logging.Chain("switched %s node to: %s", platform, next)
	return next
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// call performs method on the current node of platform, switching node and
// retrying on failure.
func (r *Reader) call(ctx context.Context, platform types.Platform, method string, params any, out any) error {
	if len(r.nodes[platform]) == 0 {
		return fmt.Errorf("%w: %s", ErrNoNodes, platform)
	}

	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		node := r.CurrentNode(platform)
		err := r.once(ctx, node, method, params, out)
		if err == nil {
			return nil
		}
		lastErr = err
		logging.ChainWarn("%s on %s attempt %d/%d failed: %v", method, node, attempt, r.attempts, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < r.attempts {
			r.switchNode(platform)
		}
	}
	return fmt.Errorf("%s: max attempts exceeded: %w", method, lastErr)
}

func (r *Reader) once(ctx context.Context, node, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: r.nextID.Add(1)})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, node, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node returned status %d", resp.StatusCode)
	}

	var rr rpcResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if rr.Error != nil {
		return fmt.Errorf("%w %d: %s", ErrRPC, rr.Error.Code, rr.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// Ping checks that the current node of platform answers, switching node when
// it does not.
func (r *Reader) Ping(ctx context.Context, platform types.Platform) bool {
	var props map[string]any
	if err := r.once(ctx, r.CurrentNode(platform), "condenser_api.get_dynamic_global_properties", []any{}, &props); err != nil {
		logging.ChainWarn("node connection failed for %s, switching: %v", platform, err)
		r.switchNode(platform)
		return false
	}
	return true
}

// AccountExists reports whether handle is a registered account on platform.
func (r *Reader) AccountExists(ctx context.Context, platform types.Platform, handle string) (bool, error) {
	var accounts []struct {
		Name string `json:"name"`
	}
	if err := r.call(ctx, platform, "condenser_api.get_accounts", []any{[]string{handle}}, &accounts); err != nil {
		return false, err
	}
	for _, a := range accounts {
		if a.Name == handle {
			return true, nil
		}
	}
	return false, nil
}

type discussion struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Title    string `json:"title"`
	Created  string `json:"created"`
}

// nodeTimeLayout is the zone-less UTC timestamp format used by the nodes.
const nodeTimeLayout = "2006-01-02T15:04:05"

// LatestPost returns the newest blog entry of handle, or nil when the blog
// is empty.
func (r *Reader) LatestPost(ctx context.Context, platform types.Platform, handle string) (*types.Post, error) {
	var posts []discussion
	query := map[string]any{"tag": handle, "limit": 1}
	if err := r.call(ctx, platform, "condenser_api.get_discussions_by_blog", []any{query}, &posts); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}
	d := posts[0]
	created, err := time.ParseInLocation(nodeTimeLayout, d.Created, time.UTC)
	if err != nil {
		logging.ChainDebug("unparseable created %q for %s/%s", d.Created, d.Author, d.Permlink)
	}
	return &types.Post{
		Author:   d.Author,
		Permlink: d.Permlink,
		Title:    d.Title,
		Created:  created,
		Platform: platform,
	}, nil
}
