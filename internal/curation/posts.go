package curation

import (
	"context"
	"fmt"

	"cur8/internal/chain"
	"cur8/internal/logging"
	"cur8/internal/types"
)

// LatestPost reads the newest blog entry of a tracked account, or of any
// handle on the active platform. A nil post means the blog is empty.
func (c *Coordinator) LatestPost(ctx context.Context, handle string) (*types.Post, error) {
	if c.chain == nil {
		return nil, ErrChainUnavailable
	}
	handle = types.NormalizeHandle(handle)
	platform := c.platform
	if a, ok := c.accounts.Get(handle); ok {
		platform = a.Platform
	}
	post, err := c.chain.LatestPost(ctx, platform, handle)
	if err != nil {
		logging.CurationWarn("Error loading post for @%s: %v", handle, err)
		return nil, fmt.Errorf("failed to load latest post: %w", err)
	}
	return post, nil
}

// Voters ranks the voters of a post. ref may be a post URL or
// "@author/permlink"; it is resolved against the active platform.
func (c *Coordinator) Voters(ctx context.Context, ref string) (*types.VotersResponse, error) {
	postURL, err := chain.CanonicalPostURL(c.platform, ref)
	if err != nil {
		return nil, err
	}
	resp, res := c.api.PostVoters(ctx, postURL, c.minImportance)
	if !res.OK || resp == nil {
		logging.CurationWarn("Could not load voters data for %s: %s", postURL, res.Error)
		return nil, fmt.Errorf("%w: %s", ErrServerUnavailable, res.Error)
	}
	return resp, nil
}
