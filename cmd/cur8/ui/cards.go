package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cur8/internal/chain"
	"cur8/internal/types"

	"github.com/charmbracelet/lipgloss"
)

const progressWidth = 20

// PostState is the loading state of a card's latest-post slot.
type PostState int

const (
	PostLoading PostState = iota
	PostLoaded
	PostNone
	PostFailed
	PostHidden
)

// PostSlot is what a card shows below the vote counter.
type PostSlot struct {
	State PostState
	Post  *types.Post
	Err   error
}

// LoadedPost builds the slot for a finished lookup. A nil post means the
// author has no posts.
func LoadedPost(p *types.Post, err error) PostSlot {
	switch {
	case err != nil:
		return PostSlot{State: PostFailed, Err: err}
	case p == nil:
		return PostSlot{State: PostNone}
	}
	return PostSlot{State: PostLoaded, Post: p}
}

// ProgressBar draws a bar filled to ratio, clamped to [0, 1]. A full bar uses
// the limit colour.
func ProgressBar(s Styles, ratio float64, width int) string {
	ratio = math.Max(0, math.Min(ratio, 1))
	filled := int(math.Round(ratio * float64(width)))
	fill := s.ProgressFill
	if ratio >= 1 {
		fill = s.ProgressFull
	}
	return fill.Render(strings.Repeat("█", filled)) + s.ProgressTrack.Render(strings.Repeat("░", width-filled))
}

// VoteBadge renders "count/perDay" highlighted once the cap is reached.
func VoteBadge(s Styles, a types.TrackedAccount) string {
	perDay := a.VotesPerDay
	if perDay <= 0 {
		perDay = types.MinVotesPerDay
	}
	text := fmt.Sprintf("%d/%d", a.DailyVotesCount, perDay)
	if a.LimitReached() {
		return s.BadgeLimit.Render(text)
	}
	return s.Badge.Render(text)
}

// RenderCard renders one tracked account.
func RenderCard(s Styles, a types.TrackedAccount, slot PostSlot, selected bool) string {
	var lines []string
	lines = append(lines, s.Title.Render("@"+a.Handle))
	if a.DelegatedSP != nil {
		lines = append(lines, s.Info.Render(fmt.Sprintf("Delegated: %.3f SP", *a.DelegatedSP)))
	}
	lines = append(lines,
		s.Body.Render("Vote Delay: ")+s.Bold.Render(a.VoteDelay.String()),
		s.Body.Render("Vote Weight: ")+s.Bold.Render(fmt.Sprintf("%d%%", a.VoteWeight)),
		s.Body.Render("Votes: ")+VoteBadge(s, a)+s.Body.Render(" today"),
		ProgressBar(s, a.Progress(), progressWidth),
	)
	if slot.State != PostHidden {
		lines = append(lines, RenderLatestPost(s, slot))
	}

	style := s.Card
	if selected {
		style = s.SelectedCard
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderAccountList renders a card for every account on platform, in
// collection order. posts holds the latest-post slots by handle; a missing
// entry shows as loading. A nil map hides the slot.
func RenderAccountList(s Styles, accounts []types.TrackedAccount, platform types.Platform, posts map[string]PostSlot, selected string) string {
	var cards []string
	for _, a := range accounts {
		if a.Platform != platform {
			continue
		}
		slot, ok := posts[a.Handle]
		switch {
		case posts == nil:
			slot = PostSlot{State: PostHidden}
		case !ok:
			slot = PostSlot{State: PostLoading}
		}
		cards = append(cards, RenderCard(s, a, slot, a.Handle == selected))
	}
	if len(cards) == 0 {
		return s.Muted.Render(fmt.Sprintf("No accounts tracked on %s.", platform))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

// RenderLatestPost renders a latest-post slot.
func RenderLatestPost(s Styles, slot PostSlot) string {
	switch slot.State {
	case PostLoading:
		return s.Muted.Render("Loading latest post...")
	case PostNone:
		return s.Muted.Render("No posts found")
	case PostFailed:
		return s.Error.Render("Error loading post: " + slot.Err.Error())
	}
	p := slot.Post
	title := p.Title
	if title == "" {
		title = p.Permlink
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		s.Bold.Render("Latest: ")+s.Body.Render(title),
		s.Muted.Render(postAge(p.Created)+"  "+chain.PostURL(p.Platform, p.Author, p.Permlink)),
	)
}

func postAge(created time.Time) string {
	if created.IsZero() {
		return ""
	}
	d := time.Since(created)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%d h ago", int(d.Hours()))
	}
	return created.Local().Format("2006-01-02")
}

// RenderStats renders the per-platform account counts.
func RenderStats(s Styles, st types.Stats) string {
	t := NewTable("Tracked accounts", "Total", "Steem", "Hive", "Delegators", "At limit")
	t.AddRow(
		fmt.Sprint(st.Total),
		fmt.Sprint(st.Steem),
		fmt.Sprint(st.Hive),
		fmt.Sprint(st.Delegators),
		fmt.Sprint(st.AtLimit),
	)
	return t.View(s)
}
