package ui

import (
	"fmt"
	"strings"

	"cur8/internal/types"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// DefaultMaxVoters is how many voters a report lists.
const DefaultMaxVoters = 10

func currency(r types.VotersResponse) string {
	if strings.EqualFold(r.Platform, string(types.PlatformHive)) {
		return "HIVE"
	}
	return "STEEM"
}

func formatWindow(w [2]float64) string {
	return fmt.Sprintf("%g-%g min", w[0], w[1])
}

// RenderVoters renders the timing recommendation and the top limit voters,
// with key voters marked.
func RenderVoters(s Styles, r types.VotersResponse, limit int) string {
	if limit <= 0 {
		limit = DefaultMaxVoters
	}
	var lines []string

	if opt := r.OptimalVoteTime; opt != nil {
		lines = append(lines,
			s.Title.Render("Optimal vote time"),
			s.Bold.Render(fmt.Sprintf("%g minutes", opt.OptimalTime))+s.Muted.Render("  (window: "+formatWindow(opt.VoteWindow)+")"),
		)
		if opt.Explanation != "" {
			lines = append(lines, s.Subtitle.Render(opt.Explanation))
		}
		lines = append(lines, "")
	}

	lines = append(lines, s.Title.Render(fmt.Sprintf("Top Voters (%d total)", r.TotalVoters)))
	if len(r.Voters) == 0 {
		lines = append(lines, s.Muted.Render("No significant voters yet"))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	lines = append(lines, s.Muted.Render("Sorted by vote value ("+currency(r)+")"))

	t := NewTable("", "", "Voter", "Value", "Timing", "Weight", "Rank")
	for i, v := range r.Voters {
		if i >= limit {
			break
		}
		mark := ""
		name := "@" + v.Voter
		if r.IsKeyVoter(v.Voter) {
			mark = "★"
			name = s.KeyVoter.Render(name)
		}
		t.AddRow(
			mark,
			name,
			fmt.Sprintf("%.3f %s", v.VoteValue, currency(r)),
			fmt.Sprintf("after %g min", v.VoteDelayMinutes),
			fmt.Sprintf("%.0f%%", v.WeightPercent()),
			fmt.Sprintf("%.2f", v.Importance),
		)
	}
	lines = append(lines, t.View(s))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// VotersMarkdown builds a markdown report of a voters response.
func VotersMarkdown(post string, r types.VotersResponse, limit int) string {
	if limit <= 0 {
		limit = DefaultMaxVoters
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Voters of %s\n\n", post)

	if opt := r.OptimalVoteTime; opt != nil {
		sb.WriteString("## Optimal vote time\n\n")
		fmt.Fprintf(&sb, "**%g minutes** (window: %s)\n\n", opt.OptimalTime, formatWindow(opt.VoteWindow))
		if opt.Explanation != "" {
			fmt.Fprintf(&sb, "> %s\n\n", opt.Explanation)
		}
	}

	fmt.Fprintf(&sb, "## Top voters (%d total)\n\n", r.TotalVoters)
	if len(r.Voters) == 0 {
		sb.WriteString("_No significant voters yet_\n")
		return sb.String()
	}
	sb.WriteString("| | Voter | Value | Timing | Weight | Rank |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for i, v := range r.Voters {
		if i >= limit {
			break
		}
		mark := ""
		if r.IsKeyVoter(v.Voter) {
			mark = "★"
		}
		fmt.Fprintf(&sb, "| %s | @%s | %.3f %s | %g min | %.0f%% | %.2f |\n",
			mark, v.Voter, v.VoteValue, currency(r), v.VoteDelayMinutes, v.WeightPercent(), v.Importance)
	}
	return sb.String()
}

// NewMarkdownRenderer returns a glamour renderer for the theme.
func NewMarkdownRenderer(theme Theme, width int) (*glamour.TermRenderer, error) {
	if width <= 0 {
		width = 80
	}
	style := "light"
	if theme.IsDark {
		style = "dark"
	}
	return glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width),
	)
}

// RenderMarkdown renders md for the terminal, falling back to the raw text
// when glamour fails.
func RenderMarkdown(theme Theme, width int, md string) string {
	r, err := NewMarkdownRenderer(theme, width)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// RenderDelegators renders delegators as a table, in the given order.
func RenderDelegators(s Styles, list []types.Delegator, tracked func(string) bool) string {
	t := NewTable(fmt.Sprintf("Delegators (%d)", len(list)), "Delegator", "SP", "Since", "Tracked")
	t.Empty = "No delegators found"
	for _, d := range list {
		mark := ""
		if tracked != nil && tracked(types.NormalizeHandle(d.Delegator)) {
			mark = "yes"
		}
		t.AddRow("@"+d.Delegator, fmt.Sprintf("%.3f", d.SPAmount), d.Timestamp, mark)
	}
	return t.View(s)
}
