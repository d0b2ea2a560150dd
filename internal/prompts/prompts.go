// Package prompts builds the per-format generation instructions. Each builder
// is a pure function of the post sequence (plus affiliate links and style
// where the format uses them) and declares, inside the prompt text, the JSON
// shape the generation client parses against.
package prompts

import (
	"fmt"
	"strings"

	"github.com/microtoolco/threadforge/internal/models"
)

// Style selects the tone directive for newsletter, blog and LinkedIn output.
type Style string

const (
	StyleProfessional Style = "professional"
	StyleCasual       Style = "casual"
	StyleStorytelling Style = "storytelling"
)

// NormalizeStyle maps a wire string onto a Style, defaulting to professional.
func NormalizeStyle(s string) Style {
	switch Style(s) {
	case StyleCasual:
		return StyleCasual
	case StyleStorytelling:
		return StyleStorytelling
	default:
		return StyleProfessional
	}
}

// renderPosts lays the thread out as numbered entries, preserving narrative
// order. The first image of a post is surfaced so the generator can reference
// visuals.
func renderPosts(posts []models.Post) string {
	var b strings.Builder
	for i, post := range posts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, post.Text)
		if len(post.Images) > 0 {
			fmt.Fprintf(&b, " [Image: %s]", post.Images[0])
		}
	}
	return b.String()
}

// renderAffiliates builds the affiliate context block, or returns "" when
// there are no links. The generator is told to use at most 1-2 naturally,
// never forcing insertion.
func renderAffiliates(affiliates []models.AffiliateLink) string {
	if len(affiliates) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nAvailable affiliate links to naturally incorporate (use 1-2 where relevant):\n")
	for i, a := range affiliates {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s (keywords: %s)", a.Name, a.URL, strings.Join(a.Keywords, ", "))
	}
	return b.String()
}
