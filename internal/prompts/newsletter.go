package prompts

import (
	"fmt"

	"github.com/microtoolco/threadforge/internal/models"
)

// NewsletterSystem is the system prompt for newsletter generation.
const NewsletterSystem = `You are an elite newsletter writer and editor with experience at top publications. You transform social media threads into beautifully written, engaging newsletter content that readers love. You maintain the author's core message and voice while elevating the prose to publication quality. Your writing is polished, insightful, and a pleasure to read.`

var newsletterStyleGuide = map[Style]string{
	StyleProfessional: "Use a professional, authoritative tone with sophisticated vocabulary. Write with the polish and refinement of a top-tier publication like The Atlantic or Harvard Business Review. Use clear headings and well-structured paragraphs.",
	StyleCasual:       "Use a conversational, friendly tone as if writing to a close colleague. Keep it warm but still insightful.",
	StyleStorytelling: "Use narrative techniques to tell a compelling story, with a strong hook, vivid details, and a memorable conclusion.",
}

// Newsletter builds the newsletter generation prompt.
func Newsletter(posts []models.Post, affiliates []models.AffiliateLink, style Style) string {
	return fmt.Sprintf(`Transform this X (Twitter) thread into a beautifully crafted, publication-ready newsletter article.

Thread content:
%s%s

Style: %s

You must return a JSON object with this exact structure:
{
  "newsletter": "The full newsletter content in Markdown format",
  "subjectLines": ["5 different email subject line options for A/B testing - make them compelling, curiosity-driven, and varied in style"],
  "tweetableQuotes": ["3 powerful quotes from the newsletter that readers can tweet - each under 280 chars, include the insight without needing context"],
  "tldr": "A 2-3 sentence executive summary for busy readers",
  "keyTakeaways": ["3-5 bullet point takeaways - the most actionable insights"],
  "engagementQuestion": "One thought-provoking question to ask readers at the end to drive replies and discussion"
}

Newsletter requirements:
1. Create a compelling, attention-grabbing title (as H1)
2. Write a sophisticated introduction that hooks readers immediately
3. Transform tweets into eloquent, flowing paragraphs with seamless transitions
4. Add meaningful section headings (H2) for logical flow
5. Use varied sentence structure and sophisticated vocabulary while remaining accessible
6. If affiliate links are provided, weave 1-2 naturally where relevant
7. End with a thought-provoking conclusion
8. Format for email readability: short paragraphs, clear sections

Write with the quality expected from a top publication. Return ONLY valid JSON.`,
		renderPosts(posts), renderAffiliates(affiliates), newsletterStyleGuide[style])
}
