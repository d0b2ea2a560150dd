package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microtoolco/threadforge/internal/models"
)

var (
	codeFencePattern = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n(.*?)\\n?```\\s*$")
	headingPattern   = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// stripCodeFence removes a surrounding Markdown code fence when the model
// wraps its JSON in one.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if m := codeFencePattern.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// WordCount counts whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// headingTitle returns the first H1 heading of the content, or fallback when
// none is present.
func headingTitle(content, fallback string) string {
	if m := headingPattern.FindStringSubmatch(content); m != nil {
		if title := strings.TrimSpace(m[1]); title != "" {
			return title
		}
	}
	return fallback
}

func readingTimeFor(wordCount int) string {
	minutes := wordCount / 200
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// ParseNewsletter turns a raw completion into a NewsletterResult. It never
// fails: when the response is not the expected JSON shape, the raw text
// becomes the newsletter body and the extras stay empty.
func ParseNewsletter(raw string) models.NewsletterResult {
	var parsed struct {
		Newsletter         string   `json:"newsletter"`
		SubjectLines       []string `json:"subjectLines"`
		TweetableQuotes    []string `json:"tweetableQuotes"`
		TLDR               string   `json:"tldr"`
		KeyTakeaways       []string `json:"keyTakeaways"`
		EngagementQuestion string   `json:"engagementQuestion"`
	}

	content := raw
	result := models.NewsletterResult{}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err == nil && parsed.Newsletter != "" {
		content = parsed.Newsletter
		result.SubjectLines = parsed.SubjectLines
		result.TweetableQuotes = parsed.TweetableQuotes
		result.TLDR = parsed.TLDR
		result.KeyTakeaways = parsed.KeyTakeaways
		result.EngagementQuestion = parsed.EngagementQuestion
	}

	result.Title = headingTitle(content, "Untitled Newsletter")
	result.Content = content
	result.WordCount = WordCount(content)
	return result
}

// ParseLinkedIn turns a raw completion into a LinkedIn FormatOutput.
func ParseLinkedIn(raw string) models.FormatOutput {
	var parsed struct {
		Content   string   `json:"content"`
		Hashtags  []string `json:"hashtags"`
		WordCount int      `json:"wordCount"`
		CharCount int      `json:"charCount"`
	}

	out := models.FormatOutput{Format: models.FormatLinkedIn, Content: raw}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err == nil && parsed.Content != "" {
		out.Content = parsed.Content
		out.Metadata.Hashtags = parsed.Hashtags
		out.Metadata.CharCount = parsed.CharCount
	}

	out.Title = headingTitle(out.Content, "LinkedIn Post")
	out.WordCount = WordCount(out.Content)
	if out.Metadata.CharCount == 0 {
		out.Metadata.CharCount = utf8.RuneCountInString(out.Content)
	}
	return out
}

// ParseBlog turns a raw completion into a blog FormatOutput. The word count
// is always recomputed from the content; reading time is derived from it when
// the response omits one.
func ParseBlog(raw string) models.FormatOutput {
	var parsed struct {
		Title           string `json:"title"`
		MetaDescription string `json:"metaDescription"`
		Content         string `json:"content"`
		WordCount       int    `json:"wordCount"`
		ReadingTime     string `json:"readingTime"`
	}

	out := models.FormatOutput{Format: models.FormatBlog, Content: raw}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err == nil && parsed.Content != "" {
		out.Content = parsed.Content
		out.Title = parsed.Title
		out.Metadata.MetaDescription = parsed.MetaDescription
		out.Metadata.ReadingTime = parsed.ReadingTime
	}

	if out.Title == "" {
		out.Title = headingTitle(out.Content, "Untitled Blog Post")
	}
	out.WordCount = WordCount(out.Content)
	if out.Metadata.ReadingTime == "" {
		out.Metadata.ReadingTime = readingTimeFor(out.WordCount)
	}
	return out
}

// ParseInstagram turns a raw completion into a carousel FormatOutput. The
// content field renders the slides as a readable script so the generic
// response shape stays useful when the metadata is ignored.
func ParseInstagram(raw string) models.FormatOutput {
	var parsed struct {
		Slides     []models.Slide `json:"slides"`
		Caption    string         `json:"caption"`
		Hashtags   []string       `json:"hashtags"`
		SlideCount int            `json:"slideCount"`
	}

	out := models.FormatOutput{Format: models.FormatInstagram, Title: "Instagram Carousel", Content: raw}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err == nil && len(parsed.Slides) > 0 {
		out.Content = renderSlides(parsed.Slides, parsed.Caption)
		out.Metadata.Slides = parsed.Slides
		out.Metadata.Caption = parsed.Caption
		out.Metadata.Hashtags = parsed.Hashtags
		out.Metadata.SlideCount = parsed.SlideCount
		if out.Metadata.SlideCount == 0 {
			out.Metadata.SlideCount = len(parsed.Slides)
		}
	}

	out.WordCount = WordCount(out.Content)
	return out
}

func renderSlides(slides []models.Slide, caption string) string {
	var b strings.Builder
	for i, slide := range slides {
		number := slide.SlideNumber
		if number == 0 {
			number = i + 1
		}
		fmt.Fprintf(&b, "## Slide %d\n\n%s\n", number, slide.Text)
		if slide.VisualDirection != "" {
			fmt.Fprintf(&b, "\n_%s_\n", slide.VisualDirection)
		}
		b.WriteString("\n")
	}
	if caption != "" {
		fmt.Fprintf(&b, "## Caption\n\n%s\n", caption)
	}
	return strings.TrimSpace(b.String())
}

// ParseTwitterSummary turns a raw completion into a summary-thread
// FormatOutput. Tweets over 280 characters are kept as produced; the prompt
// asserts the limit and callers surface the char counts for inspection.
func ParseTwitterSummary(raw string) models.FormatOutput {
	var parsed struct {
		Tweets     []models.SummaryTweet `json:"tweets"`
		TweetCount int                   `json:"tweetCount"`
	}

	out := models.FormatOutput{Format: models.FormatTwitterSummary, Title: "Twitter Summary", Content: raw}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); err == nil && len(parsed.Tweets) > 0 {
		contents := make([]string, 0, len(parsed.Tweets))
		for i := range parsed.Tweets {
			if parsed.Tweets[i].CharCount == 0 {
				parsed.Tweets[i].CharCount = utf8.RuneCountInString(parsed.Tweets[i].Content)
			}
			contents = append(contents, parsed.Tweets[i].Content)
		}
		out.Content = strings.Join(contents, "\n\n")
		out.Metadata.Tweets = parsed.Tweets
		out.Metadata.TweetCount = parsed.TweetCount
		if out.Metadata.TweetCount == 0 {
			out.Metadata.TweetCount = len(parsed.Tweets)
		}
	}

	out.WordCount = WordCount(out.Content)
	return out
}
