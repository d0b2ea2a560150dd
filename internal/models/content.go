package models

// Format identifies one of the five output formats a conversion can produce.
type Format string

const (
	FormatNewsletter     Format = "newsletter"
	FormatLinkedIn       Format = "linkedin"
	FormatBlog           Format = "blog"
	FormatInstagram      Format = "instagram"
	FormatTwitterSummary Format = "twitter_summary"
)

// AllFormats lists every supported format in presentation order.
var AllFormats = []Format{
	FormatNewsletter,
	FormatLinkedIn,
	FormatBlog,
	FormatInstagram,
	FormatTwitterSummary,
}

// ParseFormat maps a wire string onto a Format, reporting whether it is one
// of the supported values.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatNewsletter, FormatLinkedIn, FormatBlog, FormatInstagram, FormatTwitterSummary:
		return Format(s), true
	}
	return "", false
}

// Slide is one frame of an Instagram carousel script.
type Slide struct {
	SlideNumber     int    `json:"slideNumber"`
	Text            string `json:"text"`
	VisualDirection string `json:"visualDirection,omitempty"`
}

// SummaryTweet is one entry of a condensed Twitter summary thread.
type SummaryTweet struct {
	Number    int    `json:"number"`
	Content   string `json:"content"`
	CharCount int    `json:"charCount"`
}

// FormatMetadata carries the format-specific fields of a FormatOutput. Only
// the fields relevant to the output's format are populated.
type FormatMetadata struct {
	Hashtags        []string       `json:"hashtags,omitempty"`        // linkedin, instagram
	CharCount       int            `json:"charCount,omitempty"`       // linkedin
	MetaDescription string         `json:"metaDescription,omitempty"` // blog
	ReadingTime     string         `json:"readingTime,omitempty"`     // blog
	Caption         string         `json:"caption,omitempty"`         // instagram
	SlideCount      int            `json:"slideCount,omitempty"`      // instagram
	Slides          []Slide        `json:"slides,omitempty"`          // instagram
	TweetCount      int            `json:"tweetCount,omitempty"`      // twitter_summary
	Tweets          []SummaryTweet `json:"tweets,omitempty"`          // twitter_summary
}

// FormatOutput is one generated rendition of a thread.
type FormatOutput struct {
	Format    Format         `json:"format"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	WordCount int            `json:"wordCount"`
	Metadata  FormatMetadata `json:"metadata"`
}

// NewsletterResult is the newsletter format plus its email-specific extras.
type NewsletterResult struct {
	Title              string   `json:"title"`
	Content            string   `json:"content"`
	WordCount          int      `json:"wordCount"`
	SubjectLines       []string `json:"subjectLines"`
	TweetableQuotes    []string `json:"tweetableQuotes"`
	TLDR               string   `json:"tldr"`
	KeyTakeaways       []string `json:"keyTakeaways"`
	EngagementQuestion string   `json:"engagementQuestion"`
}

// Output converts a NewsletterResult into the generic FormatOutput shape used
// by the multi-format response map.
func (n NewsletterResult) Output() FormatOutput {
	return FormatOutput{
		Format:    FormatNewsletter,
		Title:     n.Title,
		Content:   n.Content,
		WordCount: n.WordCount,
	}
}
