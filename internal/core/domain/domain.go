// Package domain contains the core entity types shared across storage,
// ingestion, and the API layer.
package domain

import "time"

// Article is a scraped news or blog article about AI.
// Link is the dedup key; records missing title, publication date, summary,
// full content, or author are considered incomplete and are not stored.
type Article struct {
	ID              string
	Title           string
	Source          string
	PublicationDate time.Time
	Link            string
	Author          string
	Summary         string
	FullContent     string
	Language        string
	Keywords        []string
	FocusTech       []string
}

// Complete reports whether the article carries every field required for storage.
func (a Article) Complete() bool {
	return a.Title != "" &&
		!a.PublicationDate.IsZero() &&
		a.Summary != "" &&
		a.FullContent != "" &&
		a.Author != ""
}

// ScientificArticle is a paper ingested from a preprint source.
// ExternalID is the source-specific dedup key.
type ScientificArticle struct {
	ID              string
	Title           string
	Authors         string
	PublicationDate time.Time
	Abstract        string
	ArticleURL      string
	ExternalID      string
	Keywords        []string
	Source          string
}

// Video is an ingested video record. VideoURL is the dedup key.
type Video struct {
	ID              string
	Title           string
	Description     string
	PublicationDate time.Time
	Source          string
	VideoURL        string
	ChannelName     string
	ChannelID       string
}

// User is a registered account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
}

// UserPreferences holds a user's stored preference sets. Each field is the
// decoded form of a delimiter-encoded column; a nil or empty slice means the
// user has no preference of that kind.
type UserPreferences struct {
	UserID        string
	Sources       []string
	VideoChannels []string
	Keywords      []string
}

// Empty reports whether no preference set holds any value.
func (p UserPreferences) Empty() bool {
	return len(p.Sources) == 0 && len(p.VideoChannels) == 0 && len(p.Keywords) == 0
}

// PasswordResetToken is the single active reset token for a user.
type PasswordResetToken struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (t PasswordResetToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// MonitoringLogEntry records one scraper run. Entries are append-only and
// deduplicated on (Timestamp, Script).
type MonitoringLogEntry struct {
	Timestamp          time.Time
	Script             string
	Duration           time.Duration
	ArticlesProcessed  int
	EmptyContentCount  int
	AverageKeywords    float64
	SummariesGenerated int
}

// KeywordCount is one ranked trending term.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// DateLayout is the wire format for all publication dates.
const DateLayout = "2006-01-02"
