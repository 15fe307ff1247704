package domain

import "time"

// Quote workflow statuses.
const (
	QuotePending   = "pending"
	QuoteReviewed  = "reviewed"
	QuoteQuoted    = "quoted"
	QuoteAccepted  = "accepted"
	QuoteDeclined  = "declined"
	QuoteCompleted = "completed"
)

var (
	// QuoteStatuses lists valid quote workflow states.
	QuoteStatuses = []string{QuotePending, QuoteReviewed, QuoteQuoted, QuoteAccepted, QuoteDeclined, QuoteCompleted}
	// QuoteProjectTypes is the closed set accepted from the public quote form.
	QuoteProjectTypes = []string{"branding", "web_design", "web_development", "photography", "video_production", "motion_design", "other"}
	// QuoteBudgetRanges is the closed set of budget brackets.
	QuoteBudgetRanges = []string{"under_1k", "1k_5k", "5k_10k", "10k_25k", "25k_plus", "not_sure"}
	// QuoteTimelines is the closed set of timeline brackets.
	QuoteTimelines = []string{"asap", "1_month", "1_3_months", "3_6_months", "flexible"}
)

// Quote is a structured contact/quote request from the public site.
type Quote struct {
	ID          int64             `json:"-"`
	PublicID    string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Phone       string            `json:"phone,omitempty"`
	Company     string            `json:"company,omitempty"`
	ProjectType string            `json:"projectType"`
	BudgetRange string            `json:"budgetRange"`
	Timeline    string            `json:"timeline"`
	Description string            `json:"description"`
	Goals       string            `json:"goals,omitempty"`
	Status      string            `json:"status"`
	AdminNotes  string            `json:"adminNotes,omitempty"`
	Notified    bool              `json:"notified"`
	Files       []MediaAttachment `json:"files,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ValidQuoteStatus reports whether s is a recognized quote workflow state.
func ValidQuoteStatus(s string) bool {
	for _, v := range QuoteStatuses {
		if v == s {
			return true
		}
	}
	return false
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ValidQuoteProjectType reports membership in the closed project type set.
func ValidQuoteProjectType(s string) bool { return contains(QuoteProjectTypes, s) }

// ValidQuoteBudgetRange reports membership in the closed budget set.
func ValidQuoteBudgetRange(s string) bool { return contains(QuoteBudgetRanges, s) }

// ValidQuoteTimeline reports membership in the closed timeline set.
func ValidQuoteTimeline(s string) bool { return contains(QuoteTimelines, s) }
