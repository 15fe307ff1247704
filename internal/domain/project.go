package domain

import "time"

// Project workflow statuses.
const (
	ProjectStatusNotStarted = "not_started"
	ProjectStatusInProgress = "in_progress"
	ProjectStatusOnHold     = "on_hold"
	ProjectStatusCompleted  = "completed"
	ProjectStatusCancelled  = "cancelled"
)

// Project priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

var (
	// ProjectStatuses lists valid project workflow states.
	ProjectStatuses = []string{ProjectStatusNotStarted, ProjectStatusInProgress, ProjectStatusOnHold, ProjectStatusCompleted, ProjectStatusCancelled}
	// ProjectPriorities lists valid priority values.
	ProjectPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
)

// Project is a portfolio entry belonging to exactly one customer.
type Project struct {
	ID               int64             `json:"-"`
	PublicID         string            `json:"id"`
	Slug             string            `json:"slug"`
	CustomerID       int64             `json:"-"`
	CustomerPublicID string            `json:"customerId"`
	CustomerName     string            `json:"customerName,omitempty"`
	Name             string            `json:"name"`
	Description      string            `json:"description,omitempty"`
	ShortDescription string            `json:"shortDescription,omitempty"`
	ProductionType   string            `json:"productionType,omitempty"`
	Category         string            `json:"category,omitempty"`
	Status           string            `json:"status"`
	Priority         string            `json:"priority"`
	StartDate        *time.Time        `json:"startDate,omitempty"`
	EndDate          *time.Time        `json:"endDate,omitempty"`
	EstimatedHours   float64           `json:"estimatedHours"`
	ActualHours      float64           `json:"actualHours"`
	Budget           float64           `json:"budget"`
	Technologies     []string          `json:"technologies,omitempty"`
	Features         []string          `json:"features,omitempty"`
	Challenges       string            `json:"challenges,omitempty"`
	Solutions        string            `json:"solutions,omitempty"`
	Results          string            `json:"results,omitempty"`
	ClientFeedback   string            `json:"clientFeedback,omitempty"`
	IsFeatured       bool              `json:"isFeatured"`
	IsPublic         bool              `json:"isPublic"`
	SortOrder        int               `json:"sortOrder"`
	MetaTitle        string            `json:"metaTitle,omitempty"`
	MetaDescription  string            `json:"metaDescription,omitempty"`
	LiveURL          string            `json:"liveUrl,omitempty"`
	GithubURL        string            `json:"githubUrl,omitempty"`
	FigmaURL         string            `json:"figmaUrl,omitempty"`
	BehanceURL       string            `json:"behanceUrl,omitempty"`
	DribbbleURL      string            `json:"dribbbleUrl,omitempty"`
	Poster           *MediaAttachment  `json:"poster,omitempty"`
	Gallery          []MediaAttachment `json:"gallery,omitempty"`
	DeletedAt        *time.Time        `json:"-"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Overdue reports whether the project passed its end date without being
// completed or cancelled.
func (p Project) Overdue(now time.Time) bool {
	if p.EndDate == nil {
		return false
	}
	if p.Status == ProjectStatusCompleted || p.Status == ProjectStatusCancelled {
		return false
	}
	return p.EndDate.Before(now)
}

// DurationDays returns the project span in days, or 0 when either date is missing.
func (p Project) DurationDays() float64 {
	if p.StartDate == nil || p.EndDate == nil {
		return 0
	}
	return p.EndDate.Sub(*p.StartDate).Hours() / 24
}

// ValidProjectStatus reports whether s is a recognized workflow state.
func ValidProjectStatus(s string) bool {
	for _, v := range ProjectStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// ValidProjectPriority reports whether s is a recognized priority.
func ValidProjectPriority(s string) bool {
	for _, v := range ProjectPriorities {
		if v == s {
			return true
		}
	}
	return false
}

// ProjectStats aggregates project counters and sums.
type ProjectStats struct {
	Total            int64            `json:"total"`
	Active           int64            `json:"active"`
	Completed        int64            `json:"completed"`
	Featured         int64            `json:"featured"`
	Public           int64            `json:"public"`
	Overdue          int64            `json:"overdue"`
	ByStatus         map[string]int64 `json:"byStatus"`
	ByProductionType map[string]int64 `json:"byProductionType"`
	AvgDurationDays  float64          `json:"avgDurationDays"`
	EstimatedHours   float64          `json:"estimatedHours"`
	ActualHours      float64          `json:"actualHours"`
	Budget           float64          `json:"budget"`
}

// ReorderItem is one entry of a manual ordering update.
type ReorderItem struct {
	PublicID  string `json:"id"`
	SortOrder int    `json:"sortOrder"`
}
