package domain

import "time"

// Subscriber lifecycle states.
const (
	SubscriberPending      = "pending"
	SubscriberActive       = "active"
	SubscriberUnsubscribed = "unsubscribed"
	SubscriberBounced      = "bounced"
	SubscriberComplained   = "complained"
)

// SubscriberPreferences are the newsletter delivery preferences, stored as JSON.
type SubscriberPreferences struct {
	Frequency string   `json:"frequency,omitempty"`
	Topics    []string `json:"topics,omitempty"`
	Format    string   `json:"format,omitempty"`
}

// Subscriber is one newsletter recipient.
//
// Invariant: Subscribed=true implies SubscribedAt is set and
// VerificationToken is empty.
type Subscriber struct {
	ID                int64                 `json:"-"`
	Email             string                `json:"email"`
	Name              string                `json:"name,omitempty"`
	Status            string                `json:"status"`
	Subscribed        bool                  `json:"subscribed"`
	VerificationToken string                `json:"-"`
	Source            string                `json:"source,omitempty"`
	IPAddress         string                `json:"-"`
	UserAgent         string                `json:"-"`
	Preferences       SubscriberPreferences `json:"preferences"`
	SubscribedAt      *time.Time            `json:"subscribedAt,omitempty"`
	UnsubscribedAt    *time.Time            `json:"unsubscribedAt,omitempty"`
	VerifiedAt        *time.Time            `json:"verifiedAt,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}
