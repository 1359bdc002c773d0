package entity

import "time"

// TransitionRecord is one entry of an article's workflow audit trail
type TransitionRecord struct {
	ID         int64     `json:"id"`
	ArticleID  int64     `json:"article_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Action     string    `json:"action"`
	ActorRole  string    `json:"actor_role"`
	ActorID    string    `json:"actor_id"`
	Feedback   string    `json:"feedback,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Actor identifies who requested a transition
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// SystemActor is used by background workers
var SystemActor = Actor{ID: "system", Role: "SYSTEM"}
