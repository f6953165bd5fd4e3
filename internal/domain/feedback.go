package domain

import "time"

// Feedback is a farmer's rating and comment on the advice received
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,max=100"`
	Email     string    `json:"email,omitempty" validate:"omitempty,email"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
	Message   string    `json:"message" validate:"required,max=2000"`
	CreatedAt time.Time `json:"createdAt"`
}
