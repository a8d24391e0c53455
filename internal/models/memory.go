package models

import "time"

// Memory is one post on the wall.
type Memory struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	PhotoURL  string    `json:"photoUrl"`
	CreatedAt time.Time `json:"-"`
}

// NewMemory is the body of a create request.
type NewMemory struct {
	Message  string `json:"message"`
	Author   string `json:"author"`
	PhotoURL string `json:"photoUrl"`
}
