package dto

import "time"

// BlogCreateDTO is the generate-and-publish request payload.
type BlogCreateDTO struct {
	Prompt string `json:"prompt" validate:"required"`
}

// BlogCreateResponseDTO carries the id of the freshly published post.
type BlogCreateResponseDTO struct {
	BlogID int64 `json:"blog_id"`
}

// BlogResponseDTO is a single blog post.
type BlogResponseDTO struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}
