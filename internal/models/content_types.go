package models

import "time"

// BlogPost is the model for the 'blog_posts' table
type BlogPost struct {
	ID        int64     `json:"id" db:"id"`
	Slug      string    `json:"slug" db:"slug"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	Author    string    `json:"author" db:"author"`
	Image     string    `json:"image" db:"image"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ContactMessage is the model for the 'contact_messages' table
type ContactMessage struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Subject   string    `json:"subject" db:"subject"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Subscriber is the model for the 'newsletter_subscribers' table
type Subscriber struct {
	ID        int64     `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is the model for the 'chat_messages' table
type ChatMessage struct {
	ID        int64     `json:"id" db:"id"`
	SessionID string    `json:"sessionId" db:"session_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
