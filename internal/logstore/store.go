package logstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a delete targets a row that does not exist
var ErrNotFound = errors.New("not found")

// Entry is one durably recorded chat exchange. Entries are append-only:
// the relay writes them and never mutates or deletes them.
type Entry struct {
	ID        int64           `json:"id"`
	Message   string          `json:"message"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// Document is an admin-managed document record
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an admin-managed user record
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the conversation log plus the tables behind the admin dashboard.
// Two implementations exist: SQLite for single-node deployments and
// Postgres for a hosted database.
type Store interface {
	SaveExchange(ctx context.Context, message string, response json.RawMessage) error
	ListExchanges(ctx context.Context, limit int) ([]Entry, error)

	ListDocuments(ctx context.Context) ([]Document, error)
	CreateDocument(ctx context.Context, title, url, content string) (Document, error)
	DeleteDocument(ctx context.Context, id int64) error

	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, email, name, role string) (User, error)
	DeleteUser(ctx context.Context, id int64) error

	Close() error
}
