package logstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is the hosted-database Store implementation
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres connects to the database at dsn and ensures the schema
// exists. The connection attempt is bounded; the dsn comes straight from
// configuration.
func ConnectPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect db: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id BIGSERIAL PRIMARY KEY,
			message TEXT NOT NULL,
			response JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			url TEXT,
			content TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT,
			role TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Postgres{pool: pool}, nil
}

// SaveExchange appends one conversation log entry
func (p *Postgres) SaveExchange(ctx context.Context, message string, response json.RawMessage) error {
	_, err := p.pool.Exec(ctx,
		"INSERT INTO conversations (message, response, created_at) VALUES ($1, $2, $3)",
		message, string(response), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// ListExchanges returns the most recent entries, newest first
func (p *Postgres) ListExchanges(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT id, message, response, created_at FROM conversations ORDER BY created_at DESC, id DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var response string
		if err := rows.Scan(&e.ID, &e.Message, &response, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		e.Response = json.RawMessage(response)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListDocuments returns all documents, newest first
func (p *Postgres) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT id, title, url, content, created_at FROM documents ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.URL, &d.Content, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// CreateDocument inserts a document and returns it with its assigned ID
func (p *Postgres) CreateDocument(ctx context.Context, title, url, content string) (Document, error) {
	createdAt := time.Now().UTC()
	var id int64
	err := p.pool.QueryRow(ctx,
		"INSERT INTO documents (title, url, content, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		title, url, content, createdAt,
	).Scan(&id)
	if err != nil {
		return Document{}, fmt.Errorf("failed to create document: %w", err)
	}
	return Document{ID: id, Title: title, URL: url, Content: content, CreatedAt: createdAt}, nil
}

// DeleteDocument removes a document by ID
func (p *Postgres) DeleteDocument(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns all users, newest first
func (p *Postgres) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := p.pool.Query(ctx,
		"SELECT id, email, name, role, created_at FROM users ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CreateUser inserts a user and returns it with its assigned ID
func (p *Postgres) CreateUser(ctx context.Context, email, name, role string) (User, error) {
	createdAt := time.Now().UTC()
	var id int64
	err := p.pool.QueryRow(ctx,
		"INSERT INTO users (email, name, role, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		email, name, role, createdAt,
	).Scan(&id)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return User{ID: id, Email: email, Name: name, Role: role, CreatedAt: createdAt}, nil
}

// DeleteUser removes a user by ID
func (p *Postgres) DeleteUser(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the connection pool
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
