package logstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the file-backed Store implementation
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the SQLite database at path
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	createConversationsTable := `
	CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at DATETIME
	);`

	createDocumentsTable := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		url TEXT,
		content TEXT,
		created_at DATETIME
	);`

	createUsersTable := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		name TEXT,
		role TEXT,
		created_at DATETIME
	);`

	if _, err := db.Exec(createConversationsTable); err != nil {
		return nil, fmt.Errorf("failed to create conversations table: %w", err)
	}

	if _, err := db.Exec(createDocumentsTable); err != nil {
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	if _, err := db.Exec(createUsersTable); err != nil {
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	return &SQLite{db: db}, nil
}

// SaveExchange appends one conversation log entry
func (s *SQLite) SaveExchange(ctx context.Context, message string, response json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (message, response, created_at) VALUES (?, ?, ?)",
		message, string(response), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// ListExchanges returns the most recent entries, newest first
func (s *SQLite) ListExchanges(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, message, response, created_at FROM conversations ORDER BY created_at DESC, id DESC LIMIT ?",
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
func (s *SQLite) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
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
func (s *SQLite) CreateDocument(ctx context.Context, title, url, content string) (Document, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (title, url, content, created_at) VALUES (?, ?, ?, ?)",
		title, url, content, createdAt,
	)
	if err != nil {
		return Document{}, fmt.Errorf("failed to create document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Document{}, fmt.Errorf("failed to read document id: %w", err)
	}
	return Document{ID: id, Title: title, URL: url, Content: content, CreatedAt: createdAt}, nil
}

// DeleteDocument removes a document by ID
func (s *SQLite) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns all users, newest first
func (s *SQLite) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
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
func (s *SQLite) CreateUser(ctx context.Context, email, name, role string) (User, error) {
	createdAt := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, role, created_at) VALUES (?, ?, ?, ?)",
		email, name, role, createdAt,
	)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	return User{ID: id, Email: email, Name: name, Role: role, CreatedAt: createdAt}, nil
}

// DeleteUser removes a user by ID
func (s *SQLite) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the underlying database
func (s *SQLite) Close() error {
	return s.db.Close()
}
