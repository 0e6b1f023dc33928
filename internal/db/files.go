package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// File is one uploaded file's metadata row. The JSON form is what
// POST /upload returns.
type File struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	Mimetype  string    `json:"mimetype"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	IP        string    `json:"ip"`
	FileID    string    `json:"fileId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Files reads and writes the "File" table.
type Files struct {
	db *sql.DB
}

// NewFiles returns a Files backed by conn.
func NewFiles(conn *sql.DB) *Files {
	return &Files{db: conn}
}

// Create inserts f and fills in the store-assigned ID and CreatedAt.
func (s *Files) Create(ctx context.Context, f *File) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO "File" (filename, mimetype, size, url, ip, "fileId")
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, "createdAt"
	`, f.Filename, f.Mimetype, f.Size, f.URL, f.IP, f.FileID).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert file %s: %w", f.FileID, err)
	}
	return nil
}

// Ping checks that the database answers.
func (s *Files) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
