//go:build integration

package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"fileshare/internal/db"
	"fileshare/internal/db/dbtest"
)

// TestUploadWorkflow runs upload and download against a real PostgreSQL.
func TestUploadWorkflow(t *testing.T) {
	dsn := dbtest.StartPostgres(t)
	if err := db.RunMigrations(dsn); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	conn, err := db.OpenDB(dsn)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	files := db.NewFiles(conn)
	env := newTestEnv(t)
	env.cfg.Files = files
	srv := env.startServer(t)

	client := &http.Client{Timeout: 30 * time.Second}

	t.Run("ready", func(t *testing.T) {
		resp, err := client.Get(srv.URL + "/ready")
		if err != nil {
			t.Fatalf("GET /ready: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want 200", resp.StatusCode)
		}
	})

	var uploaded db.File
	t.Run("upload", func(t *testing.T) {
		body, ct := fileBody(t, "file", "notes.md", "text/markdown", []byte("# hi\n"))
		resp, err := client.Post(srv.URL+"/upload", ct, body)
		if err != nil {
			t.Fatalf("POST /upload: %v", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			t.Fatalf("status = %d, body = %s", resp.StatusCode, b)
		}
		if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if uploaded.ID == 0 {
			t.Error("expected a database-assigned id")
		}
	})

	t.Run("row matches response", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var got db.File
		err := conn.QueryRowContext(ctx,
			`SELECT filename, mimetype, size, url FROM "File" WHERE "fileId" = $1`, uploaded.FileID,
		).Scan(&got.Filename, &got.Mimetype, &got.Size, &got.URL)
		if err != nil {
			t.Fatalf("select row: %v", err)
		}
		if got.Filename != "notes.md" || got.Mimetype != "text/markdown" || got.Size != 5 {
			t.Errorf("row = %+v", got)
		}
		if got.URL != uploaded.URL {
			t.Errorf("url = %q, response url = %q", got.URL, uploaded.URL)
		}
	})

	t.Run("download", func(t *testing.T) {
		resp, err := client.Get(uploaded.URL)
		if err != nil {
			t.Fatalf("GET %s: %v", uploaded.URL, err)
		}
		defer resp.Body.Close()

		b, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK || string(b) != "# hi\n" {
			t.Errorf("status = %d, body = %q", resp.StatusCode, b)
		}
	})
}
