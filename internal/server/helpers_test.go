package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fileshare/internal/db"
	"fileshare/internal/storage"
)

// fakeStore is an in-memory FileStore.
type fakeStore struct {
	mu      sync.Mutex
	records []db.File
	nextID  int64
	err     error
	pingErr error
}

func (f *fakeStore) Create(ctx context.Context, rec *db.File) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, r := range f.records {
		if r.FileID == rec.FileID {
			return errors.New("duplicate fileId")
		}
	}
	f.nextID++
	rec.ID = f.nextID
	rec.CreatedAt = time.Now().UTC()
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type testEnv struct {
	cfg   Config
	store *fakeStore
	disk  *storage.Disk
	logs  *bytes.Buffer
}

// newTestEnv builds a Config backed by a fake store and a temp storage dir.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	disk, err := storage.NewDisk(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}

	logs := &bytes.Buffer{}
	store := &fakeStore{}

	return &testEnv{
		cfg: Config{
			Addr:    "127.0.0.1:0",
			BaseURL: "http://files.test",
			Build:   BuildInfo{Version: "test", Commit: "abc123"},
			Logger:  NewLogger(&syncWriter{w: logs}, "text", "debug"),
			Files:   store,
			Disk:    disk,
		},
		store: store,
		disk:  disk,
		logs:  logs,
	}
}

// startServer runs the routes on a real listener and points BaseURL at it,
// so returned record URLs can be fetched.
func (e *testEnv) startServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewUnstartedServer(nil)
	e.cfg.BaseURL = "http://" + ts.Listener.Addr().String()
	ts.Config.Handler = e.cfg.Routes()
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}

func (e *testEnv) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.disk.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// fileBody builds a multipart body with one file part. An empty
// contentType leaves the part header out.
func fileBody(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	disposition := `form-data; name="` + field + `"`
	if filename != "" {
		disposition += `; filename="` + filename + `"`
	}
	h.Set("Content-Disposition", disposition)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

// syncWriter serialises writes from concurrent request goroutines.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
