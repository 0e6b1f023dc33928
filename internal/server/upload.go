package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"fileshare/internal/db"
	"fileshare/internal/storage"
)

// errNoFile means the request carried no file part.
var errNoFile = errors.New("no file part in request")

const (
	// Multipart parts without a Content-Type default to text/plain (RFC 7578).
	defaultMimetype = "text/plain"
	insertTimeout   = 10 * time.Second
)

// uploadHandler handles POST /upload. It streams the first file part of a
// multipart body to <storage-dir>/<fileId><ext>, then inserts the metadata
// row and returns it as JSON.
//
// The disk write always completes before the insert starts. If the insert
// fails the written file is removed again so no file exists without a row.
func (cfg Config) uploadHandler(files FileStore, disk *storage.Disk) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := requestLogger(cfg.Logger, r)

		if cfg.MaxUploadBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		}

		part, err := nextFilePart(r)
		if err != nil {
			if isTooLarge(err) {
				uploadsTotal.WithLabelValues(uploadTooLarge).Inc()
				log.Warn("upload rejected", slog.String("reason", "too_large"))
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			uploadsTotal.WithLabelValues(uploadNoFile).Inc()
			log.Warn("no file uploaded", slog.Any("err", err))
			http.Error(w, "No file uploaded", http.StatusBadRequest)
			return
		}
		defer func() { _ = part.Close() }()

		filename := part.FileName()
		ext := extension(filename)
		fileID := uuid.NewString()
		name := fileID + ext
		ip := clientIP(r)

		mimetype := part.Header.Get("Content-Type")
		if mimetype == "" {
			mimetype = defaultMimetype
		}

		log.Info("uploading file",
			slog.String("filename", filename),
			slog.String("file_id", fileID),
			slog.String("ip", ip),
		)

		size, err := disk.Save(name, part)
		if err != nil {
			if isTooLarge(err) {
				uploadsTotal.WithLabelValues(uploadTooLarge).Inc()
				log.Warn("upload rejected", slog.String("reason", "too_large"), slog.String("file_id", fileID))
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			uploadsTotal.WithLabelValues(uploadStorageError).Inc()
			log.Error("saving file failed", slog.String("file_id", fileID), slog.Any("err", err))
			internalError(w)
			return
		}
		log.Debug("file saved", slog.String("name", name), slog.Int64("size", size))

		rec := &db.File{
			Filename: filename,
			Mimetype: mimetype,
			Size:     size,
			URL:      publicURL(cfg.BaseURL, name),
			IP:       ip,
			FileID:   fileID,
		}

		ctx, cancel := context.WithTimeout(r.Context(), insertTimeout)
		defer cancel()

		if err := files.Create(ctx, rec); err != nil {
			uploadsTotal.WithLabelValues(uploadDBError).Inc()
			log.Error("creating file record failed", slog.String("file_id", fileID), slog.Any("err", err))
			if rmErr := disk.Remove(name); rmErr != nil {
				log.Error("removing orphaned file failed", slog.String("name", name), slog.Any("err", rmErr))
			}
			internalError(w)
			return
		}

		uploadsTotal.WithLabelValues(uploadSuccess).Inc()
		uploadBytesTotal.Add(float64(size))
		log.Info("file record created", slog.String("file_id", fileID), slog.Int64("size", size))

		writeJSON(w, http.StatusOK, rec)
	})
}

// nextFilePart advances the multipart reader to the first file part. Parts
// without a filename are plain form fields and are skipped.
func nextFilePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNoFile, err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return nil, errNoFile
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errNoFile, err)
		}
		if part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

// extension returns the extension of filename including the dot. A name
// that is only a leading-dot suffix (".bashrc") has no extension, and an
// extension with characters outside [A-Za-z0-9._-] is dropped so every
// stored name is a plain path element.
func extension(filename string) string {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	for _, c := range ext[1:] {
		if !isExtChar(c) {
			return ""
		}
	}
	return ext
}

func isExtChar(c rune) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '.' || c == '_' || c == '-'
}

func publicURL(baseURL, name string) string {
	return baseURL + "/files/" + url.PathEscape(name)
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func internalError(w http.ResponseWriter) {
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
