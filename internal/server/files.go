package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fileshare/internal/storage"
)

// filesHandler handles GET /files/{name}, streaming the stored file with a
// content type inferred from its extension. Range and conditional requests
// are handled by http.ServeContent. Missing files get the 404 page.
func (cfg Config) filesHandler(disk *storage.Disk, notFound http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		f, info, err := disk.Open(name)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
				notFound.ServeHTTP(w, r)
				return
			}
			requestLogger(cfg.Logger, r).Error("opening stored file failed",
				slog.String("name", name), slog.Any("err", err))
			internalError(w)
			return
		}
		defer func() { _ = f.Close() }()

		http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	})
}
