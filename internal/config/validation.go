// validation.go - startup validation of the loaded configuration.
//
// Every problem is collected so the operator sees the full list at once
// instead of fixing one variable per restart.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// problems collects "KEY: message" entries for invalid settings.
type problems []string

func (p *problems) addf(key, format string, args ...any) {
	*p = append(*p, key+": "+fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "invalid configuration (%d problem(s)):", len(p))
	for _, msg := range p {
		sb.WriteString("\n  - ")
		sb.WriteString(msg)
	}
	return errors.New(sb.String())
}

// Validate checks every field of c.
func (c *Config) Validate() error {
	var p problems

	if c.Port < 1 || c.Port > 65535 {
		p.addf("SHARE_PORT", "must be between 1 and 65535 (got %d)", c.Port)
	}

	if u, err := url.Parse(c.BaseURL); err != nil {
		p.addf("SHARE_BASE_URL", "invalid URL: %v", err)
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		p.addf("SHARE_BASE_URL", "must be an http(s) URL with a host (got %q)", c.BaseURL)
	}

	if strings.TrimSpace(c.StorageDir) == "" {
		p.addf("SHARE_STORAGE_DIR", "must not be empty")
	}

	switch {
	case c.DatabaseURL == "":
		p.addf("DATABASE_URL", "required")
	case !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://"):
		p.addf("DATABASE_URL", "must be a postgres:// or postgresql:// URL")
	}

	if c.MaxUploadBytes < 0 {
		p.addf("SHARE_MAX_UPLOAD_BYTES", "must not be negative")
	}

	if levels := []string{"debug", "info", "warn", "error"}; !slices.Contains(levels, c.LogLevel) {
		p.addf("SHARE_LOG_LEVEL", "must be one of %s (got %q)", strings.Join(levels, ", "), c.LogLevel)
	}
	if formats := []string{"text", "json"}; !slices.Contains(formats, c.LogFormat) {
		p.addf("SHARE_LOG_FORMAT", "must be one of %s (got %q)", strings.Join(formats, ", "), c.LogFormat)
	}

	if c.ShutdownTimeout <= 0 {
		p.addf("SHARE_SHUTDOWN_TIMEOUT", "must be positive")
	}
	if c.SweepInterval < 0 {
		p.addf("SHARE_SWEEP_INTERVAL", "must not be negative")
	}
	if c.TempMaxAge <= 0 {
		p.addf("SHARE_TEMP_MAX_AGE", "must be positive")
	}

	return p.err()
}
