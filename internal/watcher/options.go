package watcher

import (
	"path/filepath"
	"strings"
	"time"
)

// Options configures the file watcher behavior.
type Options struct {
	// IncludePatterns restricts events to matching base names. Empty means every file.
	IncludePatterns []string
	IgnorePatterns  []string
	SettleDelay     time.Duration
	IgnoreHidden    bool
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.SettleDelay == 0 {
		o.SettleDelay = 250 * time.Millisecond
	}

	// Default ignore patterns only when none were given (nil, not just empty).
	if o.IgnorePatterns == nil {
		o.IgnorePatterns = []string{
			".DS_Store",
			"*.tmp",
			"*.part",
			"*.crdownload",
			"Thumbs.db",
		}
		// Explicit patterns, even an empty slice, leave IgnoreHidden as given.
		o.IgnoreHidden = true
	}
}

// shouldIgnore reports whether path is filtered out.
func (o *Options) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if o.IgnoreHidden && strings.HasPrefix(base, ".") {
		return true
	}

	for _, pattern := range o.IgnorePatterns {
		if matched, err := filepath.Match(pattern, base); err == nil && matched {
			return true
		}
	}

	if len(o.IncludePatterns) == 0 {
		return false
	}
	for _, pattern := range o.IncludePatterns {
		if matched, err := filepath.Match(pattern, strings.ToLower(base)); err == nil && matched {
			return false
		}
	}
	return true
}
