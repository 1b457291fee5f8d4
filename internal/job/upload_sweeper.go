// Package job holds scheduled maintenance tasks.
package job

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// UploadSweeper removes temp upload files left behind by interrupted requests.
type UploadSweeper struct {
	dir    string
	prefix string
	maxAge time.Duration
	now    func() time.Time
}

func NewUploadSweeper(dir, prefix string, maxAge time.Duration) *UploadSweeper {
	return &UploadSweeper{dir: dir, prefix: prefix, maxAge: maxAge, now: time.Now}
}

// Sweep deletes matching files older than maxAge and reports how many went.
func (s *UploadSweeper) Sweep() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), s.prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Str("component", "UploadSweeper").Str("file", entry.Name()).Msg("")
			continue
		}
		removed++
	}
	return removed, nil
}

// Schedule registers the sweep on c using a cron expression such as "@hourly".
func (s *UploadSweeper) Schedule(c *cron.Cron, expr string) error {
	_, err := c.AddFunc(expr, func() {
		removed, err := s.Sweep()
		if err != nil {
			log.Error().Err(err).Str("component", "UploadSweeper").Msg("")
			return
		}
		if removed > 0 {
			log.Info().Int("removed", removed).Str("dir", s.dir).Msg("stale uploads removed")
		}
	})
	return err
}
