package artifacts

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper periodically deletes artifacts older than the retention
// window. It is owned by the server lifecycle: started once on boot,
// stopped on shutdown, instead of being re-spawned per request.
type Sweeper struct {
	store    *Store
	maxAge   time.Duration
	interval time.Duration
	logger   *logrus.Logger
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(store *Store, maxAge, interval time.Duration, logger *logrus.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight pass to finish.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

// Sweep deletes every regular file in the store whose mtime is older
// than the retention window. Failures never propagate: a request must
// not fail because cleanup did. Returns the number of files removed.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.store.Dir())
	if err != nil {
		s.logger.WithError(err).Warn("artifact sweep: cannot list directory")
		return 0
	}

	now := time.Now()
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.maxAge {
			continue
		}
		path := filepath.Join(s.store.Dir(), entry.Name())
		if err := os.Remove(path); err != nil {
			// Concurrent removal or permissions; either way, best effort
			s.logger.WithError(err).WithField("file", entry.Name()).Debug("artifact sweep: remove failed")
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.WithField("removed", removed).Info("artifact sweep completed")
	}
	return removed
}
