package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/disk"
)

// ErrLowDiskSpace is returned by Snapshot when the destination volume has
// less free space than the configured minimum.
var ErrLowDiskSpace = errors.New("not enough free disk space for snapshot")

const timestampLayout = "20060102T150405.000000000Z"

// Options configures a Scheduler.
type Options struct {
	Files        []string // data files to copy
	Dir          string   // snapshot destination
	Schedule     string   // standard cron expression; empty disables the schedule
	Keep         int      // snapshots kept per file
	MinFreeBytes uint64
}

// Scheduler periodically copies the data files into a snapshot directory.
type Scheduler struct {
	opts Options
	cron *cron.Cron
	now  func() time.Time

	mu sync.Mutex // serialises snapshots
}

// NewScheduler creates a new backup scheduler.
func NewScheduler(opts Options) *Scheduler {
	if opts.Keep < 1 {
		opts.Keep = 1
	}
	return &Scheduler{
		opts: opts,
		now:  time.Now,
	}
}

// Start registers the snapshot job and starts the cron loop. It does nothing
// when no schedule is configured.
func (s *Scheduler) Start() error {
	if s.opts.Schedule == "" {
		log.Info().Msg("Backup schedule not configured, snapshots disabled")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.opts.Schedule, func() {
		if err := s.Snapshot(); err != nil {
			log.Error().Err(err).Msg("Scheduled snapshot failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", s.opts.Schedule, err)
	}

	s.cron = c
	c.Start()
	log.Info().Str("schedule", s.opts.Schedule).Str("dir", s.opts.Dir).Msg("Starting backup scheduler...")
	return nil
}

// Stop halts the scheduler and waits for a running snapshot to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopped backup scheduler.")
}

// Snapshot copies every data file into the snapshot directory and prunes
// old copies. Files that do not exist yet are skipped.
func (s *Scheduler) Snapshot() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.opts.Dir, 0755); err != nil {
		return fmt.Errorf("could not create backup directory: %w", err)
	}

	usage, err := disk.Usage(s.opts.Dir)
	if err != nil {
		return fmt.Errorf("could not read disk usage of %s: %w", s.opts.Dir, err)
	}
	if usage.Free < s.opts.MinFreeBytes {
		return fmt.Errorf("%w: %d bytes free, %d required", ErrLowDiskSpace, usage.Free, s.opts.MinFreeBytes)
	}

	stamp := s.now().UTC().Format(timestampLayout)
	for _, src := range s.opts.Files {
		dst, err := s.copyFile(src, stamp)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Warn().Str("file", src).Msg("Data file missing, skipping snapshot")
				continue
			}
			return err
		}
		log.Info().Str("file", src).Str("snapshot", dst).Msg("Snapshot written")

		if err := s.prune(src); err != nil {
			return err
		}
	}
	return nil
}

func snapshotPrefix(src string) (prefix, ext string) {
	base := filepath.Base(src)
	ext = filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-", ext
}

func (s *Scheduler) copyFile(src, stamp string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	prefix, ext := snapshotPrefix(src)
	dst := filepath.Join(s.opts.Dir, prefix+stamp+ext)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("could not create snapshot file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst) // Clean up partial file
		return "", fmt.Errorf("could not copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("could not write snapshot file: %w", err)
	}
	return dst, nil
}

// prune removes the oldest snapshots of src beyond the keep limit.
func (s *Scheduler) prune(src string) error {
	snapshots, err := s.Snapshots(src)
	if err != nil {
		return err
	}
	if len(snapshots) <= s.opts.Keep {
		return nil
	}

	for _, old := range snapshots[:len(snapshots)-s.opts.Keep] {
		if err := os.Remove(old); err != nil {
			return fmt.Errorf("could not remove old snapshot %s: %w", old, err)
		}
	}
	return nil
}

// Snapshots lists the snapshots of src, oldest first.
func (s *Scheduler) Snapshots(src string) ([]string, error) {
	prefix, ext := snapshotPrefix(src)
	entries, err := os.ReadDir(s.opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("could not list backup directory: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext)
		if _, err := time.Parse(timestampLayout, stamp); err != nil {
			continue
		}
		out = append(out, filepath.Join(s.opts.Dir, name))
	}
	sort.Strings(out)
	return out, nil
}
