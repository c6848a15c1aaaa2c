package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragchain/internal/common"
	"github.com/ternarybob/ragchain/internal/interfaces"
	"github.com/ternarybob/ragchain/internal/models"
	"github.com/ternarybob/ragchain/internal/services/ingestion"
)

// FileSet is the tracked file set the watcher keeps in sync with the directory
type FileSet interface {
	Add(path string) bool
	Remove(path string) bool
	Dir() string
}

// Service watches the document directory and requests a resync whenever a
// supported file changes. Requests land on a bounded queue that coalesces
// duplicates, and a single worker drains it into the ingestion pipeline.
type Service struct {
	files     FileSet
	ingestion interfaces.IngestionService
	events    interfaces.EventService
	schedule  string
	logger    arbor.ILogger

	queue chan string
	cron  *cron.Cron

	mu      sync.Mutex
	running bool
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService creates a stopped watcher. queueSize below 1 is raised to 1;
// an empty schedule disables the periodic resync. events may be nil.
func NewService(files FileSet, ingestionService interfaces.IngestionService, events interfaces.EventService, queueSize int, schedule string, logger arbor.ILogger) *Service {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Service{
		files:     files,
		ingestion: ingestionService,
		events:    events,
		schedule:  schedule,
		logger:    logger,
		queue:     make(chan string, queueSize),
		cron:      cron.New(cron.WithParser(cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor))),
	}
}

// Start creates the directory if needed, begins watching it and starts the
// worker and the resync schedule.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("watcher already running")
	}

	dir := s.files.Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create document directory %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	if s.schedule != "" {
		if _, err := s.cron.AddFunc(s.schedule, func() { s.Trigger(ingestion.TriggerResync) }); err != nil {
			watcher.Close()
			return fmt.Errorf("failed to add resync schedule: %w", err)
		}
		s.cron.Start()
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.watcher = watcher
	s.cancel = cancel
	s.running = true

	s.wg.Add(2)
	common.SafeGo(s.logger, "watcher-events", s.wg.Done, func() { s.watchLoop(runCtx, watcher) })
	common.SafeGo(s.logger, "watcher-worker", s.wg.Done, func() { s.worker(runCtx) })

	s.logger.Info().
		Str("dir", dir).
		Int("queue_size", cap(s.queue)).
		Str("resync_schedule", s.schedule).
		Msg("Document watcher started")

	return nil
}

// Stop halts watching and waits for the worker. A run already in progress
// observes the cancelled context.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	err := s.watcher.Close()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()

	s.logger.Info().Msg("Document watcher stopped")
	return err
}

// Trigger enqueues a resync request. It returns false when a request is
// already pending, in which case the pending one covers this change too.
func (s *Service) Trigger(reason string) bool {
	select {
	case s.queue <- reason:
		return true
	default:
		s.logger.Debug().Str("trigger", reason).Msg("Resync already pending")
		return false
	}
}

func (s *Service) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			s.handleEvent(ctx, event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (s *Service) handleEvent(ctx context.Context, event fsnotify.Event) {
	if !models.IsSupported(event.Name) {
		return
	}

	path := event.Name
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	var op string
	switch {
	case event.Has(fsnotify.Create):
		op = "created"
		s.files.Add(path)
	case event.Has(fsnotify.Write):
		op = "modified"
		s.files.Add(path)
	case event.Has(fsnotify.Remove):
		op = "deleted"
		s.files.Remove(path)
	case event.Has(fsnotify.Rename):
		// The new name arrives as a separate Create
		op = "moved"
		s.files.Remove(path)
	default:
		return
	}

	s.logger.Debug().Str("path", path).Str("op", op).Msg("Document changed")
	if s.events != nil {
		payload := map[string]interface{}{"path": path, "op": op}
		if err := s.events.Publish(ctx, interfaces.Event{Type: interfaces.EventDocumentsChanged, Payload: payload}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish documents_changed event")
		}
	}

	s.Trigger(ingestion.TriggerWatcher)
}

// worker runs one ingestion per dequeued request. Outcomes are only logged.
func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-s.queue:
			result, err := s.ingestion.Run(ingestion.WithTrigger(ctx, trigger))
			switch {
			case errors.Is(err, interfaces.ErrIngestionInProgress):
				s.logger.Debug().Str("trigger", trigger).Msg("Resync dropped, ingestion already in progress")
			case err != nil:
				s.logger.Warn().Err(err).Str("trigger", trigger).Msg("Resync failed")
			default:
				s.logger.Debug().
					Str("trigger", trigger).
					Str("status", string(result.Status)).
					Msg("Resync finished")
			}
		}
	}
}
