package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"roomlister/config"
	"roomlister/models"
	"roomlister/services"
	"roomlister/storage"
)

// Triggerable allows workers to be triggered manually
type Triggerable interface {
	Trigger()
}

// Scheduler runs the daemon loops: a periodic sync against the listings
// service and a command poller that lets other processes ask for work
// through the ops store.
type Scheduler struct {
	cfg    *config.Config
	poster *services.Poster
	store  *storage.SQLiteStore
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}

	retryWorker Triggerable
}

func New(cfg *config.Config, poster *services.Poster, store *storage.SQLiteStore) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		poster: poster,
		store:  store,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// SetWorkers registers background workers for manual triggering
func (s *Scheduler) SetWorkers(retry Triggerable) {
	s.retryWorker = retry
}

func (s *Scheduler) Start(ctx context.Context) error {
	go s.pollCommands(ctx)

	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.runSync(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runSync(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon will only respond to commands")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) runSync(ctx context.Context) {
	remote, orphaned, err := s.poster.Sync(ctx)
	if err != nil {
		log.Printf("Scheduled sync error: %v", err)
		return
	}
	log.Printf("Sync: %d listings live", len(remote))
	for _, d := range orphaned {
		log.Printf("Sync: listing %s (draft %s) is gone from the remote service", d.RemoteID, d.ID)
	}
}

func (s *Scheduler) pollCommands(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cmds, err := s.store.GetPendingCommands()
			if err != nil {
				log.Printf("Error getting commands: %v", err)
				continue
			}

			for _, cmd := range cmds {
				log.Printf("Processing command: %s", cmd.Command)
				if err := s.handleCommand(ctx, &cmd); err != nil {
					log.Printf("Command error: %v", err)
				}
				if err := s.store.MarkCommandProcessed(cmd.ID); err != nil {
					log.Printf("Error marking command processed: %v", err)
				}
			}
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) handleCommand(ctx context.Context, cmd *models.Command) error {
	switch cmd.Command {
	case models.CmdRetryUploads:
		if _, err := s.store.RequeueFailedUploads(); err != nil {
			return err
		}
		if s.retryWorker != nil {
			s.retryWorker.Trigger()
			log.Println("Retry worker triggered via command")
		}
		return nil
	case models.CmdSyncListings:
		s.runSync(ctx)
		return nil
	case models.CmdPostDraft:
		params, err := s.store.ParseCommandParams(cmd)
		if err != nil {
			return err
		}
		draftID, err := uuid.Parse(params.DraftID)
		if err != nil {
			return fmt.Errorf("bad draft id %q: %w", params.DraftID, err)
		}
		remote, err := s.poster.Repost(ctx, draftID)
		if err != nil {
			return err
		}
		log.Printf("Draft %s published as %s via command", draftID, remote.ID)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd.Command)
	}
}

// TriggerNow runs the sync immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) {
	s.runSync(ctx)
}
