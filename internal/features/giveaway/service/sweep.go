package service

import (
	"context"
	"sync"
	"time"

	apperrors "discord-giveaways/internal/common/errors"
	"discord-giveaways/internal/common/logger"
)

// sweeper periodically walks every stored giveaway and ends the ones whose
// deadline has passed. Paused giveaways are skipped until their unpauseAfter
// moment, at which point they are resumed first.
type sweeper struct {
	mgr      *Manager
	interval time.Duration
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

func newSweeper(mgr *Manager, interval time.Duration) *sweeper {
	if interval <= 0 {
		interval = time.Second
	}
	return &sweeper{
		mgr:      mgr,
		interval: interval,
	}
}

// start launches the sweep loop. Each start gets its own context, so the
// sweeper can be stopped and started again.
func (s *sweeper) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	logger.Info().Dur("interval", s.interval).Msg("starting giveaway sweep")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.sweep(ctx); err != nil {
					logger.Error().Err(err).Msg("giveaway sweep failed")
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *sweeper) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	logger.Info().Msg("stopping giveaway sweep")
	s.cancel()
	s.wg.Wait()
	s.running = false
	logger.Info().Msg("giveaway sweep stopped")
}

// sweep runs one pass over the whole collection.
func (s *sweeper) sweep(ctx context.Context) error {
	now := time.Now()
	entities, err := s.mgr.GetAll()
	if err != nil {
		return err
	}

	for _, entity := range entities {
		record := entity.Raw()

		if record.Paused() {
			after := record.PauseOptions.UnpauseAfter
			if after > 0 && now.UnixMilli() >= after {
				if err := entity.Unpause(ctx); err != nil {
					logger.Error().Err(err).
						Str("guild_id", record.GuildID).
						Int("id", record.ID).
						Msg("failed to auto-unpause giveaway")
				}
			}
			continue
		}

		if record.Ended() || !record.IsFinished(now) {
			continue
		}

		if _, err := entity.End(ctx); err != nil {
			// Another sweep pass or a manual call may have ended it first.
			if apperrors.HasCode(err, apperrors.ErrCodeGiveawayEnded) {
				continue
			}
			logger.Error().Err(err).
				Str("guild_id", record.GuildID).
				Int("id", record.ID).
				Msg("failed to end expired giveaway")
		}
	}
	return nil
}
