package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler runs the periodic full resync that backstops the change feed:
// a missed notification is repaired within one cron tick.
type Scheduler struct {
	cron   *cron.Cron
	spec   string
	resync func(ctx context.Context)
	log    zerolog.Logger
}

func NewScheduler(spec string, resync func(ctx context.Context), log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		spec:   spec,
		resync: resync,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.resync == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runResync); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

func (s *Scheduler) runResync() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.log.Debug().Msg("scheduled resync")
	s.resync(ctx)
}
