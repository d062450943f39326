package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pershin-daniil/MeetBot/pkg/metrics"
	"github.com/pershin-daniil/MeetBot/pkg/models"
	"github.com/pershin-daniil/MeetBot/pkg/service"
	"github.com/pershin-daniil/MeetBot/pkg/timeutil"
	"github.com/sirupsen/logrus"
)

const DefaultSweepInterval = time.Hour

var ErrAlreadyRunning = errors.New("sweeper is already running")

type SweepStore interface {
	AllMeetings(ctx context.Context) ([]models.Meeting, error)
	DeleteMeeting(ctx context.Context, id int) error
}

// DeletionObserver hears about meetings removed by the sweeper.
type DeletionObserver interface {
	MeetingDeleted(ctx context.Context, meeting models.Meeting) error
}

// Sweeper periodically deletes meetings dated before today.
type Sweeper struct {
	log       *logrus.Entry
	store     SweepStore
	observers []DeletionObserver
	now       func() time.Time

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSweeper(log *logrus.Logger, store SweepStore, observers ...DeletionObserver) *Sweeper {
	return &Sweeper{
		log:       log.WithField("component", "sweeper"),
		store:     store,
		observers: observers,
		now:       time.Now,
	}
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Start sweeps immediately and then once per interval until Stop is called or
// ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn("sweeper is already running")
		return ErrAlreadyRunning
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(ctx, interval, s.stop, s.done)
	s.log.Infof("sweeper started, interval %s", interval)
	return nil
}

// Stop prevents the next sweep from starting. A sweep in progress runs to
// completion; use Wait to block until it has.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stop)
	s.log.Info("sweeper stopped")
}

// Wait blocks until the most recently started loop has exited.
func (s *Sweeper) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Sweeper) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sweeper) loop(ctx context.Context, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.stop == stop {
				s.running = false
			}
			s.mu.Unlock()
			return
		case <-stop:
			return
		case <-timer.C:
			select {
			case <-stop:
				return
			default:
			}
			if _, err := s.SweepNow(ctx); err != nil {
				metrics.SweepErrCount.Inc()
				s.log.Errorf("err sweeping meetings: %v", err)
			}
			timer.Reset(interval)
		}
	}
}

// SweepNow deletes every meeting dated before today and returns how many were
// removed. Meetings that disappear concurrently are skipped; any other store
// failure aborts the sweep.
func (s *Sweeper) SweepNow(ctx context.Context) (int, error) {
	today := timeutil.DateOf(s.now())
	meetings, err := s.store.AllMeetings(ctx)
	if err != nil {
		return 0, fmt.Errorf("err sweeping meetings: %w", err)
	}
	deleted := 0
	for _, m := range meetings {
		if !service.IsPast(m.Date, today) {
			continue
		}
		if err = s.store.DeleteMeeting(ctx, m.ID); err != nil {
			if errors.Is(err, models.ErrMeetingNotFound) {
				continue
			}
			return deleted, fmt.Errorf("err sweeping meeting %d: %w", m.ID, err)
		}
		deleted++
		metrics.MeetingsDeleted.WithLabelValues("expired").Inc()
		for _, o := range s.observers {
			if err := o.MeetingDeleted(ctx, m); err != nil {
				s.log.Warnf("err reporting expired meeting %d: %v", m.ID, err)
			}
		}
	}
	if deleted > 0 {
		s.log.Infof("removed %d past meetings, %d left", deleted, len(meetings)-deleted)
	}
	return deleted, nil
}
