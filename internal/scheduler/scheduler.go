package scheduler

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/connectpx/visitor-context/internal/visitor"
)

// Scheduler periodically refreshes the default-location weather cache so
// the degraded path keeps answering from cache during provider outages.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *visitor.Service
	interval  time.Duration
}

// New creates a Scheduler. An interval <= 0 disables warming.
func New(interval time.Duration, service *visitor.Service) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		interval:  interval,
	}
}

// Start schedules the periodic warm job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: warming disabled; nothing to schedule")
		return nil
	}

	minutes := warmMinutes(s.interval)
	if time.Duration(minutes)*time.Minute != s.interval {
		log.Printf("scheduler: rounding warm interval %s up to %dm", s.interval, minutes)
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		log.Println("scheduler: warming default-location weather cache")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.service.WarmDefaultWeather(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// warmMinutes converts the warm interval to whole minutes for scheduling,
// rounding up so sub-minute intervals do not truncate to zero.
func warmMinutes(interval time.Duration) int {
	return int(math.Ceil(interval.Minutes()))
}
