package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/brandpulse/mentions-bot/internal/config"
	"github.com/brandpulse/mentions-bot/internal/monitoring"
)

// Service handles scheduling of monitoring runs
type Service struct {
	config            *config.Config
	monitoringService *monitoring.Service
	cron              *cron.Cron
}

// NewService creates a new scheduler service
func NewService(cfg *config.Config, monitoringService *monitoring.Service) *Service {
	return &Service{
		config:            cfg,
		monitoringService: monitoringService,
		cron:              cron.New(cron.WithSeconds()),
	}
}

// Start begins the scheduled monitoring
func (s *Service) Start() error {
	_, err := s.cron.AddFunc(s.config.PollSchedule, func() {
		logrus.Info("Starting scheduled monitoring run")
		summary := s.monitoringService.RunScheduled(context.Background())
		if !summary.Success {
			logrus.Errorf("Scheduled monitoring run failed: %s", summary.Message)
			return
		}
		logrus.Infof("Scheduled monitoring run finished: %s", summary.Message)
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	logrus.Infof("Scheduler started with schedule %q", s.config.PollSchedule)
	return nil
}

// Stop stops the scheduler
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Scheduler stopped")
	}
}
