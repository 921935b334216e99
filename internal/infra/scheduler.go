package infra

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"provest/internal/service"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron    *cron.Cron
	roi     *service.ROIDistributor
	auditor *service.ReservationAuditor
	logger  *zap.Logger

	roiSpec   string
	auditSpec string
}

// NewScheduler creates a new scheduler. Empty specs fall back to the
// defaults: ROI at 00:05 UTC daily, reservation audit hourly.
func NewScheduler(roi *service.ROIDistributor, auditor *service.ReservationAuditor, roiSpec, auditSpec string, logger *zap.Logger) *Scheduler {
	if roiSpec == "" {
		roiSpec = "5 0 * * *"
	}
	if auditSpec == "" {
		auditSpec = "0 * * * *"
	}
	return &Scheduler{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		roi:       roi,
		auditor:   auditor,
		logger:    logger,
		roiSpec:   roiSpec,
		auditSpec: auditSpec,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.roiSpec, func() {
		ctx := context.Background()
		if err := s.roi.DistributeDaily(ctx); err != nil {
			s.logger.Error("scheduled ROI distribution failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(s.auditSpec, func() {
		ctx := context.Background()
		if _, err := s.auditor.Audit(ctx); err != nil {
			s.logger.Error("scheduled reservation audit failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("roi_schedule", s.roiSpec),
		zap.String("audit_schedule", s.auditSpec))
	return nil
}

// Stop stops the scheduler gracefully
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
}
