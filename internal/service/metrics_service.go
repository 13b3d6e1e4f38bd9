package service

import (
	"github.com/prohmpiriya/devops-api/internal/metrics"
	"github.com/prohmpiriya/devops-api/pkg/logger"
)

// MetricsService exposes the request aggregator to handlers
type MetricsService interface {
	Snapshot() metrics.Snapshot
	Reset()
}

type metricsService struct {
	aggregator *metrics.Aggregator
	log        *logger.Logger
}

// NewMetricsService creates a new MetricsService
func NewMetricsService(aggregator *metrics.Aggregator, log *logger.Logger) MetricsService {
	if log == nil {
		log = logger.Get()
	}
	return &metricsService{aggregator: aggregator, log: log}
}

func (s *metricsService) Snapshot() metrics.Snapshot {
	return s.aggregator.Snapshot()
}

func (s *metricsService) Reset() {
	s.aggregator.Reset()
	s.log.Info("request metrics reset")
}
