package wallet

import (
	"time"

	"orusledger/internal/models"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration)           {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                                   {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                                  {}
func (n *NoopMetricsCollector) RecordMutation(models.Direction, models.Currency, int64) {}
func (n *NoopMetricsCollector) RecordFallback(string)                                   {}
func (n *NoopMetricsCollector) RecordError(string, string)                              {}
