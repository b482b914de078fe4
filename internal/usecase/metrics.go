package usecase

import "time"

type noopMetrics struct{}

func (noopMetrics) VoucherOperation(string) {}
func (noopMetrics) MergeCompleted(int64) {}
func (noopMetrics) MergeFailed() {}
func (noopMetrics) ObserveReport(string, time.Duration) {}

func recorderOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
