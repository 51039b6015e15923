package scheduler

import (
	"context"
	"time"
)

// maxHistory bounds the stored results per job
const maxHistory = 100

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression.
	// Seconds field first: "0 */30 9-15 * * MON-FRI"
	// Descriptors such as "@hourly" also work
	Schedule() string
}

// FuncJob adapts a function to Job
type FuncJob struct {
	JobName string
	Spec    string
	Fn      func(ctx context.Context) error
}

// Name returns the job name
func (j FuncJob) Name() string { return j.JobName }

// Schedule returns the cron spec
func (j FuncJob) Schedule() string { return j.Spec }

// Run calls Fn
func (j FuncJob) Run(ctx context.Context) error { return j.Fn(ctx) }

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores job execution history
type JobHistory struct {
	Results []JobResult
}

// AddResult adds a job result to history, keeping the last maxHistory
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)

	if len(h.Results) > maxHistory {
		h.Results = h.Results[len(h.Results)-maxHistory:]
	}
}

// GetLatestResults returns the latest N results, newest first
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	n = min(n, len(h.Results))
	if n <= 0 {
		return []JobResult{}
	}

	latest := make([]JobResult, n)
	for i := range latest {
		latest[i] = h.Results[len(h.Results)-1-i]
	}
	return latest
}

// GetFailedResults returns all failed results
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, result := range h.Results {
		if !result.Success {
			failed = append(failed, result)
		}
	}
	return failed
}

// GetSuccessRate returns the success rate (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}

	successCount := 0
	for _, result := range h.Results {
		if result.Success {
			successCount++
		}
	}

	return float64(successCount) / float64(len(h.Results))
}
