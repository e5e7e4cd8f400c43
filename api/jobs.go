package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gridseq/debug"
)

// DefaultPollInterval between job status fetches
const DefaultPollInterval = 250 * time.Millisecond

// JobFailedError carries the server-reported failure of a job that
// reached the failed status (distinct from a poll request failure,
// which propagates as-is).
type JobFailedError struct {
	JobID   string
	Message string
}

func (e *JobFailedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("job %s failed", e.JobID)
}

// ProgressFunc receives one observation per poll
type ProgressFunc func(job Job)

// Poller tracks one async job to completion by polling at a fixed
// interval. It observes exactly one terminal status per job, then stops.
type Poller struct {
	client   *Client
	interval time.Duration
}

// NewPoller creates a poller; interval <= 0 uses DefaultPollInterval
func NewPoller(client *Client, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{client: client, interval: interval}
}

// Wait polls until the job is terminal, the context is cancelled, or a
// poll request fails. onProgress (may be nil) fires on every poll,
// including the terminal one. On done it returns the job's result.
func (p *Poller) Wait(ctx context.Context, jobID string, onProgress ProgressFunc) (Job, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		job, err := p.client.JobStatus(ctx, jobID)
		if err != nil {
			// fail-fast: no retry of transient poll errors
			return Job{}, err
		}
		if onProgress != nil {
			onProgress(job)
		}
		debug.LogEvery(8, "jobs", "job %s %s %d%%", jobID, job.Status, job.Progress)

		switch job.Status {
		case JobDone:
			return job, nil
		case JobFailed:
			return job, &JobFailedError{JobID: jobID, Message: job.Error}
		}

		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// IsCancelled reports whether an error from Wait was a caller cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
