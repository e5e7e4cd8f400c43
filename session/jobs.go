package session

import (
	"context"

	"gridseq/api"
)

// RenderPreview submits a preview render job and polls it to a terminal
// status, forwarding progress to onProgress. The result carries the
// audio artifact reference (wav_url).
func (m *Manager) RenderPreview(ctx context.Context, params api.RenderParams, onProgress api.ProgressFunc) (api.Job, error) {
	return m.runJob(ctx, api.JobRenderPreview, params, onProgress, false)
}

// RenderMixdown submits a mixdown render job and polls it to a terminal
// status.
func (m *Manager) RenderMixdown(ctx context.Context, params api.RenderParams, onProgress api.ProgressFunc) (api.Job, error) {
	return m.runJob(ctx, api.JobRenderMixdown, params, onProgress, false)
}

// GenerateSample submits a sample-generation job. On success the server
// has registered the sample in the project state, so the cache is
// reloaded before returning.
func (m *Manager) GenerateSample(ctx context.Context, params api.GenerateSampleParams, onProgress api.ProgressFunc) (api.Job, error) {
	return m.runJob(ctx, api.JobGenerateSample, params, onProgress, true)
}

func (m *Manager) runJob(ctx context.Context, kind string, params any, onProgress api.ProgressFunc, reload bool) (api.Job, error) {
	if err := m.EnsureProject(ctx); err != nil {
		m.Say("error: %v", err)
		return api.Job{}, err
	}

	m.mu.RLock()
	id := m.projectID
	m.mu.RUnlock()

	jobID, err := m.client.SubmitJob(ctx, id, kind, params)
	if err != nil {
		m.Say("error: %s: %v", kind, err)
		return api.Job{}, err
	}
	m.Say("%s started (job %s)", kind, jobID)

	job, err := m.poller.Wait(ctx, jobID, onProgress)
	if err != nil {
		m.Say("error: %s: %v", kind, err)
		return job, err
	}

	if reload {
		if rerr := m.Reload(ctx); rerr != nil {
			m.Say("error: reload after %s: %v", kind, rerr)
		}
	}

	if url, ok := job.Result["wav_url"].(string); ok {
		m.Say("%s done: %s", kind, url)
	} else if sid, ok := job.Result["sample_id"].(string); ok {
		m.Say("%s done: sample %s", kind, sid)
	} else {
		m.Say("%s done", kind)
	}
	return job, nil
}
