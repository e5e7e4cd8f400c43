package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gridseq/debug"
	"gridseq/timeline"
)

// Error is an application-level rejection: the server answered, but with
// a non-2xx status. Its detail is the human-readable message for the
// operator. Transport failures are returned as plain wrapped errors.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("server error (status %d)", e.Status)
}

// Client talks to the mini-DAW state-mutation service
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends a JSON request and decodes a JSON response into out (if non-nil).
// Non-2xx responses become *Error with the body's detail field.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	debug.Log("api", "%s %s id=%s", method, path, reqID[:8])

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail extracts {"detail": "..."} from an error body, falling
// back to the raw body text
func errorDetail(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	return strings.TrimSpace(string(data))
}

// CreateProject creates a new project with default tracks
func (c *Client) CreateProject(ctx context.Context, req CreateProjectRequest) (timeline.ProjectState, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPost, "/api/projects", req, &out)
	return out.State, err
}

// GetProject fetches the authoritative state
func (c *Client) GetProject(ctx context.Context, projectID string) (timeline.ProjectState, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodGet, "/api/projects/"+projectID, nil, &out)
	return out.State, err
}

// UpdateMeta patches bpm/bars/swing
func (c *Client) UpdateMeta(ctx context.Context, projectID string, req UpdateMetaRequest) (timeline.ProjectState, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPatch, "/api/projects/"+projectID+"/meta", req, &out)
	return out.State, err
}

// PatchTrack patches volume/pan/mute/solo/sample on one track
func (c *Client) PatchTrack(ctx context.Context, projectID string, trackID int, req UpdateTrackRequest) (timeline.ProjectState, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/projects/%s/tracks/%d", projectID, trackID), req, &out)
	return out.State, err
}

// Chat runs a free-text command through the server's planner
func (c *Client) Chat(ctx context.Context, projectID, message string) (ChatResponse, error) {
	var out ChatResponse
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/chat",
		map[string]string{"message": message}, &out)
	return out, err
}

// ToggleDrum toggles a drum hit at a tick
func (c *Client) ToggleDrum(ctx context.Context, projectID string, req ToggleDrumRequest) (timeline.ProjectState, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/actions/toggle_drum", req, &out)
	return out.State, err
}

// SetPitch changes a melodic event's pitch
func (c *Client) SetPitch(ctx context.Context, projectID string, req SetPitchRequest) (timeline.ProjectState, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/actions/set_pitch", req, &out)
	return out.State, err
}

// SetStart moves an event to an absolute tick
func (c *Client) SetStart(ctx context.Context, projectID string, req SetStartRequest) (timeline.ProjectState, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/actions/set_start", req, &out)
	return out.State, err
}

// SelectEvent mirrors the local selection to the server (side channel,
// no state in the response)
func (c *Client) SelectEvent(ctx context.Context, projectID, eventID string) error {
	var out SelectResponse
	return c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/actions/select",
		SelectRequest{EventID: eventID}, &out)
}

// ApplyPattern applies a named drum pattern over a bar range
func (c *Client) ApplyPattern(ctx context.Context, projectID string, req ApplyPatternRequest) (timeline.ProjectState, error) {
	var out StateResponse
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/actions/apply_pattern", req, &out)
	return out.State, err
}

// Undo reverts the last n edits and returns the action log
func (c *Client) Undo(ctx context.Context, projectID string, steps int) (ChatResponse, error) {
	var out ChatResponse
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/actions/undo",
		UndoRequest{Steps: steps}, &out)
	return out, err
}

// SubmitJob starts a long-running job; the server answers immediately
// with a job id and the work proceeds out of band
func (c *Client) SubmitJob(ctx context.Context, projectID, kind string, params any) (string, error) {
	var out JobResponse
	err := c.do(ctx, http.MethodPost, "/api/projects/"+projectID+"/jobs/"+kind, params, &out)
	return out.JobID, err
}

// JobStatus fetches one poll of a job
func (c *Client) JobStatus(ctx context.Context, jobID string) (Job, error) {
	var out Job
	err := c.do(ctx, http.MethodGet, "/api/jobs/"+jobID, nil, &out)
	return out, err
}
