package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"social-hub/domain/model"
)

type memJobs struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*model.PublishJob
}

func newMemJobs() *memJobs {
	return &memJobs{jobs: make(map[int64]*model.PublishJob)}
}

func (m *memJobs) add(job *model.PublishJob) *model.PublishJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	job.ID = m.nextID
	if job.Status == "" {
		job.Status = model.JobQueued
	}
	m.jobs[job.ID] = job
	cp := *job
	return &cp
}

func (m *memJobs) Enqueue(_ context.Context, job *model.PublishJob) (int64, error) {
	return m.add(job).ID, nil
}

func (m *memJobs) Get(_ context.Context, id int64) (*model.PublishJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (m *memJobs) FetchDue(_ context.Context, platform model.Platform, limit int) ([]*model.PublishJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	var due []*model.PublishJob
	for _, job := range m.jobs {
		if job.Platform == platform && job.Status == model.JobQueued && !job.NextRunAt.After(now) && len(due) < limit {
			cp := *job
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (m *memJobs) MarkProcessing(_ context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.Status != model.JobQueued {
		return false, nil
	}
	job.Status = model.JobProcessing
	return true, nil
}

func (m *memJobs) MarkPosted(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id].Status = model.JobPosted
	m.jobs[id].LastError = nil
	return nil
}

func (m *memJobs) MarkFailed(_ context.Context, id int64, lastError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[id].Status = model.JobFailed
	m.jobs[id].LastError = &lastError
	return nil
}

func (m *memJobs) Reschedule(_ context.Context, id int64, attempts int, lastError string, nextRunAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job := m.jobs[id]
	job.Status = model.JobQueued
	job.Attempts = attempts
	job.LastError = &lastError
	job.NextRunAt = nextRunAt
	return nil
}

type stubExecutor struct {
	fn    func(ctx context.Context, job *model.PublishJob) (*model.PublishResult, error)
	calls int
}

func (e *stubExecutor) Execute(ctx context.Context, job *model.PublishJob) (*model.PublishResult, error) {
	e.calls++
	return e.fn(ctx, job)
}

type recordingListener struct {
	mu          sync.Mutex
	resolutions []model.PlatformPostStatus
	lastResult  *model.PublishResult
	lastErr     *string
}

func (l *recordingListener) JobResolved(_ context.Context, _ *model.PublishJob, status model.PlatformPostStatus, result *model.PublishResult, errMsg *string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolutions = append(l.resolutions, status)
	l.lastResult = result
	l.lastErr = errMsg
}

func TestWorker_Process_Success(t *testing.T) {
	jobs := newMemJobs()
	job := jobs.add(&model.PublishJob{PostID: 1, Platform: model.PlatformTwitter})
	executor := &stubExecutor{fn: func(_ context.Context, _ *model.PublishJob) (*model.PublishResult, error) {
		return &model.PublishResult{PlatformPostID: "tw-1"}, nil
	}}
	listener := &recordingListener{}
	w := NewWorker(model.PlatformTwitter, jobs, executor, listener, DefaultConfig())

	w.process(context.Background(), job)

	stored, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobPosted, stored.Status)
	require.Equal(t, []model.PlatformPostStatus{model.PlatformPostPosted}, listener.resolutions)
	require.Equal(t, "tw-1", listener.lastResult.PlatformPostID)
}

func TestWorker_Process_RetryableBacksOffExponentially(t *testing.T) {
	jobs := newMemJobs()
	job := jobs.add(&model.PublishJob{PostID: 1, Platform: model.PlatformTwitter})
	executor := &stubExecutor{fn: func(_ context.Context, _ *model.PublishJob) (*model.PublishResult, error) {
		return nil, model.NewTransientNetworkError(model.PlatformTwitter, nil, "provider returned 500")
	}}
	listener := &recordingListener{}
	w := NewWorker(model.PlatformTwitter, jobs, executor, listener, DefaultConfig())

	// Three retryable failures reschedule with doubling delays.
	wantDelays := []time.Duration{2000 * time.Millisecond, 4000 * time.Millisecond, 8000 * time.Millisecond}
	for i, want := range wantDelays {
		before := time.Now().UTC()
		w.process(context.Background(), job)

		stored, err := jobs.Get(context.Background(), job.ID)
		require.NoError(t, err)
		require.Equal(t, model.JobQueued, stored.Status)
		require.Equal(t, i+1, stored.Attempts)
		require.Contains(t, *stored.LastError, "provider returned 500")

		delay := stored.NextRunAt.Sub(before)
		require.GreaterOrEqual(t, delay, want-time.Second)
		require.LessOrEqual(t, delay, want+time.Second)
		require.Empty(t, listener.resolutions, "retries must not notify the listener")

		job = stored
	}

	// The fourth failure exhausts the budget.
	w.process(context.Background(), job)
	stored, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobFailed, stored.Status)
	require.Equal(t, 4, executor.calls)
	require.Equal(t, []model.PlatformPostStatus{model.PlatformPostFailed}, listener.resolutions)
	require.Contains(t, *listener.lastErr, "provider returned 500")
}

func TestWorker_Process_TerminalErrorFailsImmediately(t *testing.T) {
	jobs := newMemJobs()
	job := jobs.add(&model.PublishJob{PostID: 1, Platform: model.PlatformReddit})
	executor := &stubExecutor{fn: func(_ context.Context, _ *model.PublishJob) (*model.PublishResult, error) {
		return nil, model.NewUpstreamAPIError(model.PlatformReddit, "provider returned 400")
	}}
	listener := &recordingListener{}
	w := NewWorker(model.PlatformReddit, jobs, executor, listener, DefaultConfig())

	w.process(context.Background(), job)

	stored, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobFailed, stored.Status)
	require.Equal(t, 1, executor.calls)
	require.Equal(t, []model.PlatformPostStatus{model.PlatformPostFailed}, listener.resolutions)
}

func TestWorker_Process_TimeoutIsTerminal(t *testing.T) {
	jobs := newMemJobs()
	job := jobs.add(&model.PublishJob{PostID: 1, Platform: model.PlatformYouTube})
	executor := &stubExecutor{fn: func(ctx context.Context, _ *model.PublishJob) (*model.PublishResult, error) {
		<-ctx.Done()
		return nil, model.NewTransientNetworkError(model.PlatformYouTube, ctx.Err(), "upload interrupted")
	}}
	listener := &recordingListener{}
	cfg := DefaultConfig()
	cfg.JobTimeout = 10 * time.Millisecond
	w := NewWorker(model.PlatformYouTube, jobs, executor, listener, cfg)

	w.process(context.Background(), job)

	// Even though the underlying error was retryable, blowing the wall clock
	// fails the job outright.
	stored, err := jobs.Get(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobFailed, stored.Status)
	require.Equal(t, []model.PlatformPostStatus{model.PlatformPostFailed}, listener.resolutions)
	require.Contains(t, *listener.lastErr, "wall clock")
}

func TestWorker_Drain_SkipsUnclaimableJobs(t *testing.T) {
	jobs := newMemJobs()
	first := jobs.add(&model.PublishJob{PostID: 1, Platform: model.PlatformTwitter})
	second := jobs.add(&model.PublishJob{PostID: 2, Platform: model.PlatformTwitter})

	// Another worker claims the first job between fetch and claim.
	claimed, err := jobs.MarkProcessing(context.Background(), first.ID)
	require.NoError(t, err)
	require.True(t, claimed)

	executor := &stubExecutor{fn: func(_ context.Context, _ *model.PublishJob) (*model.PublishResult, error) {
		return &model.PublishResult{PlatformPostID: "ok"}, nil
	}}
	w := NewWorker(model.PlatformTwitter, jobs, executor, nil, DefaultConfig())
	require.NoError(t, w.drain(context.Background()))

	require.Equal(t, 1, executor.calls)
	stored, err := jobs.Get(context.Background(), second.ID)
	require.NoError(t, err)
	require.Equal(t, model.JobPosted, stored.Status)
}

func TestWorker_Drain_IgnoresFutureJobs(t *testing.T) {
	jobs := newMemJobs()
	jobs.add(&model.PublishJob{PostID: 1, Platform: model.PlatformTwitter, NextRunAt: time.Now().UTC().Add(time.Hour)})

	executor := &stubExecutor{fn: func(_ context.Context, _ *model.PublishJob) (*model.PublishResult, error) {
		return nil, errors.New("should not run")
	}}
	w := NewWorker(model.PlatformTwitter, jobs, executor, nil, DefaultConfig())
	require.NoError(t, w.drain(context.Background()))
	require.Zero(t, executor.calls)
}

func TestRetryDelay(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 2000*time.Millisecond, cfg.RetryDelay(1))
	require.Equal(t, 4000*time.Millisecond, cfg.RetryDelay(2))
	require.Equal(t, 8000*time.Millisecond, cfg.RetryDelay(3))
}
