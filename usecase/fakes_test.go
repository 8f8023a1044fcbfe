package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"social-hub/domain/model"
)

// In-memory fakes shared by the usecase tests.

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.OAuthToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*model.OAuthToken)}
}

func tokenKey(userID string, platform model.Platform) string {
	return userID + "|" + string(platform)
}

func (r *fakeTokenRepo) Upsert(_ context.Context, t *model.OAuthToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	cp.IsActive = true
	r.tokens[tokenKey(t.UserID, t.Platform)] = &cp
	return nil
}

func (r *fakeTokenRepo) Get(_ context.Context, userID string, platform model.Platform) (*model.OAuthToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenKey(userID, platform)]
	if !ok || !t.IsActive {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTokenRepo) Revoke(_ context.Context, userID string, platform model.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[tokenKey(userID, platform)]; ok {
		t.IsActive = false
	}
	return nil
}

type fakeClient struct {
	platform     model.Platform
	pkce         bool
	authURLFn    func(state, challenge string) string
	exchangeFn   func(ctx context.Context, code, verifier string) (*model.OAuthToken, *model.PlatformProfile, error)
	refreshFn    func(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error)
	uploadFn     func(ctx context.Context, token *model.OAuthToken, media []model.MediaItem) ([]string, error)
	createPostFn func(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, refs []string) (*model.PublishResult, error)
}

func (c *fakeClient) Platform() model.Platform { return c.platform }
func (c *fakeClient) RequiresPKCE() bool       { return c.pkce }

func (c *fakeClient) AuthorizationURL(state, challenge string) string {
	if c.authURLFn != nil {
		return c.authURLFn(state, challenge)
	}
	return "https://provider.example/authorize?state=" + state
}

func (c *fakeClient) ExchangeCode(ctx context.Context, code, verifier string) (*model.OAuthToken, *model.PlatformProfile, error) {
	if c.exchangeFn != nil {
		return c.exchangeFn(ctx, code, verifier)
	}
	return &model.OAuthToken{Platform: c.platform, AccessToken: "access-" + code},
		&model.PlatformProfile{UserID: "pid", Username: "puser"}, nil
}

func (c *fakeClient) Refresh(ctx context.Context, token *model.OAuthToken) (*model.OAuthToken, error) {
	if c.refreshFn != nil {
		return c.refreshFn(ctx, token)
	}
	return token, nil
}

func (c *fakeClient) UploadMedia(ctx context.Context, token *model.OAuthToken, media []model.MediaItem) ([]string, error) {
	if c.uploadFn != nil {
		return c.uploadFn(ctx, token, media)
	}
	return nil, nil
}

func (c *fakeClient) CreatePost(ctx context.Context, token *model.OAuthToken, payload *model.PublishPayload, refs []string) (*model.PublishResult, error) {
	if c.createPostFn != nil {
		return c.createPostFn(ctx, token, payload, refs)
	}
	return &model.PublishResult{PlatformPostID: "created"}, nil
}

type fakeJobRepo struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]*model.PublishJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[int64]*model.PublishJob)}
}

func (r *fakeJobRepo) Enqueue(_ context.Context, job *model.PublishJob) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	job.ID = r.nextID
	if job.Status == "" {
		job.Status = model.JobQueued
	}
	cp := *job
	r.jobs[job.ID] = &cp
	return job.ID, nil
}

func (r *fakeJobRepo) Get(_ context.Context, id int64) (*model.PublishJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *job
	return &cp, nil
}

func (r *fakeJobRepo) FetchDue(_ context.Context, platform model.Platform, limit int) ([]*model.PublishJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []*model.PublishJob
	for _, job := range r.jobs {
		if job.Platform == platform && job.Status == model.JobQueued && len(due) < limit {
			cp := *job
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (r *fakeJobRepo) MarkProcessing(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != model.JobQueued {
		return false, nil
	}
	job.Status = model.JobProcessing
	return true, nil
}

func (r *fakeJobRepo) MarkPosted(_ context.Context, id int64) error {
	return r.setStatus(id, model.JobPosted, nil)
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, id int64, lastError string) error {
	return r.setStatus(id, model.JobFailed, &lastError)
}

func (r *fakeJobRepo) Reschedule(_ context.Context, id int64, attempts int, lastError string, nextRunAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %d not found", id)
	}
	job.Status = model.JobQueued
	job.Attempts = attempts
	job.LastError = &lastError
	job.NextRunAt = nextRunAt
	return nil
}

func (r *fakeJobRepo) setStatus(id int64, status model.JobStatus, lastError *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return fmt.Errorf("job %d not found", id)
	}
	job.Status = status
	job.LastError = lastError
	return nil
}

type fakePostRepo struct {
	mu        sync.Mutex
	nextID    int64
	posts     map[int64]*model.Post
	platforms map[string]*model.PlatformPost
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:     make(map[int64]*model.Post),
		platforms: make(map[string]*model.PlatformPost),
	}
}

func platformPostKey(postID int64, platform model.Platform) string {
	return fmt.Sprintf("%d|%s", postID, platform)
}

func (r *fakePostRepo) CreatePost(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = time.Now().UTC()
	cp := *post
	r.posts[post.ID] = &cp
	return nil
}

func (r *fakePostRepo) GetPost(_ context.Context, id int64) (*model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *post
	return &cp, nil
}

func (r *fakePostRepo) UpdatePostStatus(_ context.Context, id int64, status model.PostStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[id]; ok {
		post.Status = status
	}
	return nil
}

func (r *fakePostRepo) CreatePlatformPost(_ context.Context, pp *model.PlatformPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *pp
	r.platforms[platformPostKey(pp.PostID, pp.Platform)] = &cp
	return nil
}

func (r *fakePostRepo) GetPlatformPosts(_ context.Context, postID int64) ([]*model.PlatformPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PlatformPost
	for _, pp := range r.platforms {
		if pp.PostID == postID {
			cp := *pp
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakePostRepo) GetPlatformPost(_ context.Context, postID int64, platform model.Platform) (*model.PlatformPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pp, ok := r.platforms[platformPostKey(postID, platform)]
	if !ok {
		return nil, nil
	}
	cp := *pp
	return &cp, nil
}

func (r *fakePostRepo) UpdatePlatformPostResult(_ context.Context, postID int64, platform model.Platform,
	status model.PlatformPostStatus, result *model.PublishResult, errMsg *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pp, ok := r.platforms[platformPostKey(postID, platform)]
	if !ok {
		return fmt.Errorf("platform post %d/%s not found", postID, platform)
	}
	pp.Status = status
	pp.ErrorMessage = errMsg
	if result != nil {
		id := result.PlatformPostID
		pp.PlatformPostID = &id
		if result.URL != "" {
			url := result.URL
			pp.URL = &url
		}
	}
	return nil
}
