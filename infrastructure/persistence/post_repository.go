package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"social-hub/domain/model"
)

type PostRepository struct{ db *sql.DB }

func NewPostRepository(db *sql.DB) *PostRepository { return &PostRepository{db: db} }

func (r *PostRepository) CreatePost(ctx context.Context, post *model.Post) error {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.Status == "" {
		post.Status = model.PostStatusProcessing
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO posts (user_id, text, status, created_at, updated_at) VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		post.UserID, post.Text, post.Status, post.CreatedAt, post.UpdatedAt).Scan(&post.ID)
}

func (r *PostRepository) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, text, status, created_at, updated_at FROM posts WHERE id=$1`, id)
	p := &model.Post{}
	if err := row.Scan(&p.ID, &p.UserID, &p.Text, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PostRepository) UpdatePostStatus(ctx context.Context, id int64, status model.PostStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET status=$1, updated_at=$2 WHERE id=$3`, status, time.Now().UTC(), id)
	return err
}

func (r *PostRepository) CreatePlatformPost(ctx context.Context, pp *model.PlatformPost) error {
	now := time.Now().UTC()
	pp.CreatedAt = now
	pp.UpdatedAt = now
	q := `INSERT INTO platform_posts (post_id, platform, platform_post_id, status, posted_at, url, error_message, job_id, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		  ON CONFLICT (post_id, platform) DO UPDATE SET
			status=EXCLUDED.status,
			error_message=EXCLUDED.error_message,
			job_id=EXCLUDED.job_id,
			updated_at=EXCLUDED.updated_at
		  RETURNING id`
	return r.db.QueryRowContext(ctx, q, pp.PostID, pp.Platform, pp.PlatformPostID, pp.Status,
		pp.PostedAt, pp.URL, pp.ErrorMessage, pp.JobID, pp.CreatedAt, pp.UpdatedAt).Scan(&pp.ID)
}

func (r *PostRepository) GetPlatformPosts(ctx context.Context, postID int64) ([]*model.PlatformPost, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, post_id, platform, platform_post_id, status, posted_at, url, error_message, job_id, created_at, updated_at
		 FROM platform_posts WHERE post_id=$1 ORDER BY platform`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.PlatformPost
	for rows.Next() {
		pp, err := scanPlatformPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, pp)
	}
	return list, rows.Err()
}

func (r *PostRepository) GetPlatformPost(ctx context.Context, postID int64, platform model.Platform) (*model.PlatformPost, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, post_id, platform, platform_post_id, status, posted_at, url, error_message, job_id, created_at, updated_at
		 FROM platform_posts WHERE post_id=$1 AND platform=$2`, postID, platform)
	pp, err := scanPlatformPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return pp, nil
}

func (r *PostRepository) UpdatePlatformPostResult(ctx context.Context, postID int64, platform model.Platform,
	status model.PlatformPostStatus, result *model.PublishResult, errMsg *string) error {
	now := time.Now().UTC()
	var platformPostID, url *string
	var postedAt *time.Time
	if result != nil {
		platformPostID = &result.PlatformPostID
		if result.URL != "" {
			url = &result.URL
		}
	}
	if status == model.PlatformPostPosted {
		postedAt = &now
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE platform_posts SET status=$1, platform_post_id=$2, url=$3, posted_at=$4, error_message=$5, updated_at=$6
		 WHERE post_id=$7 AND platform=$8`,
		status, platformPostID, url, postedAt, errMsg, now, postID, platform)
	return err
}

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanPlatformPost(row rowScanner) (*model.PlatformPost, error) {
	pp := &model.PlatformPost{}
	var platformPostID, url, errMsg sql.NullString
	var postedAt sql.NullTime
	var jobID sql.NullInt64
	if err := row.Scan(&pp.ID, &pp.PostID, &pp.Platform, &platformPostID, &pp.Status, &postedAt,
		&url, &errMsg, &jobID, &pp.CreatedAt, &pp.UpdatedAt); err != nil {
		return nil, err
	}
	if platformPostID.Valid {
		v := platformPostID.String
		pp.PlatformPostID = &v
	}
	if url.Valid {
		v := url.String
		pp.URL = &v
	}
	if errMsg.Valid {
		v := errMsg.String
		pp.ErrorMessage = &v
	}
	if postedAt.Valid {
		t := postedAt.Time
		pp.PostedAt = &t
	}
	if jobID.Valid {
		v := jobID.Int64
		pp.JobID = &v
	}
	return pp, nil
}
