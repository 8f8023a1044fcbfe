package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"social-hub/domain/model"
)

func TestJobRepository_Enqueue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	payload := []byte(`{"user_id":"u1","content":{"text":"hi"}}`)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO publish_jobs")).
		WithArgs(int64(7), model.PlatformTwitter, payload, model.JobQueued, 0, nil,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	repo := NewJobRepository(db)
	id, err := repo.Enqueue(context.Background(), &model.PublishJob{
		PostID:   7,
		Platform: model.PlatformTwitter,
		Payload:  payload,
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_Get_Unknown(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM publish_jobs WHERE id=$1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewJobRepository(db)
	job, err := repo.Get(context.Background(), 404)
	require.NoError(t, err)
	require.Nil(t, job)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_FetchDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "post_id", "platform", "payload", "status", "attempts", "last_error", "next_run_at", "created_at", "updated_at",
	}).
		AddRow(int64(1), int64(7), "twitter", []byte(`{}`), "queued", 0, nil, now, now, now).
		AddRow(int64(2), int64(8), "twitter", []byte(`{}`), "queued", 2, "provider returned 500", now, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM publish_jobs")).
		WithArgs(model.PlatformTwitter, model.JobQueued, sqlmock.AnyArg(), 10).
		WillReturnRows(rows)

	repo := NewJobRepository(db)
	jobs, err := repo.FetchDue(context.Background(), model.PlatformTwitter, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Nil(t, jobs[0].LastError)
	require.Equal(t, 2, jobs[1].Attempts)
	require.Equal(t, "provider returned 500", *jobs[1].LastError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_MarkProcessing_Claim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE publish_jobs SET status=$1")).
		WithArgs(model.JobProcessing, sqlmock.AnyArg(), int64(1), model.JobQueued).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewJobRepository(db)
	claimed, err := repo.MarkProcessing(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_MarkProcessing_AlreadyClaimed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE publish_jobs SET status=$1")).
		WithArgs(model.JobProcessing, sqlmock.AnyArg(), int64(1), model.JobQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewJobRepository(db)
	claimed, err := repo.MarkProcessing(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, claimed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepository_Reschedule(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	nextRun := time.Now().UTC().Add(4 * time.Second)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE publish_jobs SET status=$1, attempts=$2")).
		WithArgs(model.JobQueued, 2, "provider returned 500", nextRun, sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewJobRepository(db)
	require.NoError(t, repo.Reschedule(context.Background(), 1, 2, "provider returned 500", nextRun))
	require.NoError(t, mock.ExpectationsWereMet())
}
