package repository

import (
	"context"
	"fmt"

	"jobstatus-api/internal/database"
	"jobstatus-api/internal/model"
)

type JobRepository struct {
	db executor
}

func NewJobRepository(db executor) *JobRepository {
	return &JobRepository{db: db}
}

// ListAll returns every job_status row, prefixed with the column names.
func (r *JobRepository) ListAll(ctx context.Context) (database.Envelope, error) {
	env, err := r.db.Execute(ctx, database.Query{
		Kind:           database.KindSelect,
		Statement:      `SELECT * FROM job_status ORDER BY job_id`,
		IncludeHeaders: true,
	})
	if err != nil {
		return database.Envelope{}, fmt.Errorf("list jobs: %w", err)
	}
	return env, nil
}

// FindByID returns the row of jobID, prefixed with the column names.
func (r *JobRepository) FindByID(ctx context.Context, jobID int64) (database.Envelope, error) {
	env, err := r.db.Execute(ctx, database.Query{
		Kind:           database.KindSelect,
		Statement:      `SELECT * FROM job_status WHERE job_id = ?`,
		Args:           []any{jobID},
		IncludeHeaders: true,
	})
	if err != nil {
		return database.Envelope{}, fmt.Errorf("find job: %w", err)
	}
	return env, nil
}

func (r *JobRepository) Create(ctx context.Context, job model.Job) error {
	var endTime any
	if job.EndTime != nil {
		endTime = *job.EndTime
	}

	env, err := r.db.Execute(ctx, database.Query{
		Kind:      database.KindInsert,
		Statement: `INSERT INTO job_status (program, start_time, end_time, params) VALUES (?, ?, ?, ?)`,
		Args:      []any{job.Program, job.StartTime, endTime, job.Params},
		Commit:    true,
	})
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	if !env.Status {
		return fmt.Errorf("create job %q: no rows inserted", job.Program)
	}
	return nil
}
