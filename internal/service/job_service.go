package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"jobstatus-api/internal/database"
	"jobstatus-api/internal/model"
)

type jobStore interface {
	ListAll(ctx context.Context) (database.Envelope, error)
	FindByID(ctx context.Context, jobID int64) (database.Envelope, error)
}

type JobService struct {
	jobs jobStore
}

func NewJobService(jobs jobStore) *JobService {
	return &JobService{jobs: jobs}
}

func (s *JobService) ListJobs(ctx context.Context) (model.JobsResponse, error) {
	env, err := s.jobs.ListAll(ctx)
	if err != nil {
		return model.JobsResponse{}, err
	}
	return ShapeJobs(env.Rows), nil
}

// GetJob returns the job with the given id. rawID must be an integer,
// otherwise model.ErrInvalidJobID is returned.
func (s *JobService) GetJob(ctx context.Context, rawID string) (model.JobsResponse, error) {
	jobID, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		return model.JobsResponse{}, fmt.Errorf("%w: %q", model.ErrInvalidJobID, rawID)
	}

	env, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return model.JobsResponse{}, err
	}
	return ShapeJobs(env.Rows), nil
}

// ShapeJobs turns header-prefixed rows into one column->value map per row.
func ShapeJobs(rows [][]any) model.JobsResponse {
	resp := model.JobsResponse{Jobs: []map[string]any{}}
	if len(rows) == 0 {
		return resp
	}

	header := rows[0]
	for _, row := range rows[1:] {
		job := make(map[string]any, len(row))
		for i, value := range row {
			if i >= len(header) {
				break
			}
			job[fmt.Sprint(header[i])] = value
		}
		resp.Jobs = append(resp.Jobs, job)
	}

	return resp
}
