package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conveyor-ci/conveyor/internal/domain"
)

// JobRepo — репозиторий для работы с jobs.
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// CreateBatch создаёт все jobs одного run за один round-trip.
// Агент вызывает это сразу после развёртки матрицы, до запуска воркеров.
func (r *JobRepo) CreateBatch(ctx context.Context, jobs []domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	query := `
		INSERT INTO jobs (id, run_id, ordinal, label, dimension_values, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	batch := &pgx.Batch{}
	for i := range jobs {
		job := &jobs[i]
		valuesJSON, err := json.Marshal(job.Values)
		if err != nil {
			return fmt.Errorf("marshal dimension values: %w", err)
		}
		batch.Queue(query,
			job.ID,
			job.RunID,
			job.Ordinal,
			job.Label,
			valuesJSON,
			job.Status,
			job.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range jobs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
	}
	return results.Close()
}

// GetByID возвращает job по ID.
func (r *JobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `
		SELECT id, run_id, ordinal, label, dimension_values, status, failing_step,
		       started_at, finished_at, error, created_at
		FROM jobs
		WHERE id = $1
	`
	return r.scanJob(r.pool.QueryRow(ctx, query, id))
}

// ListByRunID возвращает jobs для run в порядке генерации матрицы.
func (r *JobRepo) ListByRunID(ctx context.Context, runID uuid.UUID) ([]domain.Job, error) {
	query := `
		SELECT id, run_id, ordinal, label, dimension_values, status, failing_step,
		       started_at, finished_at, error, created_at
		FROM jobs
		WHERE run_id = $1
		ORDER BY ordinal ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list jobs by run_id: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := r.scanJobFromRows(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// Update обновляет job.
func (r *JobRepo) Update(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs
		SET status = $2, failing_step = $3, started_at = $4, finished_at = $5, error = $6
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		job.ID,
		job.Status,
		nullString(job.FailingStep),
		job.StartedAt,
		job.FinishedAt,
		nullString(job.Error),
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByRunAndStatus возвращает количество jobs по статусу для run.
func (r *JobRepo) CountByRunAndStatus(ctx context.Context, runID uuid.UUID, status domain.JobStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM jobs WHERE run_id = $1 AND status = $2
	`, runID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return count, nil
}

// --- Helpers ---

func (r *JobRepo) scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var valuesJSON []byte
	var failingStep, jobError *string

	err := row.Scan(
		&job.ID,
		&job.RunID,
		&job.Ordinal,
		&job.Label,
		&valuesJSON,
		&job.Status,
		&failingStep,
		&job.StartedAt,
		&job.FinishedAt,
		&jobError,
		&job.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if valuesJSON != nil {
		if err := json.Unmarshal(valuesJSON, &job.Values); err != nil {
			return nil, fmt.Errorf("unmarshal dimension values: %w", err)
		}
	}
	if failingStep != nil {
		job.FailingStep = *failingStep
	}
	if jobError != nil {
		job.Error = *jobError
	}

	return &job, nil
}

func (r *JobRepo) scanJobFromRows(rows pgx.Rows) (*domain.Job, error) {
	var job domain.Job
	var valuesJSON []byte
	var failingStep, jobError *string

	err := rows.Scan(
		&job.ID,
		&job.RunID,
		&job.Ordinal,
		&job.Label,
		&valuesJSON,
		&job.Status,
		&failingStep,
		&job.StartedAt,
		&job.FinishedAt,
		&jobError,
		&job.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if valuesJSON != nil {
		if err := json.Unmarshal(valuesJSON, &job.Values); err != nil {
			return nil, fmt.Errorf("unmarshal dimension values: %w", err)
		}
	}
	if failingStep != nil {
		job.FailingStep = *failingStep
	}
	if jobError != nil {
		job.Error = *jobError
	}

	return &job, nil
}
