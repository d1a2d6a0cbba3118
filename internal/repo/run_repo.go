package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conveyor-ci/conveyor/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create создаёт новый run.
// Дубликат idempotency_key внутри pipeline возвращает ErrAlreadyExists.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO runs (id, pipeline, status, fail_fast, max_parallel,
		                  jobs_total, jobs_passed, jobs_failed, jobs_skipped,
		                  triggered_by, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Pipeline,
		run.Status,
		run.FailFast,
		run.MaxParallel,
		run.JobsTotal,
		run.JobsPassed,
		run.JobsFailed,
		run.JobsSkipped,
		nullString(run.TriggeredBy),
		nullString(run.IdempotencyKey),
		run.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT id, pipeline, status, fail_fast, max_parallel,
		       jobs_total, jobs_passed, jobs_failed, jobs_skipped,
		       triggered_by, idempotency_key, started_at, finished_at, error, created_at
		FROM runs
		WHERE id = $1
	`
	return r.scanRun(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey возвращает run по ключу идемпотентности.
func (r *RunRepo) GetByIdempotencyKey(ctx context.Context, pipeline, key string) (*domain.Run, error) {
	query := `
		SELECT id, pipeline, status, fail_fast, max_parallel,
		       jobs_total, jobs_passed, jobs_failed, jobs_skipped,
		       triggered_by, idempotency_key, started_at, finished_at, error, created_at
		FROM runs
		WHERE pipeline = $1 AND idempotency_key = $2
	`
	return r.scanRun(r.pool.QueryRow(ctx, query, pipeline, key))
}

// List возвращает список runs с фильтрацией.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `
		SELECT id, pipeline, status, fail_fast, max_parallel,
		       jobs_total, jobs_passed, jobs_failed, jobs_skipped,
		       triggered_by, idempotency_key, started_at, finished_at, error, created_at
		FROM runs
		WHERE ($1::text IS NULL OR pipeline = $1)
		  AND ($2::text IS NULL OR status = $2::run_status)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Pipeline),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := r.scanRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Update обновляет run.
//
// Политика (fail_fast, max_parallel) и jobs_total тоже обновляются:
// run создаётся до компиляции pipeline, эти поля заполняет агент.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE runs
		SET status = $2, fail_fast = $3, max_parallel = $4, jobs_total = $5,
		    jobs_passed = $6, jobs_failed = $7, jobs_skipped = $8,
		    started_at = $9, finished_at = $10, error = $11
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.FailFast,
		run.MaxParallel,
		run.JobsTotal,
		run.JobsPassed,
		run.JobsFailed,
		run.JobsSkipped,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListPending возвращает runs в статусе PENDING (старые первыми).
func (r *RunRepo) ListPending(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `
		SELECT id, pipeline, status, fail_fast, max_parallel,
		       jobs_total, jobs_passed, jobs_failed, jobs_skipped,
		       triggered_by, idempotency_key, started_at, finished_at, error, created_at
		FROM runs
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := r.scanRunFromRows(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// TryStart атомарно переводит run из PENDING в RUNNING.
//
// Возвращает ErrInvalidState, если run уже забрал другой агент
// (или run не существует). Это защита от двойного выполнения
// при нескольких агентах на одной базе.
func (r *RunRepo) TryStart(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE runs SET status = 'RUNNING', started_at = $2
		WHERE id = $1 AND status = 'PENDING'
	`, id, at)
	if err != nil {
		return fmt.Errorf("try start run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// --- Helpers ---

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	Pipeline string
	Status   domain.RunStatus
	Limit    int
	Offset   int
}

// scanRun сканирует одну строку в Run.
func (r *RunRepo) scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var triggeredBy, idempotencyKey, runError *string

	err := row.Scan(
		&run.ID,
		&run.Pipeline,
		&run.Status,
		&run.FailFast,
		&run.MaxParallel,
		&run.JobsTotal,
		&run.JobsPassed,
		&run.JobsFailed,
		&run.JobsSkipped,
		&triggeredBy,
		&idempotencyKey,
		&run.StartedAt,
		&run.FinishedAt,
		&runError,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if triggeredBy != nil {
		run.TriggeredBy = *triggeredBy
	}
	if idempotencyKey != nil {
		run.IdempotencyKey = *idempotencyKey
	}
	if runError != nil {
		run.Error = *runError
	}

	return &run, nil
}

// scanRunFromRows сканирует строку из rows в Run.
func (r *RunRepo) scanRunFromRows(rows pgx.Rows) (*domain.Run, error) {
	var run domain.Run
	var triggeredBy, idempotencyKey, runError *string

	err := rows.Scan(
		&run.ID,
		&run.Pipeline,
		&run.Status,
		&run.FailFast,
		&run.MaxParallel,
		&run.JobsTotal,
		&run.JobsPassed,
		&run.JobsFailed,
		&run.JobsSkipped,
		&triggeredBy,
		&idempotencyKey,
		&run.StartedAt,
		&run.FinishedAt,
		&runError,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if triggeredBy != nil {
		run.TriggeredBy = *triggeredBy
	}
	if idempotencyKey != nil {
		run.IdempotencyKey = *idempotencyKey
	}
	if runError != nil {
		run.Error = *runError
	}

	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
