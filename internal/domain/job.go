package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Job — одна точка матрицы внутри run.
//
// Job создаётся контроллером при развёртке матрицы: каждому JobSpec
// соответствует ровно один Job. Job выполняется как строго упорядоченная
// последовательность шагов на одном воркере.
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// RunID — ссылка на родительский run.
	RunID uuid.UUID `json:"run_id"`

	// Ordinal — позиция job в порядке генерации матрицы (с нуля).
	// Результаты run всегда перечисляются по этому полю.
	Ordinal int `json:"ordinal"`

	// Label — человекочитаемая метка job: значения измерений,
	// соединённые в порядке объявления (например, "clippy/all").
	Label string `json:"label"`

	// Values — полное назначение измерений матрицы для этого job.
	// Например: {"check": "clippy", "features": "all"}.
	Values map[string]string `json:"values,omitempty"`

	// Status — текущий статус job.
	Status JobStatus `json:"status"`

	// FailingStep — метка шага, на котором job упал.
	// Пустая строка, если job не падал.
	FailingStep string `json:"failing_step,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки при неудаче.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания job.
	CreatedAt time.Time `json:"created_at"`
}

// Duration возвращает продолжительность выполнения.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil || j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(*j.StartedAt)
}

// IsFinished возвращает true, если job завершён.
func (j *Job) IsFinished() bool {
	return j.Status.IsTerminal()
}

// MarkRunning переводит job в статус RUNNING.
func (j *Job) MarkRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
}

// MarkPassed переводит job в статус PASSED.
func (j *Job) MarkPassed() {
	now := time.Now()
	j.Status = JobStatusPassed
	j.FinishedAt = &now
}

// MarkFailed переводит job в статус FAILED с упавшим шагом и ошибкой.
func (j *Job) MarkFailed(failingStep, err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.FinishedAt = &now
	j.FailingStep = failingStep
	j.Error = err
}

// MarkSkipped переводит job в статус SKIPPED (fail-fast сработал до диспетчеризации).
func (j *Job) MarkSkipped() {
	now := time.Now()
	j.Status = JobStatusSkipped
	j.FinishedAt = &now
}

// Assignment возвращает назначение измерений в виде "k=v,k=v"
// с ключами в алфавитном порядке. Используется в логах и выводе CLI.
func (j *Job) Assignment() string {
	if len(j.Values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(j.Values))
	for k := range j.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+j.Values[k])
	}
	return strings.Join(parts, ",")
}
