package agent

import "errors"

// Ошибки агента.
var (
	// ErrRunNotFound — run не найден в БД.
	ErrRunNotFound = errors.New("run not found")

	// ErrRunNotPending — run не в статусе PENDING: его уже захватил
	// другой агент или он уже завершён.
	ErrRunNotPending = errors.New("run is not in PENDING status")

	// ErrPipelineNotFound — pipeline, на который ссылается run, не найден.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrPipelineInactive — pipeline деактивирован.
	ErrPipelineInactive = errors.New("pipeline is inactive")
)
