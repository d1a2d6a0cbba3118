package domain

// RunStatus — статус выполнения run (одного запуска pipeline).
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — run создан, но ещё не начал выполняться.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все job'ы завершились без FAILED.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — хотя бы один job завершился с FAILED.
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed:
		return true
	default:
		return false
	}
}

// JobStatus — статус выполнения job (одной точки матрицы).
//
// Жизненный цикл:
//
//	PENDING → RUNNING → PASSED
//	                  ↘ FAILED
//	        (или) → SKIPPED (только из PENDING: fail-fast сработал
//	                до того, как job был отправлен воркеру)
//
// Из терминального статуса (PASSED, FAILED, SKIPPED) переходов нет.
type JobStatus string

const (
	// JobStatusPending — job сгенерирован матрицей, ожидает диспетчеризации.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusRunning — job выполняется воркером.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusPassed — все шаги выполнены или пропущены по предикату.
	JobStatusPassed JobStatus = "PASSED"

	// JobStatusFailed — один из шагов завершился с ошибкой.
	JobStatusFailed JobStatus = "FAILED"

	// JobStatusSkipped — job не был отправлен на выполнение из-за fail-fast.
	// Это не ошибка, а результат политики.
	JobStatusSkipped JobStatus = "SKIPPED"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusPassed, JobStatusFailed, JobStatusSkipped:
		return true
	default:
		return false
	}
}

// ParseJobStatus парсит строку в JobStatus.
func ParseJobStatus(s string) JobStatus {
	switch s {
	case "RUNNING":
		return JobStatusRunning
	case "PASSED":
		return JobStatusPassed
	case "FAILED":
		return JobStatusFailed
	case "SKIPPED":
		return JobStatusSkipped
	default:
		return JobStatusPending
	}
}
