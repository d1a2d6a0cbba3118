package controller

import (
	"fmt"
	"sync"

	"github.com/conveyor-ci/conveyor/internal/domain"
)

// jobTransitions — допустимые переходы статуса job внутри запуска.
// PENDING -> RUNNING (воркер забрал job из очереди),
// RUNNING -> PASSED | FAILED (терминальный исход выполнения),
// PENDING -> SKIPPED (fail-fast остановил диспетчеризацию).
var jobTransitions = map[domain.JobStatus][]domain.JobStatus{
	domain.JobStatusPending: {domain.JobStatusRunning, domain.JobStatusSkipped},
	domain.JobStatusRunning: {domain.JobStatusPassed, domain.JobStatusFailed},
}

// runState — статусы всех jobs одного запуска, индекс соответствует
// порядку генерации. Защищено мьютексом: статусы двигают воркеры
// конкурентно.
type runState struct {
	mu       sync.RWMutex
	statuses []domain.JobStatus
}

// newRunState создаёт состояние для n jobs, все в статусе PENDING.
func newRunState(n int) *runState {
	statuses := make([]domain.JobStatus, n)
	for i := range statuses {
		statuses[i] = domain.JobStatusPending
	}
	return &runState{statuses: statuses}
}

// Transition переводит job i в статус to, проверяя допустимость
// перехода. Возвращает ErrInvalidTransition, если из текущего статуса
// в to перейти нельзя.
func (s *runState) Transition(i int, to domain.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.statuses) {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, len(s.statuses))
	}

	from := s.statuses[i]
	for _, allowed := range jobTransitions[from] {
		if allowed == to {
			s.statuses[i] = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s (job %d)", ErrInvalidTransition, from, to, i)
}

// Status возвращает текущий статус job i.
func (s *runState) Status(i int) domain.JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statuses[i]
}

// Pending возвращает индексы jobs, так и не покинувших статус PENDING.
// Вызывается после остановки пула: эти jobs не были продиспетчеризованы.
func (s *runState) Pending() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var idx []int
	for i, st := range s.statuses {
		if st == domain.JobStatusPending {
			idx = append(idx, i)
		}
	}
	return idx
}

// Counts возвращает количество jobs по терминальным статусам.
func (s *runState) Counts() (passed, failed, skipped int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.statuses {
		switch st {
		case domain.JobStatusPassed:
			passed++
		case domain.JobStatusFailed:
			failed++
		case domain.JobStatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}
