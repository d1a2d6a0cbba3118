package controller

import (
	"errors"
	"testing"

	"github.com/conveyor-ci/conveyor/internal/domain"
)

func TestRunState_Lifecycle(t *testing.T) {
	s := newRunState(2)

	if got := s.Status(0); got != domain.JobStatusPending {
		t.Fatalf("initial status %s, expected PENDING", got)
	}
	if err := s.Transition(0, domain.JobStatusRunning); err != nil {
		t.Fatalf("PENDING -> RUNNING: %v", err)
	}
	if err := s.Transition(0, domain.JobStatusPassed); err != nil {
		t.Fatalf("RUNNING -> PASSED: %v", err)
	}

	// Терминальный статус менять нельзя.
	if err := s.Transition(0, domain.JobStatusRunning); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("PASSED -> RUNNING: err = %v, expected ErrInvalidTransition", err)
	}

	if pending := s.Pending(); len(pending) != 1 || pending[0] != 1 {
		t.Errorf("Pending() = %v, expected [1]", pending)
	}
}

func TestRunState_PendingSkipsRunning(t *testing.T) {
	// PASSED напрямую из PENDING недостижим: job обязан пройти RUNNING.
	s := newRunState(1)
	if err := s.Transition(0, domain.JobStatusPassed); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("PENDING -> PASSED: err = %v, expected ErrInvalidTransition", err)
	}

	// SKIPPED из PENDING — допустим: так помечаются не отправленные jobs.
	if err := s.Transition(0, domain.JobStatusSkipped); err != nil {
		t.Errorf("PENDING -> SKIPPED: %v", err)
	}
}

func TestRunState_IndexOutOfRange(t *testing.T) {
	s := newRunState(1)
	if err := s.Transition(5, domain.JobStatusRunning); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("err = %v, expected ErrIndexOutOfRange", err)
	}
}

func TestRunState_Counts(t *testing.T) {
	s := newRunState(4)
	mustTransition(t, s, 0, domain.JobStatusRunning)
	mustTransition(t, s, 0, domain.JobStatusPassed)
	mustTransition(t, s, 1, domain.JobStatusRunning)
	mustTransition(t, s, 1, domain.JobStatusFailed)
	mustTransition(t, s, 2, domain.JobStatusSkipped)

	passed, failed, skipped := s.Counts()
	if passed != 1 || failed != 1 || skipped != 1 {
		t.Errorf("Counts() = (%d, %d, %d), expected (1, 1, 1)", passed, failed, skipped)
	}
}

func mustTransition(t *testing.T, s *runState, i int, to domain.JobStatus) {
	t.Helper()
	if err := s.Transition(i, to); err != nil {
		t.Fatalf("Transition(%d, %s): %v", i, to, err)
	}
}
