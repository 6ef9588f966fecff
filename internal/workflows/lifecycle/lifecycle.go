// Package lifecycle implements the request state machine every workflow
// controller owns: Idle -> InFlight -> Succeeded/Failed -> Idle. Submissions
// are strictly sequential within one controller, and completions apply only
// when their token is still the latest issued one (last submission wins).
package lifecycle

import (
	"sync"

	"github.com/google/uuid"

	"marketing-studio/internal/common/errors"
	"marketing-studio/internal/common/logger"
	"marketing-studio/internal/store"
)

type State int

const (
	Idle State = iota
	InFlight
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Machine guards one workflow's request lifecycle. It also keeps the shared
// in-flight count honest: every entry into InFlight calls BeginRequest on the
// store and every exit calls EndRequest exactly once.
type Machine struct {
	mu       sync.Mutex
	workflow string
	state    State
	token    uint64
	lastErr  *errors.StudioError
	store    *store.SessionStore
	logger   logger.Logger
}

func NewMachine(workflow string, st *store.SessionStore, log logger.Logger) *Machine {
	return &Machine{
		workflow: workflow,
		state:    Idle,
		store:    st,
		logger: log.With(map[string]interface{}{
			"workflow": workflow,
		}),
	}
}

// Begin transitions into InFlight and hands back the submission token plus a
// request id for log correlation. While a request is in flight, Begin is
// refused without any transition or side effect.
func (m *Machine) Begin() (uint64, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == InFlight {
		return 0, "", errors.NewControllerBusyError(m.workflow)
	}

	m.token++
	m.state = InFlight
	m.lastErr = nil
	m.store.BeginRequest()

	requestID := uuid.NewString()
	m.logger.Info("request in flight", map[string]interface{}{
		"requestId": requestID,
		"token":     m.token,
	})

	return m.token, requestID, nil
}

// Succeed applies a successful completion. Returns false when the token is
// stale, in which case nothing changes and the caller must discard its
// payload. A non-nil commit runs under the machine lock, so the transition
// and the publication of the result are one atomic step; commit must not
// call back into the machine.
func (m *Machine) Succeed(token uint64, commit func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(token) {
		m.logStaleLocked(token, "success")
		return false
	}

	m.state = Succeeded
	m.lastErr = nil
	m.store.EndRequest()
	if commit != nil {
		commit()
	}
	return true
}

// Fail applies a failed completion. Returns false when the token is stale.
func (m *Machine) Fail(token uint64, err *errors.StudioError) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.currentLocked(token) {
		m.logStaleLocked(token, "failure")
		return false
	}

	m.state = Failed
	m.lastErr = err
	m.store.EndRequest()

	m.logger.Warn("request failed", map[string]interface{}{
		"token":     token,
		"errorCode": string(err.Code),
	})
	return true
}

// Reset returns the machine to Idle on a user-initiated edit of the input.
// A request still running keeps its token forever-stale and its eventual
// completion is discarded.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == InFlight {
		// Leaving InFlight settles the shared in-flight count; the abandoned
		// completion must not settle it again.
		m.store.EndRequest()
		m.token++
	}
	m.state = Idle
	m.lastErr = nil
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastError returns the error of the most recent failed completion, if any.
func (m *Machine) LastError() *errors.StudioError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Machine) currentLocked(token uint64) bool {
	return m.state == InFlight && token == m.token
}

func (m *Machine) logStaleLocked(token uint64, outcome string) {
	m.logger.Info("stale completion discarded", map[string]interface{}{
		"token":        token,
		"currentToken": m.token,
		"outcome":      outcome,
	})
}
