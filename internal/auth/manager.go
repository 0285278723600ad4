package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
	"github.com/asavelyev/sentinel-bridge/internal/logger"
	repo "github.com/asavelyev/sentinel-bridge/internal/repository/session"
)

// Transport abstracts the vendor API operations the state machine drives.
type Transport interface {
	Login(ctx context.Context, creds domain.Credentials) (*domain.LoginOutcome, error)
	SendOTP(ctx context.Context, phoneID int, otpHash string) error
	VerifyOTP(ctx context.Context, code string) (*domain.Session, error)
	UseSession(session *domain.Session)
}

var (
	// ErrResetRequired is returned for any transition attempted from the
	// Failed state without an explicit Reset.
	ErrResetRequired = errors.New("state machine failed, reset required")
	// ErrNotAuthenticated is returned when an operation needs an
	// established session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Manager drives login through its phases: Idle, AwaitingDeviceAuth,
// AwaitingOTP, Authenticated and Failed. It owns the Session and the
// pending OTPChallenge exclusively; every successful entry into
// Authenticated persists the session via the repository, logout deletes it.
//
// An abandoned challenge stays in memory until a new Login supersedes it
// or Reset clears it; there is no timeout-driven expiry.
type Manager struct {
	// transport performs the vendor API calls.
	transport Transport
	// sessions persists the established session across restarts.
	sessions repo.Repository
	// creds are the account credentials submitted on Login.
	creds domain.Credentials

	// mu protects state, session and challenge.
	mu sync.Mutex
	// state is the current machine phase.
	state State
	// session is the established session, nil outside Authenticated.
	session *domain.Session
	// challenge is the pending OTP challenge, nil outside the OTP phases.
	challenge *domain.OTPChallenge
	// now returns the current time, replaceable in tests.
	now func() time.Time
}

// NewManager wires the transport and session repository into a machine in
// the Idle state. A missing device id is generated once and reused for
// every login of this manager.
func NewManager(transport Transport, sessions repo.Repository, creds domain.Credentials) *Manager {
	if creds.DeviceID == "" {
		creds.DeviceID = uuid.NewString()
	}

	return &Manager{
		transport: transport,
		sessions:  sessions,
		creds:     creds,
		state:     StateIdle,
		now:       time.Now,
	}
}

// State returns the current machine phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Session returns a copy of the established session, nil when there is none.
func (m *Manager) Session() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.session.Clone()
}

// Resume tries to restore a persisted session instead of logging in.
// It reports true when a live session was installed. An expired session
// is deleted and reported as absent.
func (m *Manager) Resume(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		return false, m.transitionError("resume")
	}

	session, err := m.sessions.Load(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("resume session: %w", err)
	}

	if session.Expired(m.now()) {
		logger.Info(ctx, "Persisted session expired, discarding it")

		if err = m.sessions.Delete(ctx); err != nil {
			return false, fmt.Errorf("discard expired session: %w", err)
		}

		return false, nil
	}

	m.installSession(session)
	logger.InfoKV(ctx, "Session resumed", "username", session.Username, "expiry", session.Expiry)

	return true, nil
}

// Login submits credentials. It moves Idle to Authenticated on direct
// acceptance or to AwaitingDeviceAuth when the upstream demands device
// authorization. A login started from the OTP phases supersedes the
// pending challenge. Authenticated is a no-op; Failed requires Reset.
//
// Rejected credentials move the machine to Failed (retrying without new
// input is pointless); connection errors leave the state untouched so the
// caller may retry.
func (m *Manager) Login(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateFailed:
		return m.state, ErrResetRequired
	case StateAuthenticated:
		return m.state, nil
	case StateIdle, StateAwaitingDeviceAuth, StateAwaitingOTP:
		// A fresh login supersedes any pending challenge.
		m.challenge = nil
	}

	outcome, err := m.transport.Login(ctx, m.creds)
	if err != nil {
		if errors.Is(err, domain.ErrAuthentication) {
			m.state = StateFailed
		}

		return m.state, err
	}

	if outcome.NeedDeviceAuth {
		m.challenge = outcome.Challenge.Clone()
		m.state = StateAwaitingDeviceAuth
		logger.InfoKV(ctx, "Device authorization required", "phones", len(m.challenge.Phones))

		return m.state, nil
	}

	if err = m.persistSession(ctx, outcome.Session); err != nil {
		return m.state, err
	}

	m.installSession(outcome.Session)
	logger.InfoKV(ctx, "Login succeeded", "username", m.creds.Username)

	return m.state, nil
}

// AvailablePhones returns the challenge's phone list, empty when no
// challenge is pending.
func (m *Manager) AvailablePhones() []domain.OTPPhone {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.challenge == nil {
		return nil
	}

	return m.challenge.Clone().Phones
}

// SelectPhone picks the OTP delivery target and moves AwaitingDeviceAuth
// to AwaitingOTP. It returns true iff the id references a phone of the
// current challenge; on false the state and the phone list are unchanged.
func (m *Manager) SelectPhone(id int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAwaitingDeviceAuth && m.state != StateAwaitingOTP {
		return false, m.transitionError("select phone")
	}

	if !m.challenge.HasPhone(id) {
		return false, domain.ErrInvalidPhoneSelection
	}

	m.challenge.SelectedPhoneID = id
	m.state = StateAwaitingOTP

	return true, nil
}

// SendCode dispatches (or idempotently re-dispatches) the code to the
// selected phone. It fails with an OTP error when the challenge lost its
// hash, its phone list or its selection.
func (m *Manager) SendCode(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAwaitingOTP {
		return m.transitionError("send code")
	}

	if err := m.challenge.Validate(); err != nil {
		return err
	}

	if err := m.transport.SendOTP(ctx, m.challenge.SelectedPhoneID, m.challenge.Hash); err != nil {
		return err
	}

	logger.InfoKV(ctx, "OTP dispatched", "phone_id", m.challenge.SelectedPhoneID)

	return nil
}

// VerifyOTP submits the received code. An empty code is rejected locally
// before any network call. Acceptance moves the machine to Authenticated
// and persists the session; upstream rejection moves it to Failed.
// Connection errors leave AwaitingOTP untouched so the caller may retry.
func (m *Manager) VerifyOTP(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAwaitingOTP {
		return m.transitionError("verify otp")
	}

	if strings.TrimSpace(code) == "" {
		return domain.ErrOTPCodeRequired
	}

	session, err := m.transport.VerifyOTP(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrOTPVerification) {
			m.state = StateFailed
			m.challenge = nil
		}

		return err
	}

	if session.Username == "" {
		session.Username = m.creds.Username
	}

	if err = m.persistSession(ctx, session); err != nil {
		return err
	}

	m.challenge = nil
	m.installSession(session)
	logger.InfoKV(ctx, "Device authorization completed", "username", session.Username)

	return nil
}

// Logout tears the session down: Authenticated moves to Idle, the
// in-memory session and any residual challenge are cleared, and the
// persisted session file is deleted.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateAuthenticated {
		return fmt.Errorf("logout: %w", ErrNotAuthenticated)
	}

	m.session = nil
	m.challenge = nil
	m.state = StateIdle
	m.transport.UseSession(nil)

	if err := m.sessions.Delete(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	logger.Info(ctx, "Logged out, session cleared")

	return nil
}

// Reset returns the machine to Idle from any state, discarding the
// in-memory session and challenge. It is the only exit from Failed.
// The persisted session file is left alone; that is Logout's job.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = nil
	m.challenge = nil
	m.state = StateIdle
	m.transport.UseSession(nil)
}

// installSession adopts the session and enters Authenticated.
// Callers must hold mu.
func (m *Manager) installSession(session *domain.Session) {
	m.session = session.Clone()
	m.state = StateAuthenticated
	m.transport.UseSession(m.session)
}

// persistSession writes the session through the repository.
// Callers must hold mu.
func (m *Manager) persistSession(ctx context.Context, session *domain.Session) error {
	if err := m.sessions.Save(ctx, session); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	return nil
}

// transitionError names the rejected operation and the current state.
// Failed asks for a reset explicitly. Callers must hold mu.
func (m *Manager) transitionError(operation string) error {
	if m.state == StateFailed {
		return fmt.Errorf("%s: %w", operation, ErrResetRequired)
	}

	return fmt.Errorf("%s: not allowed in state %q", operation, m.state)
}
