package panel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/asavelyev/sentinel-bridge/internal/auth"
	"github.com/asavelyev/sentinel-bridge/internal/cache"
	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
	"github.com/asavelyev/sentinel-bridge/internal/logger"
	"github.com/asavelyev/sentinel-bridge/internal/metrics"
	events "github.com/asavelyev/sentinel-bridge/internal/repository/events"
)

// Transport abstracts the vendor API operations the service layer needs
// beyond authentication.
type Transport interface {
	Installations(ctx context.Context) ([]domain.Installation, error)
	InstallationServices(ctx context.Context, installationID string, forceRefresh bool) (domain.InstallationServices, error)
	AlarmStatus(ctx context.Context, installationID, panel string) (domain.AlarmStatus, error)
	Arm(ctx context.Context, installationID string, mode domain.ArmMode, panel, currentStatus string) (domain.ArmResult, error)
	Disarm(ctx context.Context, installationID, panel string) (domain.DisarmResult, error)
}

var (
	// ErrInteractiveLoginRequired is returned when the account demands
	// device authorization; the OTP dance needs a human at the terminal.
	ErrInteractiveLoginRequired = errors.New("device authorization required, run the login command first")
	// ErrNoInstallations is returned when the account has no sites.
	ErrNoInstallations = errors.New("account has no installations")
	// errInvalidArmMode rejects unsupported arming levels before any call.
	errInvalidArmMode = errors.New("invalid arm mode")
)

// Service orchestrates the auth manager, the metadata cache and the
// vendor transport to serve status/arm/disarm requests. It also keeps the
// audit log; event recording is best-effort and never fails a command.
type Service struct {
	// transport performs the vendor API calls.
	transport Transport
	// auth drives login and owns the session.
	auth *auth.Manager
	// cache holds installation metadata between calls.
	cache *cache.InstallationCache
	// events is the audit log, nil to disable recording.
	events events.Repository
	// metrics counts logins, commands and cache traffic.
	metrics *metrics.Metrics
	// configuredInstallation pins a site; empty means the account's first.
	configuredInstallation string

	// mu protects installation.
	mu sync.Mutex
	// installation is the resolved site, cached after the first lookup.
	installation *domain.Installation
}

// NewService wires the collaborators together. Pass a nil events
// repository to disable audit recording.
func NewService(
	transport Transport,
	authManager *auth.Manager,
	installationCache *cache.InstallationCache,
	eventLog events.Repository,
	m *metrics.Metrics,
	installationID string,
) *Service {
	if m == nil {
		m = metrics.New()
	}

	return &Service{
		transport:              transport,
		auth:                   authManager,
		cache:                  installationCache,
		events:                 eventLog,
		metrics:                m,
		configuredInstallation: installationID,
	}
}

// Auth exposes the underlying state machine for interactive flows.
func (s *Service) Auth() *auth.Manager {
	return s.auth
}

// EnsureAuthenticated makes sure a session is available: it resumes a
// persisted one when possible and performs a fresh login otherwise.
// Accounts that demand device authorization surface
// ErrInteractiveLoginRequired, since the OTP flow cannot run unattended.
func (s *Service) EnsureAuthenticated(ctx context.Context) error {
	if s.auth.State() == auth.StateAuthenticated {
		return nil
	}

	resumed, err := s.auth.Resume(ctx)
	if err != nil {
		return err
	}

	if resumed {
		return nil
	}

	state, err := s.auth.Login(ctx)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthentication):
			s.metrics.LoginAttempts.WithLabelValues("auth_error").Inc()
		case errors.Is(err, domain.ErrConnection):
			s.metrics.LoginAttempts.WithLabelValues("connection_error").Inc()
		default:
			s.metrics.LoginAttempts.WithLabelValues("error").Inc()
		}

		return err
	}

	if state == auth.StateAwaitingDeviceAuth {
		s.metrics.LoginAttempts.WithLabelValues("otp_required").Inc()

		return ErrInteractiveLoginRequired
	}

	s.metrics.LoginAttempts.WithLabelValues("ok").Inc()
	s.record(ctx, domain.Event{
		Kind:    domain.EventLogin,
		Success: true,
		Message: "session established",
	})

	return nil
}

// Installation resolves the site the bridge operates on: the configured
// installation id when set, the account's first site otherwise. The
// result is memoized for the life of the service.
func (s *Service) Installation(ctx context.Context) (domain.Installation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.installation != nil {
		return *s.installation, nil
	}

	installations, err := s.transport.Installations(ctx)
	if err != nil {
		return domain.Installation{}, err
	}

	if len(installations) == 0 {
		return domain.Installation{}, ErrNoInstallations
	}

	selected := installations[0]

	if s.configuredInstallation != "" {
		found := false

		for _, inst := range installations {
			if inst.ID == s.configuredInstallation {
				selected, found = inst, true

				break
			}
		}

		if !found {
			return domain.Installation{}, fmt.Errorf("installation %q not found on the account", s.configuredInstallation)
		}
	}

	s.installation = &selected
	logger.InfoKV(ctx, "Installation resolved", "installation_id", selected.ID, "alias", selected.Alias)

	return selected, nil
}

// Services returns the panel/capabilities metadata for the installation,
// consulting the cache first. forceRefresh bypasses the cached entry and
// asks the upstream to refresh its own view as well.
//
// Concurrent callers missing on the same id will each hit the upstream;
// there is no request coalescing here (acceptable at bridge poll rates).
func (s *Service) Services(ctx context.Context, installationID string, forceRefresh bool) (domain.InstallationServices, error) {
	if !forceRefresh {
		if cached, ok := s.cache.Get(installationID); ok {
			s.metrics.CacheHits.Inc()

			return cached, nil
		}
	}

	s.metrics.CacheMisses.Inc()

	services, err := s.transport.InstallationServices(ctx, installationID, forceRefresh)
	if err != nil {
		return domain.InstallationServices{}, err
	}

	s.cache.Set(installationID, services)

	return services, nil
}

// Status polls the current panel state of the resolved installation.
func (s *Service) Status(ctx context.Context) (domain.AlarmStatus, error) {
	installation, err := s.Installation(ctx)
	if err != nil {
		return domain.AlarmStatus{}, err
	}

	services, err := s.Services(ctx, installation.ID, false)
	if err != nil {
		return domain.AlarmStatus{}, err
	}

	return s.transport.AlarmStatus(ctx, installation.ID, services.Panel)
}

// Arm requests the given arming level. The vendor wants the current panel
// status echoed with the command, so a status poll precedes it.
func (s *Service) Arm(ctx context.Context, mode domain.ArmMode) (domain.ArmResult, error) {
	if !mode.Valid() {
		return domain.ArmResult{}, fmt.Errorf("%w: %q", errInvalidArmMode, mode)
	}

	installation, err := s.Installation(ctx)
	if err != nil {
		return domain.ArmResult{}, err
	}

	services, err := s.Services(ctx, installation.ID, false)
	if err != nil {
		return domain.ArmResult{}, err
	}

	status, err := s.transport.AlarmStatus(ctx, installation.ID, services.Panel)
	if err != nil {
		return domain.ArmResult{}, err
	}

	result, err := s.transport.Arm(ctx, installation.ID, mode, services.Panel, status.Status)
	if err != nil {
		s.metrics.Commands.WithLabelValues("arm_"+string(mode), "error").Inc()

		return domain.ArmResult{}, err
	}

	s.metrics.Commands.WithLabelValues("arm_"+string(mode), commandResult(result.Success)).Inc()
	s.record(ctx, domain.Event{
		Kind:           domain.EventArm,
		InstallationID: installation.ID,
		Mode:           string(mode),
		Success:        result.Success,
		Message:        result.Message,
	})

	return result, nil
}

// Disarm requests full disarming of the resolved installation.
func (s *Service) Disarm(ctx context.Context) (domain.DisarmResult, error) {
	installation, err := s.Installation(ctx)
	if err != nil {
		return domain.DisarmResult{}, err
	}

	services, err := s.Services(ctx, installation.ID, false)
	if err != nil {
		return domain.DisarmResult{}, err
	}

	result, err := s.transport.Disarm(ctx, installation.ID, services.Panel)
	if err != nil {
		s.metrics.Commands.WithLabelValues("disarm", "error").Inc()

		return domain.DisarmResult{}, err
	}

	s.metrics.Commands.WithLabelValues("disarm", commandResult(result.Success)).Inc()
	s.record(ctx, domain.Event{
		Kind:           domain.EventDisarm,
		InstallationID: installation.ID,
		Success:        result.Success,
		Message:        result.Message,
	})

	return result, nil
}

// Logout tears down the session and drops the cached metadata.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		return err
	}

	s.cache.ClearAll()
	s.record(ctx, domain.Event{
		Kind:    domain.EventLogout,
		Success: true,
	})

	return nil
}

// CacheInfo returns cache bookkeeping. It cannot fail; an empty snapshot
// is the worst case.
func (s *Service) CacheInfo() cache.Info {
	return s.cache.Info()
}

// ClearCache removes one entry, or everything when the id is empty.
// Cache bookkeeping is non-critical, so this never propagates errors.
func (s *Service) ClearCache(installationID string) {
	if installationID == "" {
		s.cache.ClearAll()

		return
	}

	s.cache.Clear(installationID)
}

// SetCacheTTL changes the cache validity window for all future reads,
// including entries already stored.
func (s *Service) SetCacheTTL(ttl time.Duration) {
	s.cache.SetTTL(ttl)
}

// RecentEvents returns the newest audit entries. The audit log is
// non-critical: failures degrade to an empty result.
func (s *Service) RecentEvents(ctx context.Context, limit int) []domain.Event {
	if s.events == nil {
		return nil
	}

	result, err := s.events.Recent(ctx, limit)
	if err != nil {
		logger.WarnKV(ctx, "Failed to read audit log", "error", err)

		return nil
	}

	return result
}

// record appends an audit event, logging instead of failing on errors.
func (s *Service) record(ctx context.Context, event domain.Event) {
	if s.events == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := s.events.Record(ctx, event); err != nil {
		logger.WarnKV(ctx, "Failed to record audit event", "kind", event.Kind, "error", err)
	}
}

// commandResult converts a success flag into a metrics label.
func commandResult(success bool) string {
	if success {
		return "ok"
	}

	return "rejected"
}
