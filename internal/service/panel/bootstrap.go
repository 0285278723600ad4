package panel

import (
	"path/filepath"

	"github.com/asavelyev/sentinel-bridge/internal/auth"
	"github.com/asavelyev/sentinel-bridge/internal/cache"
	"github.com/asavelyev/sentinel-bridge/internal/config"
	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
	"github.com/asavelyev/sentinel-bridge/internal/metrics"
	eventsrepo "github.com/asavelyev/sentinel-bridge/internal/repository/events"
	sessionrepo "github.com/asavelyev/sentinel-bridge/internal/repository/session"
	"github.com/asavelyev/sentinel-bridge/internal/transport/cloud"
)

// eventsFilename is the sqlite audit log inside the state directory.
const eventsFilename = "sentinel-events.db"

// Bootstrap loads the settings file and assembles a Service over the real
// vendor transport, the persisted session and the sqlite audit log. The
// caller owns the returned service and must Close it.
func Bootstrap(configPath string) (*Service, *config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	transport, err := cloud.NewClient(cfg.API.BaseURL, cloud.WithCallTimeout(cfg.API.Timeout))
	if err != nil {
		return nil, nil, err
	}

	sessions := sessionrepo.NewFileRepository(sessionrepo.PathFor(cfg.StateDir, cfg.API.Username))
	manager := auth.NewManager(transport, sessions, domain.Credentials{
		Username: cfg.API.Username,
		Password: cfg.API.Password,
		Country:  cfg.API.Country,
		Language: cfg.API.Language,
	})

	eventLog, err := eventsrepo.Open(filepath.Join(cfg.StateDir, eventsFilename))
	if err != nil {
		return nil, nil, err
	}

	service := NewService(
		transport,
		manager,
		cache.New(cfg.CacheTTL),
		eventLog,
		metrics.New(),
		cfg.API.InstallationID,
	)

	return service, cfg, nil
}

// Close releases the audit log. The service must not be used afterwards.
func (s *Service) Close() error {
	if s.events == nil {
		return nil
	}

	return s.events.Close()
}

// Metrics exposes the counters for the daemon's scrape endpoint.
func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}
