package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
	"github.com/asavelyev/sentinel-bridge/internal/logger"
	"github.com/asavelyev/sentinel-bridge/internal/metrics"
	"github.com/asavelyev/sentinel-bridge/internal/mqtt"
	"github.com/asavelyev/sentinel-bridge/internal/service/panel"
)

// Options configures the bridge daemon.
type Options struct {
	// ConfigPath to the YAML settings file, defaults to the standard
	// filename if empty.
	ConfigPath string
}

// loginBackoffCap bounds the exponential backoff between login retries.
const loginBackoffCap = 2 * time.Minute

// bridge ties the use-case service to the MQTT side of the world.
// It is unexported to keep the daemon entrypoint the only way in.
type bridge struct {
	// service is the orchestration layer over the vendor cloud.
	service *panel.Service
	// broker is the MQTT connection.
	broker *mqtt.Client
	// topics builds the topic names for the resolved installation.
	topics Topics
	// metrics counts poll cycles and commands.
	metrics *metrics.Metrics
	// pollInterval is how often the alarm status is polled.
	pollInterval time.Duration
}

// Run starts the bridge daemon and blocks until the context is cancelled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "bridge")

	service, cfg, err := panel.Bootstrap(opts.ConfigPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = service.Close()
	}()

	m := service.Metrics()

	// The metrics endpoint lives and dies with the daemon context.
	metricsErr := make(chan error, 1)

	go func() {
		metricsErr <- m.Serve(ctx, cfg.MetricsAddress)
	}()

	if err = loginWithBackoff(ctx, service); err != nil {
		return err
	}

	installation, err := service.Installation(ctx)
	if err != nil {
		return err
	}

	topics := Topics{
		Prefix:          cfg.MQTT.TopicPrefix,
		DiscoveryPrefix: cfg.MQTT.DiscoveryPrefix,
		InstallationID:  installation.ID,
	}

	broker, err := mqtt.Connect(ctx, cfg.MQTT, topics.Availability())
	if err != nil {
		return err
	}

	defer broker.Disconnect()

	b := &bridge{
		service:      service,
		broker:       broker,
		topics:       topics,
		metrics:      m,
		pollInterval: cfg.PollInterval,
	}

	if err = b.announce(ctx, installation); err != nil {
		return err
	}

	if err = b.subscribeCommands(ctx); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Bridge started",
		"installation_id", installation.ID,
		"poll_interval", b.pollInterval,
	)

	b.pollLoop(ctx)

	// Surface a metrics server failure that happened along the way.
	select {
	case err = <-metricsErr:
		return err
	default:
		return nil
	}
}

// loginWithBackoff retries the initial login on connection errors with
// exponential backoff. Authentication and OTP failures abort immediately:
// they need human input via the login command.
func loginWithBackoff(ctx context.Context, service *panel.Service) error {
	policy := backoff.NewExponentialBackOff()
	policy.MaxInterval = loginBackoffCap
	policy.MaxElapsedTime = 0

	operation := func() error {
		err := service.EnsureAuthenticated(ctx)
		if err == nil {
			return nil
		}

		if errors.Is(err, domain.ErrConnection) {
			logger.WarnKV(ctx, "Login attempt failed, will retry", "error", err)

			return err
		}

		return backoff.Permanent(err)
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

// announce publishes the Home Assistant discovery config, retained.
func (b *bridge) announce(ctx context.Context, installation domain.Installation) error {
	payload, err := b.topics.DiscoveryPayload(installation)
	if err != nil {
		return fmt.Errorf("render discovery payload: %w", err)
	}

	if err = b.broker.Publish(b.topics.Discovery(), payload, true); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Discovery config published", "topic", b.topics.Discovery())

	return nil
}

// subscribeCommands wires the Home Assistant command topic to the panel.
func (b *bridge) subscribeCommands(ctx context.Context) error {
	return b.broker.Subscribe(b.topics.Command(), func(_ string, payload []byte) {
		b.handleCommand(ctx, string(payload))
	})
}

// handleCommand executes one panel command and publishes the resulting state.
func (b *bridge) handleCommand(ctx context.Context, command string) {
	mode, ok := commandMode(command)
	if !ok {
		logger.WarnKV(ctx, "Ignoring unknown panel command", "command", command)

		return
	}

	var err error
	if mode == "" {
		_, err = b.service.Disarm(ctx)
	} else {
		_, err = b.service.Arm(ctx, mode)
	}

	if err != nil {
		logger.ErrorKV(ctx, "Panel command failed", "command", command, "error", err)

		return
	}

	b.publishState(ctx)
}

// pollLoop publishes the alarm state on every tick until cancellation.
func (b *bridge) pollLoop(ctx context.Context) {
	// First publish immediately so Home Assistant is not blank for a tick.
	b.publishState(ctx)

	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Shutting down...")

			return
		case <-ticker.C:
			b.publishState(ctx)
		}
	}
}

// publishState polls the panel once and publishes the mapped state,
// retained so late subscribers see the last known value. A dead session
// is reset and re-established before giving up on the cycle.
func (b *bridge) publishState(ctx context.Context) {
	status, err := b.service.Status(ctx)
	if errors.Is(err, domain.ErrAuthentication) {
		logger.Warn(ctx, "Session rejected upstream, logging in again")
		b.service.Auth().Reset()

		if err = b.service.EnsureAuthenticated(ctx); err == nil {
			status, err = b.service.Status(ctx)
		}
	}

	if err != nil {
		b.metrics.PollErrors.Inc()
		logger.ErrorKV(ctx, "Status poll failed", "error", err)

		return
	}

	state := haState(status.Status)
	if err = b.broker.Publish(b.topics.State(), []byte(state), true); err != nil {
		logger.ErrorKV(ctx, "Failed to publish state", "error", err)

		return
	}

	logger.DebugKV(ctx, "State published", "state", state, "vendor_status", status.Status)
}
