package boot

import (
	"context"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"github.com/sensdot/sensdot/internal/broker"
	"github.com/sensdot/sensdot/internal/configstore"
	"github.com/sensdot/sensdot/internal/gesture"
	"github.com/sensdot/sensdot/internal/identity"
	"github.com/sensdot/sensdot/internal/logging"
	"github.com/sensdot/sensdot/internal/netconn"
	"github.com/sensdot/sensdot/internal/telemetry"
	"github.com/sensdot/sensdot/internal/topics"
	"go.uber.org/zap"
)

// Orchestrator tuning defaults
const (
	DefaultStationTimeout        = 15 * time.Second
	DefaultDrainWait             = 2 * time.Second
	DefaultFactoryResetThreshold = 20 * time.Second
	DefaultHeartbeatInterval     = 30 * time.Second

	// cleanupTimeout bounds the radio teardown that runs even when the
	// cycle context is already cancelled
	cleanupTimeout = 10 * time.Second
)

// Mode is the branch the cycle took
type Mode int

// Cycle modes
const (
	ModeOperational Mode = iota
	ModeConfiguration
	ModeFactoryReset
)

// String implements fmt.Stringer
func (m Mode) String() string {
	switch m {
	case ModeOperational:
		return "operational"
	case ModeConfiguration:
		return "configuration"
	case ModeFactoryReset:
		return "factory-reset"
	default:
		return "unknown"
	}
}

// Outcome is how one wake cycle ended. Exactly one of Sleep > 0 or
// Restart describes what happens next.
type Outcome struct {
	Mode      Mode
	Sleep     time.Duration // how long to sleep before the next cycle
	Restart   bool          // reboot immediately instead of sleeping
	Published bool          // a /data publish succeeded this cycle
}

// Settings tunes the orchestrator
type Settings struct {
	// APPassphrase protects the configuration access point
	APPassphrase string

	// StationTimeout bounds each individual WiFi attempt
	StationTimeout time.Duration

	// DrainWait is how long to wait for inbound commands before
	// disconnecting
	DrainWait time.Duration

	// HoldThreshold mirrors the gesture detector's threshold; it is
	// added to the extra hold time when checking the factory-reset tier
	HoldThreshold time.Duration

	// FactoryResetThreshold is the total hold that wipes the config
	FactoryResetThreshold time.Duration

	// HeartbeatInterval paces the configuration-mode debug heartbeat
	HeartbeatInterval time.Duration

	// Version is reported in /status publishes
	Version string
}

func (s *Settings) fillDefaults() {
	if s.StationTimeout <= 0 {
		s.StationTimeout = DefaultStationTimeout
	}
	if s.DrainWait <= 0 {
		s.DrainWait = DefaultDrainWait
	}
	if s.HoldThreshold <= 0 {
		s.HoldThreshold = gesture.DefaultThreshold
	}
	if s.FactoryResetThreshold <= 0 {
		s.FactoryResetThreshold = DefaultFactoryResetThreshold
	}
	if s.HeartbeatInterval <= 0 {
		s.HeartbeatInterval = DefaultHeartbeatInterval
	}
}

// Deps are the orchestrator's collaborators. Identity, Store, Detector,
// Connector, NewSession, Sensors, Portal, and Power are required;
// Announcer, TimeSync, and Indicator may be nil.
type Deps struct {
	Identity   identity.Identity
	Store      ConfigStore
	Detector   GestureDetector
	Connector  netconn.Connector
	NewSession SessionFactory
	Sensors    SensorReader
	Portal     Portal
	Power      PowerManager
	Announcer  Announcer
	TimeSync   TimeSync
	Indicator  Indicator
	Policy     RetryPolicy
	Settings   Settings
}

// Orchestrator is the per-boot state machine
type Orchestrator struct {
	id         identity.Identity
	store      ConfigStore
	detector   GestureDetector
	connector  netconn.Connector
	newSession SessionFactory
	sensors    SensorReader
	portal     Portal
	power      PowerManager
	announcer  Announcer
	timesync   TimeSync
	indicator  Indicator
	policy     RetryPolicy
	settings   Settings
}

// New builds an orchestrator from its dependencies
func New(deps Deps) *Orchestrator {
	deps.Settings.fillDefaults()
	if deps.Indicator == nil {
		deps.Indicator = noopIndicator{}
	}
	if deps.Policy.MaxAttempts == 0 {
		deps.Policy = DefaultRetryPolicy()
	}
	return &Orchestrator{
		id:         deps.Identity,
		store:      deps.Store,
		detector:   deps.Detector,
		connector:  deps.Connector,
		newSession: deps.NewSession,
		sensors:    deps.Sensors,
		portal:     deps.Portal,
		power:      deps.Power,
		announcer:  deps.Announcer,
		timesync:   deps.TimeSync,
		indicator:  deps.Indicator,
		policy:     deps.Policy,
		settings:   deps.Settings,
	}
}

// Run drives wake cycles until the context is cancelled. Between cycles
// the node deep-sleeps for the outcome's duration; a Restart outcome
// reboots instead. On a Linux host the deep sleep returns when the RTC
// fires, so the loop simply starts the next cycle.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		outcome := o.RunCycle(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		if outcome.Restart {
			logging.Info("Cycle requested restart", zap.String("mode", outcome.Mode.String()))
			return o.power.Reboot(ctx)
		}

		sleep := outcome.Sleep
		if sleep <= 0 {
			sleep = time.Duration(configstore.DefaultSleepIntervalS) * time.Second
		}

		logging.Info("Cycle complete, entering deep sleep",
			zap.String("mode", outcome.Mode.String()),
			zap.Bool("published", outcome.Published),
			zap.Duration("sleep", sleep),
		)
		if err := o.power.DeepSleep(ctx, sleep); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A failed suspend is not fatal; log and run the next cycle
			logging.Error("Deep sleep failed, continuing immediately", zap.Error(err))
		}
	}
}

// RunCycle executes one wake: choose a mode, drive it, and report how
// the cycle ended. It never returns an error; every failure path
// degrades into a scheduled sleep or a reboot.
func (o *Orchestrator) RunCycle(ctx context.Context) Outcome {
	requested, err := o.detector.Observe(ctx)
	if err != nil {
		// A broken button must not brick the device; treat as unpressed
		logging.Warn("Reset gesture check failed", zap.Error(err))
		requested = false
	}

	cfg, loadErr := o.store.Load()
	valid := loadErr == nil && configstore.Valid(cfg)

	if loadErr == nil && cfg != nil && cfg.DebugMode && !logging.DebugEnabled() {
		logging.EnableDebug()
		logging.Debug("Debug logging enabled by device configuration")
	}

	if requested {
		extra, holdErr := o.detector.HoldDuration(ctx, o.settings.FactoryResetThreshold)
		if holdErr != nil {
			logging.Warn("Hold duration check failed", zap.Error(holdErr))
		}
		if o.settings.HoldThreshold+extra >= o.settings.FactoryResetThreshold {
			return o.factoryReset()
		}
	}

	if requested || !valid {
		if !valid {
			logging.Info("No valid configuration, entering configuration mode", zap.Error(loadErr))
		} else {
			logging.Info("Reset gesture detected, entering configuration mode")
		}
		return o.runConfiguration(ctx, cfg)
	}

	return o.runOperational(ctx, cfg)
}

// factoryReset wipes the persisted record and restarts
func (o *Orchestrator) factoryReset() Outcome {
	logging.Warn("Factory reset hold detected, wiping configuration")
	if err := o.store.Reset(); err != nil {
		logging.Error("Failed to wipe configuration", zap.Error(err))
	}
	o.indicator.FactoryReset()
	return Outcome{Mode: ModeFactoryReset, Restart: true}
}

// runConfiguration hosts the AP and portal until the operator commits a
// configuration. The mode never times out on its own.
func (o *Orchestrator) runConfiguration(ctx context.Context, cfg *configstore.DeviceConfig) Outcome {
	outcome := Outcome{Mode: ModeConfiguration, Sleep: time.Duration(configstore.DefaultSleepIntervalS) * time.Second}

	ssid := o.id.APSSID()
	if err := o.connector.StartAP(ctx, ssid, o.settings.APPassphrase); err != nil {
		// No AP means no portal; sleep and try again next wake
		logging.Error("Failed to start configuration access point", zap.Error(err))
		o.indicator.CycleFailed()
		return outcome
	}
	defer o.stopAP()

	o.indicator.APMode(true)
	defer o.indicator.APMode(false)

	if o.announcer != nil {
		if err := o.announcer.Start(); err != nil {
			logging.Warn("mDNS announce failed, portal reachable by IP only", zap.Error(err))
		} else {
			defer o.announcer.Stop()
		}
	}

	if cfg != nil && cfg.DebugMode {
		heartbeatCtx, stopHeartbeat := context.WithCancel(ctx)
		defer stopHeartbeat()
		go o.heartbeat(heartbeatCtx, ssid)
	}

	logging.Info("Configuration portal running, waiting for operator",
		zap.String("ap_ssid", ssid),
	)

	if err := o.portal.Run(ctx); err != nil {
		if ctx.Err() != nil {
			// Daemon shutdown, not a failure
			return outcome
		}
		logging.Error("Configuration portal failed", zap.Error(err))
		o.indicator.CycleFailed()
		return outcome
	}

	logging.Info("Configuration committed, restarting")
	return Outcome{Mode: ModeConfiguration, Restart: true}
}

func (o *Orchestrator) heartbeat(ctx context.Context, ssid string) {
	ticker := time.NewTicker(o.settings.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			logging.Debug("Configuration mode heartbeat", zap.String("ap_ssid", ssid))
		case <-ctx.Done():
			return
		}
	}
}

// runOperational is the connect, read, publish, sleep sequence
func (o *Orchestrator) runOperational(ctx context.Context, cfg *configstore.DeviceConfig) Outcome {
	outcome := Outcome{Mode: ModeOperational, Sleep: cfg.SleepInterval()}
	sessionID := uuid.NewString()
	prefix := cfg.MQTT.TopicPrefix

	// Station connect, bounded retries with backoff. Exhaustion skips
	// the cycle; a transient outage never forces configuration mode.
	var ip netip.Addr
	err := o.policy.Run(ctx, "wifi_connect", Always, func(ctx context.Context) error {
		addr, err := o.connector.ConnectStation(ctx, cfg.WiFi.SSID, cfg.WiFi.Password, o.settings.StationTimeout)
		if err == nil {
			ip = addr
		}
		return err
	})
	if err != nil {
		logging.Warn("WiFi unavailable this cycle, sleeping",
			zap.String("ssid", cfg.WiFi.SSID),
			zap.Error(err),
		)
		o.indicator.CycleFailed()
		return outcome
	}
	defer o.disconnectStation(ctx)

	// Clock correction is best-effort; the cycle runs on system time if
	// no NTP server answers
	now := time.Now()
	if o.timesync != nil {
		if synced, err := o.timesync.Sync(ctx); err != nil {
			logging.Warn("Time sync failed, using system clock", zap.Error(err))
		} else {
			now = synced
		}
	}

	session := o.newSession(cfg)
	defer session.Disconnect()

	// Broker connect retries only unreachable failures. A rejection
	// means bad credentials or a hostile broker config; retrying would
	// just hammer it.
	err = o.policy.Run(ctx, "broker_connect", broker.IsRetryable, func(ctx context.Context) error {
		return session.Connect(ctx)
	})
	if err != nil {
		if broker.IsRejected(err) {
			logging.Error("Broker rejected the session, operator intervention required",
				zap.String("broker", session.Address()),
				zap.Error(err),
			)
			// Best-effort: the publish cannot succeed against a broker
			// that refused the session, but the attempt is logged
			o.publishStatus(ctx, session, cfg, statusReport{
				sessionID: sessionID,
				state:     telemetry.StateRejected,
				detail:    err.Error(),
				now:       now,
				nextWake:  outcome.Sleep,
			})
		} else {
			logging.Warn("Broker unreachable this cycle, sleeping",
				zap.String("broker", session.Address()),
				zap.Error(err),
			)
		}
		o.indicator.CycleFailed()
		return outcome
	}

	// Read sensors; per-sensor failures are omitted inside ReadAll
	readings := o.sensors.ReadAll(ctx)
	payload := telemetry.NewDataPayload(o.id.DeviceID, now, readings)

	if cfg.HADiscovery {
		o.publishDiscovery(ctx, session, cfg, payload.Keys())
	}

	if data, err := payload.Marshal(); err != nil {
		logging.Error("Failed to build data payload", zap.Error(err))
		o.indicator.CycleFailed()
	} else if err := session.Publish(ctx, topics.Data(prefix), data, 1, false); err != nil {
		logging.Error("Data publish failed", zap.Error(err))
		o.indicator.CycleFailed()
	} else {
		outcome.Published = true
		o.indicator.PublishOK()
	}

	report := statusReport{
		sessionID: sessionID,
		state:     telemetry.StateOnline,
		now:       now,
		wifiIP:    ip,
		readings:  readings,
		nextWake:  outcome.Sleep,
	}
	o.publishStatus(ctx, session, cfg, report)

	// Drain pending commands before tearing down
	if err := session.Subscribe(ctx, topics.Commands(prefix), 1); err != nil {
		logging.Warn("Command subscribe failed", zap.Error(err))
	} else {
		handled, _ := session.DrainMessages(ctx, o.settings.DrainWait, func(topic string, payload []byte) {
			o.handleCommand(ctx, session, cfg, report, topic, payload, &outcome)
		})
		if handled > 0 {
			logging.Debug("Drained inbound commands", zap.Int("count", handled))
		}
	}

	return outcome
}

// handleCommand processes one inbound control message
func (o *Orchestrator) handleCommand(ctx context.Context, session Session, cfg *configstore.DeviceConfig,
	report statusReport, topic string, payload []byte, outcome *Outcome) {

	cmd, err := telemetry.ParseCommand(payload)
	if err != nil {
		logging.Warn("Ignoring malformed command",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}
	logging.LogCommand(topic, string(cmd))

	switch cmd {
	case telemetry.CommandStatus:
		o.publishStatus(ctx, session, cfg, report)
	case telemetry.CommandRestart:
		outcome.Restart = true
	}
}

// statusReport carries the fields for one /status publish
type statusReport struct {
	sessionID string
	state     string
	detail    string
	now       time.Time
	wifiIP    netip.Addr
	readings  map[string]float64
	nextWake  time.Duration
}

// publishStatus sends the retained lifecycle report, best-effort
func (o *Orchestrator) publishStatus(ctx context.Context, session Session, cfg *configstore.DeviceConfig, r statusReport) {
	status := telemetry.StatusPayload{
		DeviceID:  o.id.DeviceID,
		State:     r.state,
		Timestamp: r.now.Unix(),
		SessionID: r.sessionID,
		Version:   o.settings.Version,
		Detail:    r.detail,
		NextWakeS: int64(r.nextWake.Seconds()),
	}
	if r.wifiIP.IsValid() {
		status.WiFiIP = r.wifiIP.String()
	}
	if v, ok := r.readings["uptime_s"]; ok {
		status.UptimeS = int64(v)
	}
	if v, ok := r.readings["free_memory_b"]; ok {
		status.FreeMemB = int64(v)
	}

	data, err := status.Marshal()
	if err != nil {
		logging.Error("Failed to build status payload", zap.Error(err))
		return
	}
	if err := session.Publish(ctx, topics.Status(cfg.MQTT.TopicPrefix), data, 1, true); err != nil {
		logging.Warn("Status publish failed", zap.Error(err))
	}
}

// publishDiscovery announces the node's readings to Home Assistant.
// cycleKeys is the fallback when the sensor set cannot enumerate its
// readings up front.
func (o *Orchestrator) publishDiscovery(ctx context.Context, session Session, cfg *configstore.DeviceConfig, cycleKeys []string) {
	names := o.sensorNames()
	if len(names) == 0 {
		names = cycleKeys
	}
	records, err := telemetry.DiscoveryRecords(o.id.DeviceID, o.settings.Version,
		topics.Data(cfg.MQTT.TopicPrefix), names)
	if err != nil {
		logging.Warn("Failed to build discovery records", zap.Error(err))
		return
	}
	for _, rec := range records {
		if err := session.Publish(ctx, rec.Topic, rec.Payload, 1, true); err != nil {
			logging.Warn("Discovery publish failed",
				zap.String("topic", rec.Topic),
				zap.Error(err),
			)
		}
	}
}

// sensorNames lists the reading names the sensor set can produce, for
// discovery announcements
func (o *Orchestrator) sensorNames() []string {
	type namer interface{ ReadingNames() []string }
	if n, ok := o.sensors.(namer); ok {
		return n.ReadingNames()
	}
	return nil
}

// disconnectStation powers the radio down even when the cycle context
// is already gone; no radio may stay up into sleep.
func (o *Orchestrator) disconnectStation(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), cleanupTimeout)
	defer cancel()
	if err := o.connector.DisconnectStation(ctx); err != nil {
		logging.Warn("Station teardown failed", zap.Error(err))
	}
}

// stopAP takes the configuration hotspot down on exit from the mode
func (o *Orchestrator) stopAP() {
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()
	if err := o.connector.StopAP(ctx); err != nil {
		logging.Warn("Access point teardown failed", zap.Error(err))
	}
}

// noopIndicator is used when no LED is fitted
type noopIndicator struct{}

func (noopIndicator) APMode(bool)   {}
func (noopIndicator) PublishOK()    {}
func (noopIndicator) CycleFailed()  {}
func (noopIndicator) FactoryReset() {}
