package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sensdot/sensdot/internal/announce"
	"github.com/sensdot/sensdot/internal/boot"
	"github.com/sensdot/sensdot/internal/broker"
	"github.com/sensdot/sensdot/internal/configstore"
	"github.com/sensdot/sensdot/internal/gesture"
	"github.com/sensdot/sensdot/internal/gpio"
	"github.com/sensdot/sensdot/internal/identity"
	"github.com/sensdot/sensdot/internal/indication"
	"github.com/sensdot/sensdot/internal/logging"
	"github.com/sensdot/sensdot/internal/netconn"
	"github.com/sensdot/sensdot/internal/portal"
	"github.com/sensdot/sensdot/internal/power"
	"github.com/sensdot/sensdot/internal/profile"
	"github.com/sensdot/sensdot/internal/sensors"
	"github.com/sensdot/sensdot/internal/telemetry"
	"github.com/sensdot/sensdot/internal/timesync"
	"github.com/sensdot/sensdot/internal/topics"
	"github.com/sensdot/sensdot/internal/version"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent's wake cycle loop",
	Long: `Runs wake cycles until interrupted: choose a mode from the reset
button and the stored configuration, publish sensor readings or host the
setup portal, then deep-sleep.`,
	RunE: runAgent,
}

func runAgent(cmd *cobra.Command, args []string) error {
	prof, err := profile.Load(profilePath)
	if err != nil {
		return err
	}

	if err := logging.InitializeWithFile(logLevel, prof.Paths.Log); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	id, err := identity.Derive()
	if err != nil {
		return fmt.Errorf("failed to derive device identity: %w", err)
	}

	logging.Info("SensDot agent starting",
		zap.String("device_id", id.DeviceID),
		zap.String("version", version.Version),
	)

	store := configstore.NewStore(prof.Paths.Config, id)
	connector := netconn.NewNMConnector(prof.Radio.Interface)

	// GPIO is optional: development hosts run without a button or LED,
	// and a broken chip must not keep the node from publishing.
	var (
		board     *gpio.Board
		sampler   gesture.Sampler
		indicator boot.Indicator
	)
	if prof.GPIO.Enabled {
		b, err := gpio.Open(prof.GPIO)
		if err != nil {
			logging.Warn("GPIO unavailable, running without button or LED", zap.Error(err))
			sampler = neverPressed()
		} else {
			defer b.Close()
			board = b
			sampler = b
			indicator = indication.New(b)
		}
	} else {
		sampler = neverPressed()
	}

	detector := gesture.NewDetector(sampler)
	detector.Threshold = time.Duration(prof.Gesture.HoldThresholdS) * time.Second
	detector.PollInterval = time.Duration(prof.Gesture.PollIntervalMS) * time.Millisecond

	set := buildSensorSet(prof, board)
	logging.Info("Sensors configured", zap.Strings("sensors", set.Names()))

	pm := power.New(netconn.ExecRunner{}, prof.Power.UseRTCWake)
	if prof.GPIO.PIREnabled && board != nil {
		pm.WakeOnMotion(board.MotionSample, time.Duration(prof.Motion.MinIntervalS)*time.Second)
	}

	web := portal.New(id, store, connector, prof.Portal.Listen, version.Version)

	newSession := func(cfg *configstore.DeviceConfig) boot.Session {
		return broker.NewSession(broker.Options{
			Broker:      cfg.MQTT.Broker,
			Port:        cfg.MQTT.Port,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			ClientID:    id.ClientID(),
			WillTopic:   topics.Status(cfg.MQTT.TopicPrefix),
			WillPayload: telemetry.OfflineWill(id.DeviceID),
		})
	}

	orch := boot.New(boot.Deps{
		Identity:   id,
		Store:      store,
		Detector:   detector,
		Connector:  connector,
		NewSession: newSession,
		Sensors:    set,
		Portal:     web,
		Power:      pm,
		Announcer:  announce.New(id, portalPort(prof.Portal.Listen), version.Version),
		TimeSync:   timesync.New(prof.NTP.Servers),
		Indicator:  indicator,
		Settings: boot.Settings{
			APPassphrase:          prof.Radio.APPassphrase,
			HoldThreshold:         detector.Threshold,
			FactoryResetThreshold: time.Duration(prof.Gesture.FactoryResetS) * time.Second,
			Version:               version.Version,
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info("Agent stopped")
	return nil
}

// buildSensorSet assembles the sensors the profile enables. SysInfo is
// always present; bus sensors that fail to probe are skipped with a log.
func buildSensorSet(prof *profile.Profile, board *gpio.Board) *sensors.Set {
	list := []sensors.Sensor{sensors.NewSysInfo()}

	if prof.I2C.SHT4XEnabled {
		sht, err := sensors.NewSHT4X(prof.I2C.Bus)
		if err != nil {
			logging.Warn("SHT4x probe failed, continuing without it", zap.Error(err))
		} else {
			list = append(list, sht)
		}
	}

	if prof.GPIO.PIREnabled && board != nil {
		minInterval := time.Duration(prof.Motion.MinIntervalS) * time.Second
		list = append(list, sensors.NewMotion(board.MotionSample, minInterval))
	}

	return sensors.NewSet(list...)
}

// neverPressed is the sampler for buttonless hosts
func neverPressed() gesture.Sampler {
	return gesture.SamplerFunc(func() (bool, error) { return false, nil })
}

// portalPort extracts the numeric port from a listen address for the
// mDNS record. A bare ":80" style address is the normal case.
func portalPort(listen string) int {
	_, portStr, err := net.SplitHostPort(listen)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return 80
	}
	return port
}
