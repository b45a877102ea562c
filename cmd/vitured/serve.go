package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vitured/pkg/bridge/foxglove"
	"vitured/pkg/bridge/opentrack"
	"vitured/pkg/device"
	"vitured/pkg/engine"
	"vitured/pkg/logger"
	"vitured/pkg/orientation"
	"vitured/pkg/transport"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "stream glasses orientation to OpenTrack and other outputs",
		Long: `serve waits for supported glasses, opens the SDK when they are attached
and fans the IMU stream out to the outputs enabled in the configuration:
OpenTrack UDP, the orientation control socket, a JSONL packet log and the
Foxglove WebSocket bridge.`,
		Example: `  vitured serve --config vitured.toml
  vitured serve --sim --log-level debug`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)

	var (
		wg      sync.WaitGroup
		closers []io.Closer
	)
	defer func() {
		cancel()
		wg.Wait()
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()
	spawn := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	cfg := a.cfg
	hub := engine.NewHub()
	go hub.Run(ctx)

	adjuster := orientation.NewAdjuster(cfg.OrientationSettings())

	if cfg.OpenTrack.Enabled {
		bridge, err := opentrack.Dial(cfg.OpenTrack.Addr, adjuster)
		if err != nil {
			return err
		}
		closers = append(closers, bridge)
		sub := hub.Subscribe()
		spawn(func() { bridge.Consume(ctx, sub) })
	}

	if cfg.Control.Enabled {
		frames := make(chan []byte, 64)
		srv, err := transport.StartServer(ctx, cfg.Control.Addr, frames,
			transport.WithErrorHandler(func(err error) {
				log.WithField("component", "control").WithError(err).Warn("connection error")
			}),
		)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"component": "control", "addr": srv.Addr()}).Info("control socket listening")
		spawn(srv.Wait)
		spawn(func() { applyControl(ctx, frames, adjuster) })
	}

	if cfg.Log.JSONL != "" {
		file, err := os.Create(cfg.Log.JSONL)
		if err != nil {
			return fmt.Errorf("open packet log: %w", err)
		}
		closers = append(closers, file)
		sub := hub.Subscribe()
		spawn(func() { logger.NewJSONLWriter(file).Consume(ctx, sub) })
	}

	if cfg.Foxglove.Enabled {
		fcfg := foxglove.DefaultConfig()
		fcfg.WSAddr = cfg.Foxglove.WSAddr
		fcfg.ParentFrameID = cfg.Foxglove.ParentFrame
		fcfg.FrameID = cfg.Foxglove.FrameID
		srv := foxglove.NewServer(fcfg, hub)
		spawn(func() {
			if err := srv.Run(ctx); err != nil {
				log.WithField("component", "foxglove").WithError(err).Error("bridge stopped")
			}
		})
	}

	var enum device.Enumerator
	if !cfg.Device.Simulate && cfg.Device.Hotplug {
		e, err := device.NewHIDEnumerator()
		if err != nil {
			return err
		}
		enum = e
	}
	return a.superviseDevice(ctx, hub, enum, a.factory())
}

// applyControl feeds control-socket frames into the adjuster until ctx is done.
func applyControl(ctx context.Context, frames <-chan []byte, adjuster *orientation.Adjuster) {
	entry := log.WithField("component", "control")
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-frames:
			cmd, err := orientation.DecodeCommand(frame)
			if err != nil {
				entry.WithError(err).WithField("frame", string(frame)).Warn("invalid command")
				continue
			}
			entry.WithField("command", cmd.String()).Info("apply")
			adjuster.ApplyCommands([]orientation.Command{cmd})
		}
	}
}

// sdkFactory builds a fresh SDK for every session.
type sdkFactory func() (device.SDK, error)

// superviseDevice keeps a session open while glasses are attached. With a nil
// enum (the simulator, or hotplug off) one session lasts the whole run. An
// open that fails while the glasses are present is retried on every poll.
func (a *app) superviseDevice(ctx context.Context, hub *engine.Hub, enum device.Enumerator, newSDK sdkFactory) error {
	if enum == nil {
		sess, err := a.openServeSession(hub, newSDK)
		if err != nil {
			return err
		}
		defer sess.Close()
		<-ctx.Done()
		return nil
	}

	interval, err := a.cfg.PollInterval()
	if err != nil {
		return err
	}
	events := make(chan device.HotplugEvent)
	go device.NewWatcher(enum, device.WithPollInterval(interval)).Run(ctx, events)

	retry := time.NewTicker(interval)
	defer retry.Stop()

	entry := log.WithField("component", "device")
	var (
		sess     *device.Session
		present  bool
		failures int
	)
	open := func() {
		s, err := a.openServeSession(hub, newSDK)
		if err != nil {
			failures++
			if failures == 1 {
				entry.WithError(err).Error("open session, retrying while attached")
			} else {
				entry.WithError(err).WithField("attempt", failures).Debug("open session")
			}
			return
		}
		sess, failures = s, 0
	}
	defer func() {
		if sess != nil {
			_ = sess.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			switch ev {
			case device.Arrived:
				present = true
				if sess == nil {
					open()
				}
			case device.Left:
				present, failures = false, 0
				if sess != nil {
					_ = sess.Close()
					sess = nil
				}
			}
		case <-retry.C:
			if present && sess == nil {
				open()
			}
		}
	}
}

// openServeSession opens a session and applies the configured frequency and
// display mode.
func (a *app) openServeSession(hub *engine.Hub, newSDK sdkFactory) (*device.Session, error) {
	sess, err := a.openSession(hub, newSDK)
	if err != nil {
		return nil, err
	}
	r, err := sess.SetIMUFrequency(a.cfg.Frequency())
	checkResult("set imu frequency", r, err)
	if a.cfg.Device.Mode3D {
		r, err = sess.Set3D(true)
		checkResult("3d mode", r, err)
	}
	log.WithFields(log.Fields{
		"component": "device",
		"frequency": a.cfg.Frequency(),
		"3d":        a.cfg.Device.Mode3D,
	}).Info("session open")
	return sess, nil
}
