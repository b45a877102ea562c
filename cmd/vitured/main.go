package main

import (
	"context"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vitured/pkg/config"
	"vitured/pkg/device"
	"vitured/pkg/engine"
	"vitured/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	return runContext(context.Background(), args, stdin, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	return execute(ctx, newRootCmd(), args, stdin, stdout, stderr)
}

func execute(ctx context.Context, root *cobra.Command, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

// app holds the persistent flags and the configuration they resolve to.
type app struct {
	configPath string
	sim        bool
	logLevel   string
	logFormat  string

	cfg config.VituredConfig
	// newSDK overrides the backend chosen from the configuration.
	newSDK sdkFactory
}

func newRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vitured",
		Short: "host daemon and console for Viture glasses",
		Long: `vitured drives Viture glasses through the vendor SDK.
Without a subcommand it starts the interactive console.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
		RunE:              a.runConsole,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "configuration file (.toml, .yaml or .yml)")
	flags.BoolVar(&a.sim, "sim", false, "use the built-in simulator instead of the SDK")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (text or json)")

	root.AddCommand(
		a.consoleCmd(),
		a.serveCmd(),
		a.sendCmd(),
		a.monitorCmd(),
		a.configCmd(),
	)
	return root
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, exists, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("sim") {
		cfg.Device.Simulate = a.sim
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}

	if err := logger.Setup(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"path":   cfg.ConfigPath(),
		"exists": exists,
	}).Debug("configuration loaded")

	a.cfg = cfg
	return nil
}

func (a *app) factory() sdkFactory {
	if a.newSDK != nil {
		return a.newSDK
	}
	return a.openSDK
}

func (a *app) openSDK() (device.SDK, error) {
	if a.cfg.Device.Simulate {
		return device.NewSimulator(device.WithFrequency(a.cfg.Frequency())), nil
	}
	return device.NewVitureSDK()
}

// openSession initializes the SDK, publishes its packets to hub and turns
// the IMU stream on.
func (a *app) openSession(hub *engine.Hub, newSDK sdkFactory) (*device.Session, error) {
	sdk, err := newSDK()
	if err != nil {
		return nil, err
	}
	sess, err := device.Open(sdk, device.WithPublisher(hub))
	if err != nil {
		return nil, err
	}

	r, err := sess.SetIMU(true)
	checkResult("imu on", r, err)
	return sess, nil
}

func checkResult(op string, r device.Result, err error) {
	entry := log.WithField("component", "device")
	switch {
	case err != nil:
		entry.WithError(err).Warn(op)
	case !r.OK():
		entry.WithField("result", r).Warn(op)
	}
}
