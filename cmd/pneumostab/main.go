package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/barmaleii77-hub/pneumostab/internal/analysis"
	"github.com/barmaleii77-hub/pneumostab/internal/config"
	"github.com/barmaleii77-hub/pneumostab/internal/control"
	"github.com/barmaleii77-hub/pneumostab/internal/dynamo"
	"github.com/barmaleii77-hub/pneumostab/internal/observability"
	"github.com/barmaleii77-hub/pneumostab/internal/rig"
	"github.com/barmaleii77-hub/pneumostab/internal/sim"
	"github.com/barmaleii77-hub/pneumostab/internal/stream"
	"github.com/barmaleii77-hub/pneumostab/internal/tui"
)

var (
	configFile string
	preset     string
	duration   float64
	roadName   string
	thermoMode string
	integrator string
	addr       string
	verbose    bool
	level      bool
	levelKp    float64
	levelKi    float64
	levelKd    float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pneumostab",
		Short: "pneumatic suspension rig simulator",
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&roadName, "road", "", "road profile override (flat, sine, sweep, bump)")
	rootCmd.PersistentFlags().StringVar(&thermoMode, "thermo", "", "gas law override (isothermal, adiabatic)")
	rootCmd.PersistentFlags().StringVar(&integrator, "integrator", "", "stepping method override (ros2, rk4, euler)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the simulation headless and print a summary",
		RunE:  runHeadless,
	}
	runCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated duration, seconds")
	runCmd.Flags().BoolVar(&level, "level", false, "enable the ride-height leveler")
	runCmd.Flags().Float64Var(&levelKp, "kp", control.DefaultGains.Kp, "leveler proportional gain")
	runCmd.Flags().Float64Var(&levelKi, "ki", control.DefaultGains.Ki, "leveler integral gain")
	runCmd.Flags().Float64Var(&levelKd, "kd", control.DefaultGains.Kd, "leveler derivative gain")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with the terminal live monitor",
		RunE:  runLive,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve snapshots over websocket with metrics",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				cfg := config.Presets[name]
				fmt.Printf("  %-14s %s gas, %s road, receiver %.0f kPa\n",
					name, cfg.ThermoMode, cfg.Road.Profile, cfg.Receiver.Pressure/1000)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves precedence: defaults, then preset, then config file,
// then flag overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q (see `pneumostab presets`)", preset)
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if roadName != "" {
		cfg.Road.Profile = roadName
	}
	if thermoMode != "" {
		cfg.ThermoMode = thermoMode
	}
	if integrator != "" {
		cfg.Integrator = integrator
	}
	return cfg, nil
}

func newLogger() zerolog.Logger {
	lvl := zerolog.InfoLevel
	if verbose {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

func buildManager(log zerolog.Logger, metrics *observability.Collector) (*sim.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	params, err := cfg.SimParams()
	if err != nil {
		return nil, err
	}
	params.Logger = log
	params.Metrics = metrics
	return sim.NewManager(params)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	log := newLogger()
	mgr, err := buildManager(log, nil)
	if err != nil {
		return err
	}
	if err := mgr.Start(); err != nil {
		return err
	}

	if level {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go control.NewLeveler(mgr, control.Gains{Kp: levelKp, Ki: levelKi, Kd: levelKd}, log).Run(ctx)
	}

	// Sample the channel while the clock runs, collecting receiver
	// pressure and the front-left angle for the closing report.
	const sampleRate = 10.0 // Hz
	var pressure, angle []float64
	deadline := time.After(time.Duration(duration * float64(time.Second)))
	ticker := time.NewTicker(time.Duration(float64(time.Second) / sampleRate))
	defer ticker.Stop()

sample:
	for {
		select {
		case <-deadline:
			break sample
		case <-ticker.C:
			if snap, ok := mgr.Snapshots().TryGetLatest(); ok {
				pressure = append(pressure, snap.ReceiverPressure/1000)
				angle = append(angle, snap.Corners[rig.FrontLeft].Angle)
			}
		case fault := <-mgr.Faults():
			if dynamo.IsFatal(fault) {
				mgr.Stop()
				return fmt.Errorf("fatal simulation fault: %w", fault)
			}
			log.Warn().Err(fault).Msg("simulation fault")
		}
	}
	if err := mgr.Stop(); err != nil {
		return err
	}

	stats := mgr.Stats()
	fmt.Printf("\nsimulated %.3f s in %d ticks (%d faults, %d overruns, mean step %s)\n",
		stats.SimTime, stats.Ticks, stats.Faults, stats.Overruns,
		stats.MeanStepDuration.Round(time.Microsecond))
	fmt.Printf("integrator: %d steps, %d rejected, %d evaluations\n",
		stats.Integrator.Steps, stats.Integrator.Rejected, stats.Integrator.Evaluations)

	if snap, ok := mgr.Snapshots().TryGetLatest(); ok {
		for _, c := range rig.Corners() {
			cs := snap.Corners[c]
			fmt.Printf("  %-12s angle %+.4f rad  piston %.1f mm  head %.1f kPa  rod %.1f kPa\n",
				c, cs.Angle, cs.PistonPosition*1000, cs.HeadPressure/1000, cs.RodPressure/1000)
		}
	}
	if len(angle) >= 64 {
		if f := analysis.DominantFrequency(angle, sampleRate); f > 0 {
			fmt.Printf("dominant suspension frequency: %.2f Hz\n", f)
		}
	}
	if len(pressure) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(pressure,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("receiver pressure, kPa")))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	mgr, err := buildManager(zerolog.Nop(), nil)
	if err != nil {
		return err
	}
	if err := mgr.Start(); err != nil {
		return err
	}
	defer mgr.Stop()

	p := tea.NewProgram(tui.NewModel(mgr), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()
	metrics := observability.NewCollector()
	mgr, err := buildManager(log, metrics)
	if err != nil {
		return err
	}
	if err := mgr.Start(); err != nil {
		return err
	}
	defer mgr.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := stream.NewServer(addr, mgr, metrics, log)
	if err := srv.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
