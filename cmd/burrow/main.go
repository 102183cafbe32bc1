package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/burrowmoo/burrow/pkg/config"
	"github.com/burrowmoo/burrow/pkg/events"
	"github.com/burrowmoo/burrow/pkg/extproc"
	"github.com/burrowmoo/burrow/pkg/ledger"
	"github.com/burrowmoo/burrow/pkg/log"
	"github.com/burrowmoo/burrow/pkg/metrics"
	"github.com/burrowmoo/burrow/pkg/snapshot"
	"github.com/burrowmoo/burrow/pkg/tasks"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "burrow",
	Short: "Burrow - persistent object world server",
	Long: `Burrow is a long-running, single-process object world server.
It loads the entire world from a textual snapshot at startup and
periodically checkpoints a fresh snapshot back to disk, atomically and
crash-consistently, while continuing to serve.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Burrow version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	// Initialize logging before command execution
	cobra.OnInitialize(initLogging)

	// Add subcommands
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(checkCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      logLevel,
		JSONOutput: logJSON,
	})
}

var serverCmd = &cobra.Command{
	Use:   "server <input-db-file> <output-db-file>",
	Short: "Load the world and serve, checkpointing periodically",
	Args:  cobra.ExactArgs(2),
	RunE:  runServer,
}

func init() {
	serverCmd.Flags().String("config", "", "YAML config file")
	serverCmd.Flags().Int("checkpoint-interval", 0, "Seconds between checkpoints (unset = config value, 0 = disabled)")
	serverCmd.Flags().String("metrics-addr", "", "Prometheus listen address (empty = disabled)")
	serverCmd.Flags().String("bin-dir", "", "Subdirectory external commands resolve under")
	serverCmd.Flags().Bool("unforked-checkpoints", false, "Run checkpoints synchronously")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	// Log settings from the config file apply unless given as flags.
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	if !rootCmd.PersistentFlags().Changed("log-level") {
		logLevel = cfg.LogLevel
	}
	if !rootCmd.PersistentFlags().Changed("log-json") {
		logJSON = cfg.LogJSON
	}
	log.Init(log.Config{Level: logLevel, JSONOutput: logJSON})
	if cmd.Flags().Changed("checkpoint-interval") {
		cfg.CheckpointIntervalSeconds, _ = cmd.Flags().GetInt("checkpoint-interval")
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr, _ = cmd.Flags().GetString("metrics-addr")
	}
	if cmd.Flags().Changed("bin-dir") {
		cfg.BinDir, _ = cmd.Flags().GetString("bin-dir")
	}
	if cmd.Flags().Changed("unforked-checkpoints") {
		cfg.UnforkedCheckpoints, _ = cmd.Flags().GetBool("unforked-checkpoints")
	}

	broker := events.NewBroker()
	defer broker.Close()

	sub := broker.Subscribe()
	go func() {
		eventsLog := log.WithComponent("events")
		for e := range sub {
			eventsLog.Debug().
				Str("type", string(e.Type)).
				Str("event_id", e.ID).
				Msg(e.Message)
		}
	}()

	var led *ledger.Ledger
	led, err := ledger.Open(args[1] + ".ledger")
	if err != nil {
		log.Logger.Warn().Err(err).Msg("Checkpoint ledger unavailable")
		led = nil
	} else {
		defer led.Close()
	}

	sched := tasks.NewScheduler()
	queue := tasks.NewQueue()
	roster := tasks.NewRoster()

	ctx, err := snapshot.New(snapshot.Config{
		InputName:   args[0],
		DumpName:    args[1],
		Unforked:    cfg.UnforkedCheckpoints,
		TaskQueue:   queue,
		Connections: roster,
		Events:      broker,
		Ledger:      led,
	})
	if err != nil {
		return err
	}

	if err := ctx.Load(); err != nil {
		return err
	}

	extproc.NewService(cfg.BinDir, sched, broker)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
		log.Logger.Info().Str("addr", cfg.MetricsAddr).Msg("Metrics server listening")
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR1, syscall.SIGUSR2)

	var ticker *time.Ticker
	var tick <-chan time.Time
	if cfg.CheckpointIntervalSeconds > 0 {
		ticker = time.NewTicker(time.Duration(cfg.CheckpointIntervalSeconds) * time.Second)
		defer ticker.Stop()
		tick = ticker.C
	}

	log.Logger.Info().
		Str("input", args[0]).
		Str("dump", args[1]).
		Int64("disk_size", ctx.DiskSize()).
		Msg("Server ready")

	for {
		select {
		case <-tick:
			if err := ctx.Flush(snapshot.FlushAllNow); err != nil {
				log.Logger.Error().Err(err).Msg("Checkpoint failed")
			}
		case sig := <-sigCh:
			switch sig {
			case syscall.SIGUSR1:
				if err := ctx.Flush(snapshot.FlushAllNow); err != nil {
					log.Logger.Error().Err(err).Msg("Checkpoint failed")
				}
			case syscall.SIGUSR2:
				log.Logger.Error().Msg("PANIC: dumping emergency snapshot")
				if err := ctx.Flush(snapshot.FlushPanic); err != nil {
					log.Logger.Error().Err(err).Msg("Panic dump failed")
				}
				os.Exit(1)
			default:
				log.Logger.Info().Str("signal", sig.String()).Msg("Shutting down")
				return ctx.Shutdown()
			}
		}
	}
}

var checkCmd = &cobra.Command{
	Use:   "check <db-file>",
	Short: "Load and validate a snapshot without serving",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := snapshot.New(snapshot.Config{
			InputName:   args[0],
			DumpName:    args[0] + ".check",
			TaskQueue:   tasks.NewQueue(),
			Connections: tasks.NewRoster(),
		})
		if err != nil {
			return err
		}
		if err := ctx.Load(); err != nil {
			return err
		}
		store := ctx.Store()
		fmt.Printf("%s: OK (version %d, %d slots, last objid #%d)\n",
			args[0], ctx.InputVersion(), store.MaxObjid()+1, store.MaxObjid())
		return nil
	},
}
