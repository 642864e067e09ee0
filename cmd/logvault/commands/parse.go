package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/livp123/logvault/internal/event"
	"github.com/livp123/logvault/internal/filter"
	"github.com/livp123/logvault/internal/parsers"
	"github.com/livp123/logvault/internal/runner"
	"github.com/livp123/logvault/internal/tailer"
	"github.com/livp123/logvault/internal/utils/logger"
	"github.com/livp123/logvault/internal/writer"
)

var (
	parseLogFile       string
	parseStateDir      string
	parseFollow        bool
	parseMetricsListen string
	parseFormatName    string
	parsePGFormat      string
	parsePGMinDuration float64
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse an external log file into the event store",
	// Short: 将外部日志文件解析到事件存储
	Long: `Parse reads a log file incrementally, resuming from the persisted
cursor, and writes one structured event per recognized line. Re-running
after rotation or truncation is safe: the cursor resets and only new
content is read.`,
}

func init() {
	parseCmd.PersistentFlags().StringVar(&parseLogFile, "log-file", "", "Path to the log file to parse (required)")
	parseCmd.PersistentFlags().StringVar(&parseStateDir, "state-dir", "", "Directory for cursor state files (default: <storage.root>/parser_state)")
	parseCmd.PersistentFlags().BoolVar(&parseFollow, "follow", false, "Keep running and stream new lines as they are written")
	parseCmd.PersistentFlags().StringVar(&parseMetricsListen, "metrics-listen", "", "Expose prometheus metrics on this address while running (e.g. :9321)")

	accessCmd := &cobra.Command{
		Use:   "access",
		Short: "Parse a web server access log (combined format)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if parseFormatName != "combined" {
				return fmt.Errorf("unknown access log format name: %q", parseFormatName)
			}
			return runParse(cmd, "access", parsers.Access())
		},
	}
	accessCmd.Flags().StringVar(&parseFormatName, "format-name", "combined", "Named access log format")

	errorCmd := &cobra.Command{
		Use:   "error",
		Short: "Parse a web server error log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, "server_error", parsers.ServerError())
		},
	}

	syslogCmd := &cobra.Command{
		Use:   "syslog",
		Short: "Parse a system log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, "syslog", parsers.Syslog())
		},
	}

	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Parse an OS authentication log (auth.log/secure)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, "auth", parsers.Auth())
		},
	}

	firewallCmd := &cobra.Command{
		Use:   "firewall",
		Short: "Parse a UFW firewall log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, "firewall", parsers.Firewall())
		},
	}

	postgresCmd := &cobra.Command{
		Use:   "postgres",
		Short: "Parse a database server log (csv or stderr sub-format)",
		RunE: func(cmd *cobra.Command, args []string) error {
			parse, err := parsers.Postgres(parsePGFormat, parsePGMinDuration)
			if err != nil {
				return err
			}
			return runParse(cmd, "postgres", parse)
		},
	}
	postgresCmd.Flags().StringVar(&parsePGFormat, "format", "stderr", "Log sub-format: csv or stderr")
	postgresCmd.Flags().Float64Var(&parsePGMinDuration, "min-duration-ms", 1000, "Slow query threshold in milliseconds")

	parseCmd.AddCommand(accessCmd, errorCmd, syslogCmd, authCmd, firewallCmd, postgresCmd)
	RootCmd.AddCommand(parseCmd)
}

// newRunner assembles the ingest pipeline from the loaded config.
// newRunner 根据已加载的配置组装摄取管道。
func newRunner(cmd *cobra.Command) (*runner.Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.Get(cmd.Context())

	registry := event.NewRegistry(cfg.Storage.Root, log)
	if err := registry.Load(); err != nil {
		return nil, err
	}

	w, err := writer.New(cfg.Storage.Root, registry, log)
	if err != nil {
		return nil, err
	}

	stateDir := parseStateDir
	if stateDir == "" {
		stateDir = cfg.ParserStateDir()
	}
	states, err := tailer.NewStateStore(stateDir, log)
	if err != nil {
		return nil, fmt.Errorf("create state directory %s: %w", stateDir, err)
	}

	flt, err := filter.New(cfg.Filters, log)
	if err != nil {
		return nil, err
	}

	return &runner.Runner{Writer: w, States: states, Filter: flt, Log: log}, nil
}

func runParse(cmd *cobra.Command, parserName string, parse parsers.Func) error {
	if parseLogFile == "" {
		return fmt.Errorf("--log-file is required")
	}

	r, err := newRunner(cmd)
	if err != nil {
		return err
	}
	log := logger.Get(cmd.Context())

	if parseMetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: parseMetricsListen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warnf("⚠️  Metrics listener failed: %v", err)
			}
		}()
		defer srv.Close()
	}

	if parseFollow {
		stop := make(chan struct{})
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			close(stop)
		}()

		log.Infof("🚀 Following %s with the %s parser...", parseLogFile, parserName)
		stats, err := r.Follow(parserName, parseLogFile, parse, stop)
		if err != nil {
			return err
		}
		printStats(cmd, parserName, stats)
		return nil
	}

	stats, err := r.RunOnce(parserName, parseLogFile, parse)
	if err != nil {
		return err
	}
	printStats(cmd, parserName, stats)
	return nil
}

func printStats(cmd *cobra.Command, parserName string, stats runner.Stats) {
	cmd.Printf("✅ Finished %s run: lines=%d events=%d skipped=%d dropped=%d\n",
		parserName, stats.Lines, stats.Events, stats.Skipped, stats.Dropped)
	if stats.Rotated {
		cmd.Println("🔄 Source was rotated since the last run; reading restarted from the beginning.")
	}
}
