package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"aurioncal/internal/components/chrono"
	"aurioncal/internal/components/telemetry"
	"aurioncal/internal/config"
	"aurioncal/internal/export"
	"aurioncal/internal/scrapers/aurion"
	"aurioncal/lib/restyutil"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	users      string
	from       string
	to         string
	dumpHTTP   string
	debug      bool
	cron       string
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "aurioncal <username> <password> <output-dir>",
		Short: "aurioncal exports Aurion schedules to one iCalendar file per user.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if opts.debug {
				telemetry.InitSlog(cmd.ErrOrStderr(), true)
			}
			return run(cmd.Context(), cmd.OutOrStdout(), opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "aurioncal.json5", "The config file (.json5, .json, .yaml or .yml).")
	flags.StringVar(&opts.users, "users", "", "Semicolon separated calendar ids, overrides the configured list.")
	flags.StringVar(&opts.from, "from", "", "First exported day (YYYY-MM-DD).")
	flags.StringVar(&opts.to, "to", "", "Day after the last exported one (YYYY-MM-DD).")
	flags.StringVar(&opts.dumpHTTP, "dump-http", "", "Write every HTTP exchange to this directory.")
	flags.BoolVar(&opts.debug, "debug", false, "Log at debug level.")
	flags.StringVar(&opts.cron, "cron", "", "Run on this cron schedule instead of once.")

	return cmd
}

// ExecuteContext runs the root command and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func loadConfig(opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if errors.Is(err, os.ErrNotExist) && opts.users != "" {
		slog.Info("config file not found, using defaults", "path", opts.configPath)
		cfg = config.Default()
		err = nil
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("read config %s: %w", opts.configPath, err)
	}

	if opts.users != "" {
		cfg.Users = opts.users
	}
	if opts.from != "" {
		cfg.Range.From = opts.from
	}
	if opts.to != "" {
		cfg.Range.To = opts.to
	}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, stdout io.Writer, opts *options, args []string) error {
	creds := export.Credentials{Username: args[0], Password: args[1]}
	outDir := args[2]

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	clock, err := chrono.NewStandardImpl(cfg.Timezone)
	if err != nil {
		return err
	}
	// checked before any request so a bad range never reaches the portal
	_, err = cfg.ScheduleRange(clock.Now(), clock.Location())
	if err != nil {
		return err
	}

	err = os.MkdirAll(outDir, 0755)
	if err != nil {
		return err
	}

	var dump restyutil.Output
	if opts.dumpHTTP != "" {
		out, err := restyutil.NewFilesystemOutput(opts.dumpHTTP)
		if err != nil {
			return err
		}
		dump = out
	}

	tel := telemetry.SlogAPI{}
	once := func() error {
		client, err := aurion.NewClient(aurion.ClientOptions{
			PortalURL: cfg.PortalURL,
			CASURL:    cfg.CASURL,
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout(),
			Menu:      cfg.MenuLabels(),
			Telemetry: tel,
			Dump:      dump,
		})
		if err != nil {
			return err
		}
		rng, err := cfg.ScheduleRange(clock.Now(), clock.Location())
		if err != nil {
			return err
		}

		runner := export.Runner{
			Scraper:   client,
			Clock:     clock,
			Telemetry: tel,
			Console:   stdout,
		}
		start := time.Now()
		report, err := runner.Run(ctx, creds, outDir, cfg.UserIDs(), rng)
		if len(report.Outcomes) > 0 {
			report.Render(stdout)
		}
		slog.Info("run finished", "exported", report.Exported(), "seconds", time.Since(start).Seconds())
		return err
	}

	if opts.cron == "" {
		return once()
	}

	scheduler := chrono.NewStandardCron(tel, clock.Location())
	defer scheduler.Stop()
	err = scheduler.Cron(opts.cron, func() {
		err := once()
		if err != nil {
			tel.ReportBroken("commands.cron-run", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron %q: %w", strings.TrimSpace(opts.cron), err)
	}
	slog.Info("waiting for scheduled runs", "cron", opts.cron)
	<-ctx.Done()
	return nil
}
