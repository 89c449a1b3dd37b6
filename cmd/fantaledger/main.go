package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/okian/fantaledger/internal/adapters/chart"
	"github.com/okian/fantaledger/internal/adapters/repository"
	"github.com/okian/fantaledger/internal/adapters/source"
	service "github.com/okian/fantaledger/internal/app"
	"github.com/okian/fantaledger/internal/config"
	"github.com/okian/fantaledger/internal/domain/model"
	"github.com/okian/fantaledger/pkg/logger"
	"github.com/okian/fantaledger/pkg/metrics"
	"github.com/urfave/cli/v2"
)

const timeLayout = "2006-01-02 15:04"

func main() {
	// Logs go to stderr; stdout carries the reports.
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		logger.Get().Error(ctx, "run failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to the YAML configuration file",
		EnvVars: []string{"FANTALEDGER_CONFIG"},
	}
	jsonFlag := &cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"}

	runCmd := &cli.Command{
		Name:  "run",
		Usage: "fetch the standings and append a round to the ledger",
		Flags: []cli.Flag{
			configFlag,
			&cli.BoolFlag{Name: "dry-run", Usage: "reconcile without writing the workbook"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			svc := buildService(cfg, c.Bool("dry-run"))
			outcome, err := svc.Run(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: round %d, %d changed, %d new, %d unchanged\n",
				outcome.Status, outcome.NewRound,
				outcome.Stats.AddedChanged, outcome.Stats.AddedNew, outcome.Stats.SkippedUnchanged)
			if outcome.Leader != nil {
				fmt.Fprintf(out, "leader: %s (%.2f)\n", outcome.Leader.DisplayName, outcome.Leader.CumulativeScore)
			}
			return nil
		},
	}

	return &cli.App{
		Name:      "fantaledger",
		Usage:     "keep a round-by-round history of fantasy league standings",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags:     runCmd.Flags,
		Action:    runCmd.Action,
		Commands: []*cli.Command{
			runCmd,
			{
				Name:  "standings",
				Usage: "print the latest standings from the ledger",
				Flags: []cli.Flag{configFlag, jsonFlag},
				Action: func(c *cli.Context) error {
					report, err := loadReport(c)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return writeJSON(out, report.Standings)
					}
					tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "#\tSquadra\tPunti\tGiornata\tAggiornato")
					for _, row := range report.Standings {
						fmt.Fprintf(tw, "%d\t%s\t%.2f\t%d\t%s\n",
							row.Position, row.DisplayName, row.CumulativeScore, row.Round, row.RecordedAt.Format(timeLayout))
					}
					return tw.Flush()
				},
			},
			{
				Name:  "rounds",
				Usage: "print the points scored by each team in each round",
				Flags: []cli.Flag{configFlag, jsonFlag},
				Action: func(c *cli.Context) error {
					report, err := loadReport(c)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return writeJSON(out, report.Deltas)
					}
					tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "Giornata\tSquadra\tPunti giornata\tData")
					for _, d := range report.Deltas {
						fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n",
							d.Round, d.DisplayName, d.RoundScore, d.RecordedAt.Format(timeLayout))
					}
					return tw.Flush()
				},
			},
		},
	}
}

// setup loads the configuration and applies the logging and metrics settings.
func setup(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.Context, c.String("config"))
	if err != nil {
		return nil, err
	}

	if err := logger.Init(logger.WithWriter(os.Stderr), logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(c.Context, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithMetricsEnabled(cfg.MetricsEnabled),
		metrics.WithHistogramBuckets(cfg.MetricsBuckets),
		metrics.WithCustomLabels(cfg.MetricsLabels),
	)
	return cfg, nil
}

func buildStore(cfg *config.Config) *repository.WorkbookStore {
	opts := []repository.Option{repository.WithLogger(logger.Named("workbook"))}
	if cfg.EmbedChart {
		opts = append(opts, repository.WithChart(func(l model.Ledger) ([]byte, error) {
			return chart.RenderProgression(l)
		}))
	}
	return repository.NewWorkbookStore(cfg.OutputPath, opts...)
}

func buildService(cfg *config.Config, dryRun bool) *service.Service {
	client := source.NewClient(
		source.WithTimeout(cfg.FetchTimeout),
		source.WithRetries(cfg.FetchRetries),
		source.WithRetryDelay(cfg.FetchRetryDelay),
		source.WithRequestInterval(cfg.RequestInterval),
		source.WithUserAgent(cfg.UserAgent),
		source.WithAcceptLanguage(cfg.AcceptLanguage),
		source.WithLogger(logger.Named("fetch")),
	)
	collector := source.NewCollector(client, cfg.Sources, logger.Named("collector"))

	return service.New(collector, buildStore(cfg),
		service.WithLogger(logger.Named("service")),
		service.WithTargets(cfg.TargetTeams),
		service.WithDryRun(dryRun),
		service.WithChartPath(cfg.ChartPath),
		service.WithMetricsTextfile(cfg.MetricsTextfile),
	)
}

func loadReport(c *cli.Context) (*service.Report, error) {
	cfg, err := setup(c)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.OutputPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("ledger %s does not exist yet", cfg.OutputPath)
	}
	return service.New(nil, buildStore(cfg)).Report(c.Context)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
