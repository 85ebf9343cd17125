package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"ig_apify/config"
	"ig_apify/functions"
	"ig_apify/logging"
	"ig_apify/models"
	"ig_apify/scheduler"
	"ig_apify/scraper"
	"ig_apify/storage"
)

var (
	cfg      *config.Config
	closeLog func()

	logFile string

	programIDs string
	start      string
	end        string
	limit      int
	offset     int

	bucket string
	key    string
	file   string
)

var rootCmd = &cobra.Command{
	Use:   "ig_apify",
	Short: "Dispatch Instagram scrape tasks to Apify and ingest their results",
	Long: `ig_apify runs the scrape dispatch and ingest handlers outside Lambda.

  dispatch  select eligible profiles or posts and start the Apify task
  ingest    write a result file from S3 back into the database
  daemon    run both dispatches on their cron schedules`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		_, closeLog, err = logging.Setup(logging.Options{
			Level:       cfg.LogLevel,
			Development: cfg.EnvName == "local",
			FilePath:    logFile,
		})
		return err
	},
}

var dispatchCmd = &cobra.Command{
	Use:       "dispatch profile|post",
	Short:     "Select candidates and start a scrape task",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"profile", "post"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := models.ParseKind(args[0])
		if err != nil {
			return err
		}
		if err := cfg.ValidateDispatch(); err != nil {
			return err
		}

		d, err := functions.NewDispatcher(cfg, kind, scraper.NewApifyClient(cfg.Apify))
		if err != nil {
			return err
		}

		params, err := dispatchParams(cmd)
		if err != nil {
			return err
		}

		summary, err := d.Dispatch(cmd.Context(), params)
		if err != nil {
			return err
		}
		fmt.Println(summary.Message())
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:       "ingest profile|post",
	Short:     "Reconcile a scrape result file into the database",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"profile", "post"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := models.ParseKind(args[0])
		if err != nil {
			return err
		}
		if err := cfg.ValidateIngest(); err != nil {
			return err
		}
		if bucket == "" {
			return errors.New("--bucket is required")
		}

		ctx := cmd.Context()
		objectKey := key
		if file != "" {
			objectKey, err = upload(ctx, file)
			if err != nil {
				return err
			}
		}
		if objectKey == "" {
			return errors.New("one of --key or --file is required")
		}

		i, err := functions.NewIngester(ctx, cfg, kind)
		if err != nil {
			return err
		}
		msg, err := i.Ingest(ctx, bucket, objectKey)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run profile and post dispatch on their cron schedules",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateDispatch(); err != nil {
			return err
		}

		runner := scraper.NewApifyClient(cfg.Apify)
		sched := scheduler.New()
		for _, kind := range []models.Kind{models.KindProfile, models.KindPost} {
			d, err := functions.NewDispatcher(cfg, kind, runner)
			if err != nil {
				return err
			}
			sched.Add(kind, cfg.Campaigns[kind.String()].Cron, d)
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		if err := sched.Start(ctx); err != nil {
			return err
		}
		zap.S().Info("daemon running, press Ctrl+C to stop")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		zap.S().Info("shutting down")
		cancel()
		sched.Stop()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file (rotated at 2MB)")

	dispatchCmd.Flags().StringVar(&programIDs, "program-ids", "", "comma separated program ids; omit for flagged programs and a random cap")
	dispatchCmd.Flags().StringVar(&start, "start", "", "window start date (YYYY-MM-DD)")
	dispatchCmd.Flags().StringVar(&end, "end", "", "window end date (YYYY-MM-DD)")
	dispatchCmd.Flags().IntVar(&limit, "limit", -1, "maximum number of candidates")
	dispatchCmd.Flags().IntVar(&offset, "offset", -1, "candidates to skip")

	ingestCmd.Flags().StringVar(&bucket, "bucket", "", "result bucket")
	ingestCmd.Flags().StringVar(&key, "key", "", "result object key")
	ingestCmd.Flags().StringVar(&file, "file", "", "local result file to upload to --bucket and ingest")

	rootCmd.AddCommand(dispatchCmd, ingestCmd, daemonCmd)
}

// dispatchParams maps flags onto the invocation parameter bag. No
// --program-ids means default mode.
func dispatchParams(cmd *cobra.Command) (*models.DispatchParams, error) {
	if programIDs == "" {
		if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") || cmd.Flags().Changed("limit") || cmd.Flags().Changed("offset") {
			return nil, errors.New("--start, --end, --limit and --offset require --program-ids")
		}
		return nil, nil
	}

	params := &models.DispatchParams{Start: start, End: end}
	for _, raw := range strings.Split(programIDs, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--program-ids: %w", err)
		}
		params.ProgramIDs = append(params.ProgramIDs, id)
	}
	if cmd.Flags().Changed("limit") {
		v := models.FlexInt(limit)
		params.Limit = &v
	}
	if cmd.Flags().Changed("offset") {
		v := models.FlexInt(offset)
		params.Offset = &v
	}
	return params, nil
}

func upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	objects, err := storage.NewS3Store(ctx, cfg.S3)
	if err != nil {
		return "", err
	}
	objectKey := fmt.Sprintf("replay/%s-%s", time.Now().Format("20060102150405"), path.Base(localPath))
	if err := objects.Put(ctx, bucket, objectKey, data); err != nil {
		return "", err
	}
	return objectKey, nil
}

// execute runs the command line and releases the logger on every outcome;
// cobra skips post-run hooks when a command fails.
func execute(args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	if closeLog != nil {
		closeLog()
		closeLog = nil
	}
	return err
}

func main() {
	if err := execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
