package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/simplesurance/landlord/internal/buildbot"
	"github.com/simplesurance/landlord/internal/cfg"
	"github.com/simplesurance/landlord/internal/githubclt"
	"github.com/simplesurance/landlord/internal/logfields"
	"github.com/simplesurance/landlord/internal/mergequeue"
)

const appName = "landlord"

var logger *zap.Logger

// Version is set via a ldflag on compilation
var Version = "unknown"

// Exit codes of a run, cron wrappers and monitoring distinguish outcomes by
// them. 1 is reserved for unexpected runtime errors, 2 for configuration and
// usage errors.
const (
	exitCodeAction  = 0
	exitCodeFatal   = 1
	exitCodeUsage   = 2
	exitCodeNoop    = 3
	exitCodeFailure = 4
)

func exitOnErr(msg string, err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "ERROR:", msg+", error:", err.Error())
	os.Exit(exitCodeUsage)
}

func panicHandler() {
	if r := recover(); r != nil {
		logger.Info(
			"panic caught, terminating gracefully",
			zap.String("panic", fmt.Sprintf("%v", r)),
			zap.StackSkip("stacktrace", 1),
		)

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Minute)
		defer cancelFn()

		goodbye.Exit(ctx, exitCodeFatal)
	}
}

type arguments struct {
	Verbose         *bool
	ConfigFile      *string
	Workspace       *string
	DryRun          *bool
	ShowVersion     *bool
	PrintCfgExample *bool
}

var args arguments

const defConfigFile = "/etc/landlord/config.toml"
const defRepoCfgFile = "landlord.cfg.json"

func mustParseCommandlineParams() {
	args = arguments{
		Verbose: pflag.BoolP(
			"verbose",
			"v",
			false,
			"enable verbose logging",
		),
		ConfigFile: pflag.StringP(
			"cfg-file",
			"c",
			defConfigFile,
			"path to the landlord configuration file",
		),
		Workspace: pflag.String(
			"workspace",
			".",
			"directory in that relative configuration and output file paths are resolved",
		),
		DryRun: pflag.Bool(
			"dry-run",
			false,
			"log mutating operations instead of executing them",
		),
		ShowVersion: pflag.Bool(
			"version",
			false,
			"print the version and exit",
		),
		PrintCfgExample: pflag.Bool(
			"print-cfg-example",
			false,
			"print a configuration file with default values and exit",
		),
	}

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]\nAdvance the merge queue of a repository by at most one state transition.\n", appName)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()
}

func mustParseCfg() *cfg.Config {
	// we use exitOnErr in this function instead of logger.Fatal() because
	// the logger is not initialized yet

	file, err := os.Open(*args.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		// all settings have defaults, a missing file is not an error
		return cfg.Default()
	}
	exitOnErr("could not open configuration file", err)
	defer file.Close()

	config, err := cfg.Load(file)
	if err != nil {
		exitOnErr(fmt.Sprintf("could not load configuration file: %s", *args.ConfigFile), err)
	}

	return config
}

func mustParseRepoCfg(path string) *cfg.RepoConfig {
	file, err := os.Open(path)
	exitOnErr(fmt.Sprintf("could not open repository configuration file: %s", path), err)
	defer file.Close()

	repoCfg, err := cfg.LoadRepoConfig(file)
	if err != nil {
		exitOnErr(fmt.Sprintf("could not load repository configuration file: %s", path), err)
	}

	return repoCfg
}

func initLogFmtLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zapEncoderConfig(config)

	logger := zap.New(zapcore.NewCore(
		zaplogfmt.NewEncoder(cfg),
		os.Stdout,
		logLevel),
	)

	return logger
}

func zapEncoderConfig(config *cfg.Config) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()

	cfg.LevelKey = "loglevel"
	cfg.TimeKey = config.LogTimeKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	return cfg
}

func mustInitZapFormatLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.EncoderConfig = zapEncoderConfig(config)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Encoding = config.LogFormat
	cfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := cfg.Build()
	exitOnErr("could not initialize logger", err)

	return logger
}

func mustInitLogger(config *cfg.Config) {
	var logLevel zapcore.Level
	if *args.Verbose {
		logLevel = zapcore.DebugLevel
	} else {
		if err := (&logLevel).Set(config.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "can not set log level to %q: %s\n", config.LogLevel, err)
			os.Exit(exitCodeUsage)
		}
	}

	switch config.LogFormat {
	case "logfmt":
		logger = initLogFmtLogger(config, logLevel)
	case "console", "json":
		logger = mustInitZapFormatLogger(config, logLevel)
	default:
		fmt.Fprintf(os.Stderr, "unsupported log-format argument: %q\n", config.LogFormat)
		os.Exit(exitCodeUsage)
	}

	logger = logger.Named("main")
	zap.ReplaceGlobals(logger)

	goodbye.Register(func(context.Context, os.Signal) {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "flushing logs failed: %s\n", err)
		}
	})
}

func hide(in string) string {
	if in == "" {
		return in
	}

	return "**hidden**"
}

// resolvePath resolves path in the workspace directory. Absolute paths and
// the empty string are returned unchanged.
func resolvePath(workspace, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(workspace, path)
}

func exitCode(outcome mergequeue.RunOutcome) int {
	switch outcome {
	case mergequeue.RunOutcomeNoop:
		return exitCodeNoop
	case mergequeue.RunOutcomeFailureRecorded:
		return exitCodeFailure
	default:
		return exitCodeAction
	}
}

func main() {
	defer panicHandler()

	defer goodbye.Exit(context.Background(), exitCodeFatal)
	goodbye.Notify(context.Background())

	mustParseCommandlineParams()

	if *args.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		os.Exit(0) // nolint:gocritic // defer functions won't run
	}

	if *args.PrintCfgExample {
		err := cfg.Default().Marshal(os.Stdout)
		exitOnErr("could not marshal example configuration", err)
		os.Exit(0) // nolint:gocritic // defer functions won't run
	}

	config := mustParseCfg()

	mustInitLogger(config)

	repoCfgFile := config.RepoCfgFile
	if repoCfgFile == "" {
		repoCfgFile = defRepoCfgFile
	}
	repoCfgFile = resolvePath(*args.Workspace, repoCfgFile)

	repoCfg := mustParseRepoCfg(repoCfgFile)

	snapshotFile := resolvePath(*args.Workspace, config.QueueSnapshotFile)
	metricsFile := resolvePath(*args.Workspace, config.MetricsFile)

	logger.Info(
		"loaded cfg files",
		logfields.Event("cfg_loaded"),
		zap.String("cfg_file", *args.ConfigFile),
		zap.String("repo_cfg_file", repoCfgFile),
		logfields.RepositoryOwner(repoCfg.Owner),
		logfields.Repository(repoCfg.Repo),
		zap.Strings("reviewers", repoCfg.Reviewers),
		zap.Strings("builders", repoCfg.Builders),
		zap.String("test_ref", repoCfg.TestRef),
		zap.String("master_ref", repoCfg.MasterRef),
		zap.String("buildbot_url", repoCfg.BuildbotURL),
		zap.String("gh_user", repoCfg.GithubUser),
		zap.String("gh_pass", hide(repoCfg.GithubPass)),
		zap.String("status_context", config.StatusContext),
		zap.String("queue_filter_query", config.QueueFilterQuery),
		zap.String("queue_snapshot_file", snapshotFile),
		zap.String("metrics_file", metricsFile),
		zap.String("log_format", config.LogFormat),
		zap.String("log_time_key", config.LogTimeKey),
		zap.String("log_level", config.LogLevel),
		zap.Bool("dry_run", *args.DryRun),
	)

	goodbye.Register(func(_ context.Context, sig os.Signal) {
		logger.Info(fmt.Sprintf("terminating, received signal %s", sig.String()))
	})

	var filter *mergequeue.Filter
	if config.QueueFilterQuery != "" {
		var err error

		filter, err = mergequeue.NewFilter(config.QueueFilterQuery)
		exitOnErr(fmt.Sprintf("could not parse queue_filter_query: %s", config.QueueFilterQuery), err)
	}

	var metrics *mergequeue.RunMetrics
	if metricsFile != "" {
		metrics = mergequeue.NewRunMetrics(metricsFile)
	}

	httpTimeout := time.Duration(config.HTTPTimeoutSeconds) * time.Second

	ghClt, err := githubclt.New(
		repoCfg.GithubUser,
		repoCfg.GithubPass,
		config.GithubAPIURL,
		config.GithubGraphQLURL,
		httpTimeout,
	)
	exitOnErr("could not create github client", err)

	ciClt := buildbot.New(repoCfg.BuildbotURL, repoCfg.NBuilds, httpTimeout)

	var runnerGhClt mergequeue.GithubClient = ghClt
	if *args.DryRun {
		runnerGhClt = mergequeue.NewDryGithubClient(ghClt)

		logger.Info(
			"dry-run enabled, mutating operations are only logged",
			logfields.Event("dry_run_enabled"),
		)
	}

	runner := mergequeue.NewRunner(
		runnerGhClt,
		ciClt,
		repoCfg,
		config.StatusContext,
		mergequeue.WithFilter(filter),
		mergequeue.WithSnapshotFile(snapshotFile),
		mergequeue.WithMetrics(metrics),
		mergequeue.WithFetchRetryTimeout(time.Duration(config.FetchRetryTimeoutSeconds)*time.Second),
	)

	ctx := context.Background()

	report, err := runner.Run(ctx)
	if err != nil {
		logger.Error(
			"run failed",
			logfields.Event("run_failed"),
			zap.Error(err),
			logfields.ExitCode(exitCodeFatal),
		)

		goodbye.Exit(ctx, exitCodeFatal)
	}

	code := exitCode(report.Outcome)

	logger.Info(
		fmt.Sprintf("run finished: %s", report.Outcome),
		logfields.Event("run_exiting"),
		zap.String("run_outcome", string(report.Outcome)),
		zap.Int("queue.size", report.QueueSize),
		logfields.ExitCode(code),
	)

	goodbye.Exit(ctx, code)
}
