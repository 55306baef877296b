package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spigell/job-pilot/internal/ai/gemini"
	"github.com/spigell/job-pilot/internal/correlation"
	"github.com/spigell/job-pilot/internal/jobs"
	"github.com/spigell/job-pilot/internal/logger"
	"github.com/spigell/job-pilot/internal/pipeline"
	"github.com/spigell/job-pilot/internal/profile"
	"github.com/spigell/job-pilot/internal/report"
	"github.com/spigell/job-pilot/internal/retry"
	"github.com/spigell/job-pilot/internal/secrets"
	"github.com/spigell/job-pilot/internal/toolproto"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"

	defaultOutputDir = "reports"
	defaultMinScore  = 0.7
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the job-pilot workflow: analyze the CV, search postings, filter and apply",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before submitting applications")
	runCmd.Flags().StringP("output-dir", "o", "", "directory for the run report. Default is ./"+defaultOutputDir)

	viper.BindPFlag("output-dir", runCmd.Flags().Lookup("output-dir"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the job-pilot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if err := validateConfig(config); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	password, err := secrets.Load(secrets.Source{
		Name:  "job source password",
		Value: config.Credentials.Password,
		Env:   "JOB_PILOT_PASSWORD",
		File:  config.Credentials.PasswordFile,
	})
	if err != nil {
		logger.Fatal(
			"loading job source password",
			zap.Error(err),
			zap.String("hint", "set JOB_PILOT_PASSWORD, JOB_PILOT_PASSWORD_FILE or the 'credentials.password-file' key in the configuration file"),
		)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.AI.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
		File:  config.AI.Gemini.APIKeyFile,
	})
	if err != nil {
		logger.Fatal(
			"loading gemini api key",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	doc, err := profile.LoadDocument(config.CVFile)
	if err != nil {
		logger.Fatal("loading the cv document", zap.Error(err))
	}

	tools, err := startToolServer(ctx, config, password, logger)
	if err != nil {
		logger.Fatal("starting the tool server", zap.Error(err))
	}
	defer func() {
		if err := tools.Close(); err != nil {
			logger.Warn("stopping the tool server", zap.Error(err))
		}
	}()

	generator, err := gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Model)
	if err != nil {
		logger.Fatal("creating the gemini generator", zap.Error(err))
	}

	logger.Info("using gemini model", zap.String("model", generator.Model()))

	minScore := config.AI.MinimumFitScore
	if minScore <= 0 {
		minScore = defaultMinScore
	}

	maxLogLength := config.AI.Gemini.MaxLogLength

	retryCfg := retry.DefaultConfig(toolproto.Retryable, logger)
	if config.AI.MaxRetries > 0 {
		retryCfg.MaxAttempts = config.AI.MaxRetries
	}
	if config.AI.CallTimeout > 0 {
		retryCfg.AttemptTimeout = config.AI.CallTimeout
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	deps := &pipeline.Deps{
		Logger:      logger,
		Extractor:   gemini.NewExtractor(generator, logger, maxLogLength),
		Scorer:      gemini.NewScorer(generator, logger, minScore, maxLogLength),
		Tools:       tools,
		Retry:       retryCfg,
		Limiter:     limiter,
		Concurrency: config.Concurrency,
	}

	autoApprove, _ := cmd.Flags().GetBool("auto-approve")
	if !autoApprove {
		deps.Confirm = confirmSubmissions
	}

	orchestrator, err := pipeline.New(deps)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	result, err := orchestrator.Run(ctx, pipeline.Input{
		Document: doc,
		Criteria: config.Searches,
	})
	if err != nil {
		logger.Fatal("running the workflow", zap.Error(err))
	}

	outputDir := viper.GetString("output-dir")
	if outputDir == "" {
		outputDir = config.OutputDir
	}
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	sinks := report.MultiSink{
		report.NewConsoleSink(os.Stdout),
		report.NewFileSink(outputDir, logger),
	}
	if err := sinks.Write(result); err != nil {
		logger.Fatal("writing the report", zap.Error(err))
	}

	if warnings := result.Warnings(); len(warnings) > 0 {
		logger.Warn("the run produced warnings", zap.Strings("warnings", warnings))
	}

	if result.State == pipeline.StateAborted {
		logger.Fatal("the workflow run was aborted, see the report for details")
	}
}

func validateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("config is required")
	}
	if config.CVFile == "" {
		return fmt.Errorf("cv-file is required")
	}
	if len(config.Searches) == 0 {
		return fmt.Errorf("at least one entry under searches is required")
	}
	if config.Credentials == nil || config.Credentials.Email == "" {
		return fmt.Errorf("credentials.email is required")
	}
	if config.Tools == nil || config.Tools.Command == "" {
		return fmt.Errorf("tools.command is required")
	}
	if config.AI == nil || config.AI.Gemini == nil {
		return fmt.Errorf("ai.gemini section is required")
	}
	return nil
}

func startToolServer(ctx context.Context, config *Config, password string, logger *zap.Logger) (*toolproto.Client, error) {
	tools, err := toolproto.StartSubprocess(ctx, toolproto.SubprocessConfig{
		Command: config.Tools.Command,
		Args:    config.Tools.Args,
		Env:     config.Tools.Env,
	}, toolproto.Options{
		Logger:      logger,
		CallTimeout: config.Tools.CallTimeout,
		Credentials: toolproto.Credentials{
			Email:    config.Credentials.Email,
			Password: password,
		},
	})
	if err != nil {
		return nil, err
	}

	// The handshake happens before a run exists, so it gets its own identity.
	if err := tools.Initialize(ctx, correlation.New(), version); err != nil {
		tools.Close()
		return nil, fmt.Errorf("tool server handshake: %w", err)
	}

	return tools, nil
}

func confirmSubmissions(selected []*jobs.Decision) (bool, error) {
	fmt.Printf("About to submit %d application(s):\n", len(selected))
	for _, decision := range selected {
		fmt.Printf("  %s %s (score %.2f)\n", decision.Posting.ID, decision.Posting.Title, decision.Score)
	}

	prompt := promptui.Select{
		Label: "Proceed?",
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}

	return answer == PromptYes, nil
}
