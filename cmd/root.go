package cmd

import (
	"log"
	"time"

	"github.com/spigell/job-pilot/internal/jobs"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "job-pilot"
)

type Config struct {
	CVFile      string             `mapstructure:"cv-file"`
	Searches    []jobs.Criteria    `mapstructure:"searches"`
	OutputDir   string             `mapstructure:"output-dir"`
	Concurrency int                `mapstructure:"concurrency"`
	RateLimit   float64            `mapstructure:"rate-limit"`
	Credentials *CredentialsConfig `mapstructure:"credentials"`
	Tools       *ToolServerConfig  `mapstructure:"tools"`
	AI          *AIConfig          `mapstructure:"ai"`
}

type CredentialsConfig struct {
	Email        string `mapstructure:"email"`
	Password     string `mapstructure:"password"`
	PasswordFile string `mapstructure:"password-file"`
}

type ToolServerConfig struct {
	Command     string        `mapstructure:"command"`
	Args        []string      `mapstructure:"args"`
	Env         []string      `mapstructure:"env"`
	CallTimeout time.Duration `mapstructure:"call-timeout"`
}

type AIConfig struct {
	MinimumFitScore float64       `mapstructure:"minimum-fit-score"`
	MaxRetries      int           `mapstructure:"max-retries"`
	CallTimeout     time.Duration `mapstructure:"call-timeout"`
	Gemini          *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "job-pilot is a cli that analyzes a CV, searches job postings and applies to the relevant ones",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("credentials.password-file", "JOB_PILOT_PASSWORD_FILE"); err != nil {
		log.Fatalf("binding JOB_PILOT_PASSWORD_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is job-pilot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command now. If there is no config, we can skip initialization
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// We can't proceed if the config file parsed with error.
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
