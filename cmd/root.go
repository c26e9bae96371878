package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobsentinel"
)

type Config struct {
	Search        *SearchConfig        `mapstructure:"search"`
	Skills        []string             `mapstructure:"skills"`
	CVFile        string               `mapstructure:"cv-file"`
	Database      *DatabaseConfig      `mapstructure:"database"`
	Redis         *RedisConfig         `mapstructure:"redis"`
	JobSource     *JobSourceConfig     `mapstructure:"job-source"`
	Scheduler     *SchedulerConfig     `mapstructure:"scheduler"`
	Matching      *MatchingConfig      `mapstructure:"matching"`
	Notifications *NotificationsConfig `mapstructure:"notifications"`
	AI            *AIConfig            `mapstructure:"ai"`
}

// SearchConfig is the ad-hoc search used by the match command. Standing
// searches live in the database as alerts instead.
type SearchConfig struct {
	Keywords         []string `mapstructure:"keywords"`
	Location         string   `mapstructure:"location"`
	Remote           bool     `mapstructure:"remote"`
	ExcludeCompanies []string `mapstructure:"exclude-companies"`
	RedFlags         []string `mapstructure:"red-flags"`
	Limit            int      `mapstructure:"limit"`
}

type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	URLFile string `mapstructure:"url-file"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type JobSourceConfig struct {
	// Kind selects where postings come from: "api" for the remote board
	// or "feed" for the ingested job_feed table.
	Kind      string `mapstructure:"kind"`
	BaseURL   string `mapstructure:"base-url"`
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
}

type SchedulerConfig struct {
	CronSpec   string `mapstructure:"cron-spec"`
	BatchLimit int    `mapstructure:"batch-limit"`
	AdminAddr  string `mapstructure:"admin-addr"`
}

type MatchingConfig struct {
	MinScore  int `mapstructure:"min-score"`
	TopN      int `mapstructure:"top-n"`
	PoolLimit int `mapstructure:"pool-limit"`

	// Synonyms and Fields extend the built-in normalization and field
	// tables without recompiling.
	Synonyms map[string][]string `mapstructure:"synonyms"`
	Fields   map[string][]string `mapstructure:"fields"`
}

type NotificationsConfig struct {
	SeenTTLDays int `mapstructure:"seen-ttl-days"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobsentinel matches job postings against your skills and keeps standing alerts fresh",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("database.url-file", "DATABASE_URL_FILE"); err != nil {
		log.Fatalf("binding DATABASE_URL_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("job-source.token-file", "JOB_API_TOKEN_FILE"); err != nil {
		log.Fatalf("binding JOB_API_TOKEN_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobsentinel.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config is needed only for the match and watch commands.
	if matchCmd.CalledAs() == "" && watchCmd.CalledAs() == "" {
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
