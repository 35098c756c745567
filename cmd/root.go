package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/jobmatch/internal/filtering"
	"github.com/spigell/jobmatch/internal/linkedin"
	"github.com/spigell/jobmatch/internal/ranking"
	"github.com/spigell/jobmatch/internal/resume"
	"github.com/spigell/jobmatch/internal/scoring"
	"github.com/spigell/jobmatch/internal/server"
)

const (
	app = "jobmatch"
)

type Config struct {
	Search  SearchConfig     `mapstructure:"search"`
	Resume  ResumeConfig     `mapstructure:"resume"`
	Scrape  ScrapeConfig     `mapstructure:"scrape"`
	Scoring scoring.Options  `mapstructure:"scoring"`
	Rank    ranking.Options  `mapstructure:"rank"`
	Output  OutputConfig     `mapstructure:"output"`
	Filters filtering.Config `mapstructure:"filters"`
	AI      *AIConfig        `mapstructure:"ai"`
	Serve   server.Options   `mapstructure:"serve"`
	S3      resume.S3Options `mapstructure:"s3"`
}

type SearchConfig struct {
	Keywords     string        `mapstructure:"keywords"`
	Location     string        `mapstructure:"location"`
	WorkTypes    []string      `mapstructure:"work-types"`
	Count        int           `mapstructure:"count"`
	PostedWithin time.Duration `mapstructure:"posted-within"`
	// Years overrides the experience found in the résumé. Negative keeps it.
	Years float64 `mapstructure:"years"`
}

type ResumeConfig struct {
	// Path is a local file or an s3://bucket/key URI.
	Path       string        `mapstructure:"path"`
	Vocabulary []resume.Term `mapstructure:"vocabulary"`
}

type ScrapeConfig struct {
	linkedin.Options `mapstructure:",squash"`

	Browser        bool          `mapstructure:"browser"`
	BrowserTimeout time.Duration `mapstructure:"browser-timeout"`
}

type OutputConfig struct {
	CSV string `mapstructure:"csv"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key" json:"-"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch scrapes LinkedIn job listings and ranks them against your résumé",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"resume.path":            "JOBMATCH_RESUME",
		"s3.endpoint":            "JOBMATCH_S3_ENDPOINT",
		"s3.region":              "JOBMATCH_S3_REGION",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("search.years", -1)
	viper.SetDefault("output.csv", "matched_jobs.csv")
	viper.SetDefault("serve.listen", ":8080")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().Bool("browser", false, "render pages in headless Chrome instead of plain HTTP")
	rootCmd.PersistentFlags().StringP("exclude-file", "e", "", "special file with listings to exclude. Default is unset.")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("scrape.browser", rootCmd.PersistentFlags().Lookup("browser"))
	viper.BindPFlag("filters.exclude-file", rootCmd.PersistentFlags().Lookup("exclude-file"))
}

func initConfig() {
	// Only run and serve read the config.
	if runCmd.CalledAs() == "" && serveCmd.CalledAs() == "" {
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Everything can come from flags, so only an explicit config must exist.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}

	return config, nil
}
