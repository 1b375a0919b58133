package cmd

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/smart-hr/internal/api"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/memory"
	"github.com/spigell/smart-hr/internal/store"
)

const (
	app       = "smart-hr"
	envPrefix = "SMARTHR"
)

type Config struct {
	Server   api.Config   `mapstructure:"server"`
	Database store.Config `mapstructure:"database"`
	Auth     AuthConfig   `mapstructure:"auth"`
	AI       AIConfig     `mapstructure:"ai"`
	Chat     ChatConfig   `mapstructure:"chat"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt-secret"`
	JWTSecretFile string        `mapstructure:"jwt-secret-file"`
	TokenTTL      time.Duration `mapstructure:"token-ttl"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Backend      string `mapstructure:"backend"`
	Project      string `mapstructure:"project"`
	Location     string `mapstructure:"location"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ChatConfig struct {
	MaxSteps int           `mapstructure:"max-steps"`
	Memory   memory.Config `mapstructure:"memory"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "smart-hr is a recruiting assistant: a job board API with a chat agent over your hiring data",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is smart-hr.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	setDefaults()
}

// setDefaults registers every key so that SMARTHR_* variables reach Unmarshal.
func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.read-header-timeout", 10*time.Second)
	viper.SetDefault("server.shutdown-timeout", 10*time.Second)
	viper.SetDefault("server.allowed-origins", []string{})
	viper.SetDefault("server.chat-per-minute", 20)
	viper.SetDefault("server.chat-burst", 5)

	viper.SetDefault("database.driver", store.DriverSQLite)
	viper.SetDefault("database.dsn", app+".db")
	viper.SetDefault("database.max-open-conns", 0)
	viper.SetDefault("database.log-sql", false)

	viper.SetDefault("auth.jwt-secret", "")
	viper.SetDefault("auth.jwt-secret-file", "")
	viper.SetDefault("auth.token-ttl", 24*time.Hour)

	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.backend", "gemini")
	viper.SetDefault("ai.gemini.project", "")
	viper.SetDefault("ai.gemini.location", "")
	viper.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.max-retries", 3)
	viper.SetDefault("ai.gemini.max-log-length", 200)

	viper.SetDefault("chat.max-steps", 6)
	viper.SetDefault("chat.memory.size", 1024)
	viper.SetDefault("chat.memory.ttl", 30*time.Minute)
	viper.SetDefault("chat.memory.max-turns", 20)
}

func initConfig() {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every command can run on defaults and environment, but an explicit or broken config is fatal.
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

	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}
