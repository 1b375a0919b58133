package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/smart-hr/internal/ai/gemini"
	"github.com/spigell/smart-hr/internal/auth"
	"github.com/spigell/smart-hr/internal/errors"
	"github.com/spigell/smart-hr/internal/logger"
	"github.com/spigell/smart-hr/internal/memory"
	"github.com/spigell/smart-hr/internal/secrets"
	"github.com/spigell/smart-hr/internal/store"
	"github.com/spigell/smart-hr/internal/tools"
)

// setup builds the logger and the config every command starts from.
func setup() (*zap.Logger, *Config) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redacted(*config), "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return logger, config
}

// redacted hides inline secrets from the debug dump.
func redacted(c Config) Config {
	if c.Auth.JWTSecret != "" {
		c.Auth.JWTSecret = "***"
	}
	if c.AI.Gemini != nil && c.AI.Gemini.APIKey != "" {
		g := *c.AI.Gemini
		g.APIKey = "***"
		c.AI.Gemini = &g
	}
	return c
}

func openStore(ctx context.Context, cfg *Config, logger *zap.Logger, migrate bool) (*store.Store, error) {
	db, err := store.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	s := store.New(db, logger)
	if migrate {
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func newAuthManager(cfg *Config) (*auth.Manager, error) {
	secret, err := secrets.Load(secrets.Source{
		Name:  "jwt secret",
		File:  cfg.Auth.JWTSecretFile,
		Env:   "JWT_SECRET",
		Value: cfg.Auth.JWTSecret,
	})
	if err != nil {
		return nil, errors.WithHint(err, "set auth.jwt-secret-file, SMARTHR_AUTH_JWT_SECRET or JWT_SECRET")
	}
	return auth.NewManager(secret, cfg.Auth.TokenTTL)
}

func newPipeline(ctx context.Context, cfg *Config, toolset *tools.Toolset, logger *zap.Logger) (*gemini.Pipeline, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, errors.Newf("unsupported ai provider %q", cfg.AI.Provider)
	}

	g := cfg.AI.Gemini
	opts := gemini.Options{
		Backend:      g.Backend,
		Project:      g.Project,
		Location:     g.Location,
		Model:        g.Model,
		MaxRetries:   g.MaxRetries,
		MaxLogLength: g.MaxLogLength,
	}

	if !strings.EqualFold(strings.TrimSpace(g.Backend), gemini.BackendVertex) {
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  g.APIKeyFile,
			Env:   "GEMINI_API_KEY",
			Value: g.APIKey,
		})
		if err != nil {
			return nil, errors.WithHint(err, "set ai.gemini.api-key-file or GEMINI_API_KEY")
		}
		opts.APIKey = apiKey
	}

	generator, err := gemini.NewGenerator(ctx, opts, logger.Named("gemini"))
	if err != nil {
		return nil, err
	}

	mem, err := memory.New(cfg.Chat.Memory)
	if err != nil {
		return nil, err
	}

	data := gemini.NewDataAgent(generator, toolset, cfg.Chat.MaxSteps, logger)
	formatter := gemini.NewFormatter(generator, logger)
	return gemini.NewPipeline(data, formatter, mem, logger), nil
}

func addCallerFlags(cmd *cobra.Command) {
	cmd.Flags().String("owner", "", "owner (employer) id to act for")
	cmd.Flags().String("name", "", "first name of the acting user")
	cmd.Flags().String("company", "", "company of the acting user")
	cmd.MarkFlagRequired("owner")
}

func callerFromFlags(cmd *cobra.Command) tools.Caller {
	owner, _ := cmd.Flags().GetString("owner")
	name, _ := cmd.Flags().GetString("name")
	company, _ := cmd.Flags().GetString("company")
	return tools.Caller{
		OwnerID:   strings.TrimSpace(owner),
		FirstName: strings.TrimSpace(name),
		Company:   strings.TrimSpace(company),
	}
}
