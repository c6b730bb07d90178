package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/mint-cli/config"
	"github.com/otherjamesbrown/mint-cli/credentials"
	"github.com/otherjamesbrown/mint-cli/pkg/capability"
	"github.com/otherjamesbrown/mint-cli/pkg/db"
	"github.com/otherjamesbrown/mint-cli/pkg/logging"
	"github.com/otherjamesbrown/mint-cli/pkg/reporting"
	"github.com/otherjamesbrown/mint-cli/pkg/tracker"
)

// loadConfig loads the CLI configuration and applies a per-command
// --output override when set.
func loadConfig(outputFlag string) (*config.CLIConfig, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if outputFlag != "" {
		format := config.OutputFormat(outputFlag)
		if !format.IsValid() {
			return nil, fmt.Errorf("invalid output format %q (must be text, json, or yaml)", outputFlag)
		}
		cfg.OutputFormat = format
	}
	return cfg, nil
}

// databaseConfig builds the connection config from environment, config file
// and the credentials store, in that precedence order for the password.
func databaseConfig(cfg *config.CLIConfig) *db.Config {
	dbCfg := db.ConfigFromEnv()

	if cfg != nil {
		if cfg.Database.Host != "" {
			dbCfg.Host = cfg.Database.Host
		}
		if cfg.Database.Port != 0 {
			dbCfg.Port = cfg.Database.Port
		}
		if cfg.Database.Database != "" {
			dbCfg.Database = cfg.Database.Database
		}
		if cfg.Database.User != "" {
			dbCfg.User = cfg.Database.User
		}
		if cfg.Database.SSLMode != "" {
			dbCfg.SSLMode = cfg.Database.SSLMode
		}
	}

	if dbCfg.Password == "" {
		if store, err := credentials.NewStore(); err == nil {
			if pw, err := store.DatabasePassword(); err == nil {
				dbCfg.Password = pw
			}
		}
	}

	return dbCfg
}

// connectToDatabase establishes a database connection pool.
func connectToDatabase(ctx context.Context, cfg *config.CLIConfig) (*pgxpool.Pool, error) {
	return db.Connect(ctx, databaseConfig(cfg))
}

// openRepository connects and wraps the pool in a tracker repository.
// The caller owns the returned pool and must Close it.
func openRepository(ctx context.Context, cfg *config.CLIConfig, logger logging.Logger) (*tracker.Repository, *pgxpool.Pool, error) {
	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return tracker.NewRepository(pool, logger), pool, nil
}

// openReporting builds the read-only reporting client.
func openReporting(cfg *config.CLIConfig) (*reporting.Client, error) {
	return reporting.NewClient(databaseConfig(cfg).ConnectionString(),
		reporting.WithLogger(newCommandLogger(cfg)))
}

// connectToRedis establishes a Redis connection for the meeting queue.
func connectToRedis(ctx context.Context, cfg *config.CLIConfig) (*redis.Client, error) {
	password := ""
	if store, err := credentials.NewStore(); err == nil {
		if pw, err := store.RedisPassword(); err == nil {
			password = pw
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("testing connection: %w", err)
	}

	return client, nil
}

// newModelHost builds the capability client from configuration.
func newModelHost(cfg *config.CLIConfig) *capability.ModelHost {
	return capability.NewModelHost(capability.HostConfig{
		BaseURL: cfg.ModelHost.BaseURL,
		Timeout: cfg.ModelHost.Timeout,
	})
}

// newCommandLogger builds the logger for interactive commands. Debug mode
// switches to verbose human-readable output.
func newCommandLogger(cfg *config.CLIConfig) logging.Logger {
	logCfg := logging.DefaultConfig()
	if cfg != nil && cfg.Debug {
		logCfg.Level = logging.LevelDebug
	} else {
		logCfg.Level = logging.LevelWarn
	}
	return logging.NewLogger(logCfg)
}

// renderOutput writes v in the requested format. The text function is called
// for the human-readable default.
func renderOutput(w io.Writer, format config.OutputFormat, v interface{}, text func(io.Writer) error) error {
	switch format {
	case config.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// formatDeadline renders a deadline with days remaining, or "-" when unset.
func formatDeadline(deadline *time.Time) string {
	if deadline == nil {
		return "-"
	}
	days := int(time.Until(*deadline).Hours() / 24)
	if days < 0 {
		return fmt.Sprintf("%s (%dd overdue)", deadline.Format("2006-01-02"), -days)
	}
	return fmt.Sprintf("%s (%dd)", deadline.Format("2006-01-02"), days)
}

// truncateText shortens s to max runes with an ellipsis.
func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// parseActionID parses a positional action ID argument.
func parseActionID(arg string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil || id <= 0 {
		return 0, errors.New("action ID must be a positive integer")
	}
	return id, nil
}
