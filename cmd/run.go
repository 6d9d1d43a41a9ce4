package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentscout/intake-assistant/internal/ai"
	"github.com/talentscout/intake-assistant/internal/ai/gemini"
	"github.com/talentscout/intake-assistant/internal/intake"
	"github.com/talentscout/intake-assistant/internal/logger"
	"github.com/talentscout/intake-assistant/internal/questions"
	"github.com/talentscout/intake-assistant/internal/secrets"
	"github.com/talentscout/intake-assistant/internal/session"
	"github.com/talentscout/intake-assistant/internal/store"
)

const (
	defaultDataDir     = "candidate_data"
	defaultMinInterval = time.Second
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interactive intake interview",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("no-save", false, "do not persist the candidate record")
	runCmd.Flags().String("data-dir", "", "directory for candidate records. Default is ./"+defaultDataDir)

	viper.BindPFlag("data-dir", runCmd.Flags().Lookup("data-dir"))
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

	logger.Info("starting the intake-assistant", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	completer, cache, err := buildCompleter(ctx, config, logger)
	if err != nil {
		logger.Fatal(
			"building the model client",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE or the 'ai.gemini.api-key-file' key in the configuration file"),
		)
	}

	gem := geminiConfig(config)
	generator := questions.New(completer, logger, gem.MaxLogLength)
	interviewer := intake.New(completer, generator, logger, config.HistoryWindow, gem.MaxLogLength)

	var records *store.Store
	if cmd.Flag("no-save").Value.String() == "true" {
		logger.Info("running without persistence", zap.String("reason", "no-save flag is set"))
	} else {
		records, err = buildStore(config, logger)
		if err != nil {
			logger.Fatal("building the candidate store", zap.Error(err))
		}
	}

	s := session.New()
	fmt.Printf("%s\n\n", session.WelcomeMessage)

	prompt := promptui.Prompt{
		Label: "You",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("say something")
			}
			return nil
		},
	}

	for !s.Complete {
		input, err := prompt.Run()
		if err != nil {
			// ^C or ^D ends the interview without a farewell.
			logger.Info("input closed", zap.Error(err))
			break
		}

		messages, err := interviewer.SubmitUserTurn(ctx, s, input)
		if err != nil {
			logger.Fatal("processing the turn", zap.Error(err))
		}

		for _, message := range messages {
			fmt.Printf("\n%s\n\n", message)
		}

		if records != nil && s.CheckpointReady() {
			if path, err := records.Save(&s.Profile, s.History); err != nil {
				logger.Warn("checkpoint save failed", zap.Error(err))
			} else {
				s.MarkCheckpointed()
				logger.Debug("checkpoint saved", zap.String("path", path))
			}
		}
	}

	if records != nil {
		path, err := records.Save(&s.Profile, s.History)
		if err != nil {
			logger.Error("saving the candidate record", zap.Error(err))
		} else {
			logger.Info("candidate record saved", zap.String("path", path))
		}
	}

	if cache != nil {
		hits, misses := cache.Stats()
		logger.Debug("completion cache stats", zap.Int("hits", hits), zap.Int("misses", misses))
	}
}

// buildCompleter assembles the model-call chain: the Gemini client at
// the bottom, a minimum-interval rate limiter above it and the response
// cache on top, so cache hits skip the rate limiter entirely.
func buildCompleter(ctx context.Context, config *Config, logger *zap.Logger) (ai.Completer, *ai.CachingCompleter, error) {
	var aiCfg AIConfig
	if config.AI != nil {
		aiCfg = *config.AI
	}

	provider := strings.TrimSpace(strings.ToLower(aiCfg.Provider))
	if provider != "" && provider != gemini.Provider {
		return nil, nil, fmt.Errorf("unsupported ai provider: %s", aiCfg.Provider)
	}

	gem := geminiConfig(config)

	apiKeyFile := strings.TrimSpace(gem.APIKeyFile)
	if apiKeyFile == "" {
		apiKeyFile = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  apiKeyFile,
		Value: viper.GetString("gemini-api-key"),
	})
	if err != nil {
		return nil, nil, err
	}

	client, err := gemini.New(ctx, apiKey, gem.Model, gem.MaxRetries, gem.MaxLogLength, logger)
	if err != nil {
		return nil, nil, err
	}

	var completer ai.Completer = client

	if config.RateLimit == nil || config.RateLimit.Enabled {
		interval := defaultMinInterval
		if config.RateLimit != nil && config.RateLimit.MinInterval > 0 {
			interval = config.RateLimit.MinInterval
		}
		completer = ai.NewRateLimitedCompleter(completer, interval)
	}

	var cache *ai.CachingCompleter
	if config.Cache == nil || config.Cache.Enabled {
		capacity := 0
		if config.Cache != nil {
			capacity = config.Cache.Capacity
		}
		cache = ai.NewCachingCompleter(completer, capacity, logger)
		completer = cache
	}

	return completer, cache, nil
}

func buildStore(config *Config, logger *zap.Logger) (*store.Store, error) {
	key, err := resolveEncryptionKey(config)
	if err != nil {
		generated, genErr := store.GenerateKey()
		if genErr != nil {
			return nil, genErr
		}
		key = generated
		logger.Warn("using an ephemeral encryption key",
			zap.Error(err),
			zap.String("hint", "set encryption-key-file or INTAKE_ENCRYPTION_KEY to read saved records after exit"),
		)
	}

	dir := strings.TrimSpace(viper.GetString("data-dir"))
	if dir == "" {
		dir = strings.TrimSpace(config.DataDir)
	}
	if dir == "" {
		dir = defaultDataDir
	}

	return store.New(dir, key, logger)
}

func resolveEncryptionKey(config *Config) ([]byte, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "encryption key",
		File:  config.EncryptionKeyFile,
		Value: viper.GetString("encryption-key"),
	})
	if err != nil {
		return nil, err
	}
	return []byte(key), nil
}

func geminiConfig(config *Config) GeminiConfig {
	if config.AI == nil || config.AI.Gemini == nil {
		return GeminiConfig{}
	}
	return *config.AI.Gemini
}
