package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/euthlabs/euth/adapters/events"
	"github.com/euthlabs/euth/adapters/store"
	"github.com/euthlabs/euth/adapters/tokenizer"
	"github.com/euthlabs/euth/ports"
	"github.com/euthlabs/euth/service"
	transporthttp "github.com/euthlabs/euth/transport/http"
)

type config struct {
	Listen          string `koanf:"listen"`
	RedisURL        string `koanf:"redis-url"`
	ConsumeGestures bool   `koanf:"consume-gestures"`
	LogLevel        string `koanf:"log-level"`
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the HTTP service and, unless disabled, the gesture stream pump
that consumes classified gesture events from the message bus.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("listen", ":9000", "HTTP listen address")
	cmd.Flags().String("redis-url", "", "Redis URL; empty selects the in-memory store and channel pub/sub")
	cmd.Flags().Bool("consume-gestures", true, "consume gesture events from the message bus")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

// loadConfig merges the optional YAML config file with flag overrides.
func loadConfig(flags *pflag.FlagSet) (config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return config{}, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg config
	if err := k.Unmarshal("", &cfg); err != nil {
		return config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}

	return cfg, nil
}

func serve(ctx context.Context, cfg config) error {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)
	wmLogger := watermill.NewSlogLogger(logger)

	// Generate a new ECDSA key pair (you would normally load this from
	// somewhere secure)
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	var (
		sessionStore ports.SessionStore
		publisher    message.Publisher
		subscriber   message.Subscriber
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}

		sessionStore = store.NewRedisStore(client)

		pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, wmLogger)
		if err != nil {
			return fmt.Errorf("failed to create Redis publisher: %w", err)
		}
		sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "euthd",
		}, wmLogger)
		if err != nil {
			return fmt.Errorf("failed to create Redis subscriber: %w", err)
		}
		publisher, subscriber = pub, sub

		logger.Info("using redis store and event bus")
	} else {
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		sessionStore = store.NewMemoryStore()
		publisher, subscriber = pubSub, pubSub

		logger.Info("using in-memory store and channel pub/sub")
	}

	authService := service.NewAuthService(
		sessionStore,
		tokenizer.NewJWTTokenizer(privateKey),
		events.NewWatermillPublisher(publisher),
		logger,
	)

	if cfg.ConsumeGestures {
		source := events.NewWatermillSource(subscriber, logger)
		go func() {
			if err := authService.Run(ctx, source); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("gesture pump stopped", "error", err)
			}
		}()
	}

	router := transporthttp.SetupRouter(authService)

	logger.Info("listening", "addr", cfg.Listen)
	return router.Run(cfg.Listen)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
