package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"match-service/internal/app"
	"match-service/internal/auth"
	"match-service/internal/config"
	"match-service/internal/db"
	"match-service/internal/grpcserver"
	"match-service/internal/handlers"
	"match-service/internal/kafka"
	"match-service/internal/matching"
	"match-service/internal/middleware"
	"match-service/internal/notify"
	"match-service/internal/rabbitmq"
	"match-service/internal/redis"
	"match-service/internal/repositories"
	"match-service/internal/telemetry"
	"match-service/internal/ws"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "match-service",
		Short:         "Match reconciliation and notification fan-out service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (default ./config.yaml)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, WebSocket and gRPC health servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			database, err := db.Connect(cmd.Context(), cfg.Database.DSN, 1, true)
			if err != nil {
				return err
			}
			return database.Close()
		},
	})

	var tokenUser int64
	var tokenTTL time.Duration
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Print a signed access token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if tokenUser <= 0 {
				return errors.New("--user is required")
			}
			token, err := auth.NewValidator(cfg.Auth.JWTSecret, nil).GenerateToken(tokenUser, tokenTTL)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	tokenCmd.Flags().Int64Var(&tokenUser, "user", 0, "user id to issue the token for")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	cmd.AddCommand(tokenCmd)

	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Environment, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer shutdownWithTimeout(shutdownTracing)

	database, err := db.Connect(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns, true)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer database.Close()

	var blacklist auth.TokenBlacklist
	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func(c *goredis.Client) { _ = c.Close() }(client)
		blacklist = redis.NewTokenBlacklist(client)
		log.Printf("token blacklist enabled redis=%s", cfg.Redis.Addr)
	}
	validator := auth.NewValidator(cfg.Auth.JWTSecret, blacklist)

	// Audit records and websocket lifecycle events always go through AMQP
	// when a URL is configured; the publisher degrades to a noop otherwise.
	events := rabbitmq.NewPublisher(cfg.Notify.AMQP.URL, cfg.Notify.AMQP.Exchange)
	defer events.Close()
	log.Printf("event publisher mode=%s reason=%q", rabbitmq.PublisherMode(events), rabbitmq.PublisherNoopReason(events))
	audit := telemetry.NewAuditEmitter(events, cfg.Telemetry.AuditRoutingKey, cfg.Telemetry.ServiceName, cfg.Telemetry.Environment)

	hub := ws.NewHub(
		ws.WithEventSink(events),
		ws.WithDedupHistory(cfg.WebSocket.DedupHistory),
		ws.WithWriteWait(cfg.WebSocket.WriteWait),
		ws.WithPongWait(cfg.WebSocket.PongWait),
	)

	matchRepo := repositories.NewMatchRepo(database)
	userRepo := repositories.NewUserRepo(database)
	blockRepo := repositories.NewBlockRepo(database)
	reportRepo := repositories.NewReportRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	conversationRepo := repositories.NewConversationRepo(database)
	accountRepo := repositories.NewAccountRepo(database)

	transport, transportName, stopTransport, err := startTransport(ctx, cfg, events, hub)
	if err != nil {
		return err
	}
	defer stopTransport()
	log.Printf("notification transport=%s", transportName)

	fanout := notify.NewFanout(notificationRepo, transport, transportName, hub)
	engine := matching.NewEngine(
		matchRepo,
		repositories.Directory{Users: userRepo, Blocks: blockRepo},
		fanout,
		matching.WithMaxAttempts(cfg.Match.MaxAttempts),
		matching.WithNotifyTimeout(cfg.Match.NotifyTimeout),
	)

	router := app.NewRouter(app.Handlers{
		Match:          handlers.NewMatchHandler(engine, matchRepo),
		Moderation:     handlers.NewModerationHandler(userRepo, blockRepo, reportRepo, audit),
		Account:        handlers.NewAccountHandler(accountRepo, hub, validator, audit),
		Notification:   handlers.NewNotificationHandler(notificationRepo),
		Chat:           handlers.NewChatHandler(conversationRepo, messageRepo, hub),
		NotificationWS: ws.NewNotificationWebSocketHandler(hub, validator),
		ChatWS:         ws.NewChatWebSocketHandler(hub, conversationRepo, validator),
	}, middleware.AuthMiddleware(validator), app.RouterOptions{
		ServiceName: cfg.Telemetry.ServiceName,
		DebugRoutes: cfg.Server.DebugRoutes,
		Audit:       audit,
		Health:      database.PingContext,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID", "X-Device-ID"},
		AllowCredentials: true,
	}).Handler(router)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           corsHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	health := grpcserver.New()
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", cfg.Server.GRPCAddr, err)
	}
	go func() {
		if err := health.Serve(lis); err != nil {
			log.Printf("grpc server stopped: %v", err)
		}
	}()
	go health.Watch(ctx, 15*time.Second, database.PingContext)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("http listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down")
	case err := <-errCh:
		health.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	health.Stop()
	return nil
}

// startTransport wires the broker used for notification fan-out. With no
// broker, or when AMQP could not be reached, events go straight to the
// local hub.
func startTransport(ctx context.Context, cfg config.Config, events rabbitmq.Publisher, hub *ws.Hub) (notify.Transport, string, func(), error) {
	switch cfg.Notify.Transport {
	case config.TransportAMQP:
		if rabbitmq.PublisherMode(events) != "amqp" {
			log.Printf("amqp transport unavailable, delivering locally")
			return nil, config.TransportNone, func() {}, nil
		}
		consumer, err := rabbitmq.NewConsumer(cfg.Notify.AMQP.URL, cfg.Notify.AMQP.Exchange, cfg.Notify.AMQP.Queue, hub)
		if err != nil {
			return nil, "", nil, err
		}
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Printf("rabbitmq consumer stopped: %v", err)
			}
		}()
		return events, config.TransportAMQP, func() { _ = consumer.Close() }, nil

	case config.TransportKafka:
		producer, err := kafka.NewProducer(cfg.Notify.Kafka)
		if err != nil {
			return nil, "", nil, err
		}
		consumer, err := kafka.NewConsumer(cfg.Notify.Kafka, instanceID(), hub)
		if err != nil {
			_ = producer.Close()
			return nil, "", nil, err
		}
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Printf("kafka consumer stopped: %v", err)
			}
		}()
		return producer, config.TransportKafka, func() {
			_ = consumer.Close()
			_ = producer.Close()
		}, nil

	default:
		return nil, config.TransportNone, func() {}, nil
	}
}

func instanceID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host + "-" + uuid.NewString()[:8]
	}
	return uuid.NewString()
}

func shutdownWithTimeout(fn telemetry.ShutdownFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}
