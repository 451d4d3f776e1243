// Worker consumes session lifecycle events from Kafka and logs them.
// Set KAFKA_BROKERS; KAFKA_LOGIN_TOPIC, KAFKA_LOGOUT_TOPIC, and
// KAFKA_GROUP_ID have defaults.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"auth-session-service/internal/config"
	"auth-session-service/internal/events"
	"auth-session-service/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("auth-session-worker").Error("config", "error", err)
		os.Exit(1)
	}
	log := logging.New("auth-session-worker")

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	handlers := map[string]events.Handler{
		cfg.LoginTopic: func(_ context.Context, message []byte) error {
			var ev events.LoginEvent
			if err := json.Unmarshal(message, &ev); err != nil {
				return fmt.Errorf("decode login event: %w", err)
			}
			// The token inside the event never reaches the log.
			log.Info("user logged in",
				"account_id", ev.AccountID,
				"email", ev.Email,
				"session_id", ev.SessionID,
				"active_sessions", ev.ActiveSessions,
				"at", ev.Timestamp)
			return nil
		},
		cfg.LogoutTopic: func(_ context.Context, message []byte) error {
			// Both single and bulk logout arrive on this topic; the event
			// field tells them apart.
			var probe struct {
				Event string `json:"event"`
			}
			if err := json.Unmarshal(message, &probe); err != nil {
				return fmt.Errorf("decode logout event: %w", err)
			}
			switch probe.Event {
			case events.EventUserLogoutAll:
				var ev events.LogoutAllEvent
				if err := json.Unmarshal(message, &ev); err != nil {
					return fmt.Errorf("decode logout_all event: %w", err)
				}
				log.Info("user logged out everywhere",
					"account_id", ev.AccountID,
					"sessions_terminated", ev.SessionsTerminated,
					"at", ev.Timestamp)
			case events.EventUserLogout:
				var ev events.LogoutEvent
				if err := json.Unmarshal(message, &ev); err != nil {
					return fmt.Errorf("decode logout event: %w", err)
				}
				log.Info("user logged out",
					"account_id", ev.AccountID,
					"session_id", ev.SessionID,
					"at", ev.Timestamp)
			default:
				return fmt.Errorf("unknown event %q", probe.Event)
			}
			return nil
		},
	}

	consumer := events.NewConsumer(brokers, cfg.KafkaGroupID, handlers, log)
	defer func() { _ = consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		cancel()
	}()

	log.Info("consuming lifecycle events",
		"brokers", brokers,
		"group", cfg.KafkaGroupID,
		"topics", []string{cfg.LoginTopic, cfg.LogoutTopic})
	consumer.Run(ctx)
	log.Info("stopped")
}
