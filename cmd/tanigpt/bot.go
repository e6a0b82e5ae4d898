package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tanishk053/tanigpt/internal/audit"
	"github.com/Tanishk053/tanigpt/internal/bot"
	"github.com/Tanishk053/tanigpt/internal/history"
	"github.com/Tanishk053/tanigpt/internal/store"
	"github.com/Tanishk053/tanigpt/internal/telegram"
	"github.com/Tanishk053/tanigpt/providers/mistral"
)

type chatJob struct {
	ChatID     int64
	ExternalID string
	Text       string
}

type chatWorker struct {
	Jobs chan chatJob
}

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the TaniGPT Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := strings.TrimSpace(flagOrViperString(cmd, "telegram-bot-token", "telegram.bot_token"))
			if token == "" {
				return fmt.Errorf("missing telegram.bot_token (set via --telegram-bot-token or TANIGPT_TELEGRAM_BOT_TOKEN)")
			}
			apiKey := strings.TrimSpace(viper.GetString("mistral.api_key"))
			if apiKey == "" {
				return fmt.Errorf("missing mistral.api_key (set via TANIGPT_MISTRAL_API_KEY)")
			}

			logger, err := loggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			dataDir := strings.TrimSpace(flagOrViperString(cmd, "data-dir", "data.dir"))
			if dataDir == "" {
				dataDir = "user_data"
			}
			st, err := store.Open(dataDir)
			if err != nil {
				return err
			}

			client := mistral.New(viper.GetString("mistral.endpoint"), apiKey)
			if d := viper.GetDuration("llm.request_timeout"); d > 0 {
				client.HTTP.Timeout = d
			}
			model := strings.TrimSpace(viper.GetString("model"))

			var auditLog *audit.Logger
			if path := strings.TrimSpace(viper.GetString("audit.path")); path != "" {
				auditLog, err = audit.Open(path, viper.GetInt64("audit.rotate_max_bytes"), logger)
				if err != nil {
					return err
				}
				defer func() { _ = auditLog.Close() }()
			}

			window := history.NewWindow(flagOrViperInt(cmd, "history-max-messages", "history.max_messages"))
			responder := bot.NewResponder(st, client, model, window, logger, auditLog)
			dispatcher := bot.NewDispatcher(st, responder, bot.Config{
				AdminID:       strings.TrimSpace(viper.GetString("admin.user_id")),
				AdminPassword: viper.GetString("admin.password"),
			}, logger)

			baseURL := strings.TrimSpace(flagOrViperString(cmd, "telegram-base-url", "telegram.base_url"))
			tg := telegram.New(nil, baseURL, token)

			me, err := tg.Me(context.Background())
			if err != nil {
				return err
			}

			pollTimeout := flagOrViperDuration(cmd, "telegram-poll-timeout", "telegram.poll_timeout")
			if pollTimeout <= 0 {
				pollTimeout = 30 * time.Second
			}
			maxConc := flagOrViperInt(cmd, "telegram-max-concurrency", "telegram.max_concurrency")
			if maxConc <= 0 {
				maxConc = 3
			}
			sem := make(chan struct{}, maxConc)

			webhookEnabled := viper.GetBool("telegram.webhook.enabled")
			webhookDomain := strings.TrimSpace(viper.GetString("telegram.webhook.domain"))
			if webhookEnabled && webhookDomain == "" {
				return fmt.Errorf("missing telegram.webhook.domain (required when telegram.webhook.enabled)")
			}

			logger.Info("bot_start",
				"bot_username", me.Username,
				"bot_id", me.ID,
				"model", model,
				"data_dir", dataDir,
				"webhook", webhookEnabled,
				"max_concurrency", maxConc,
			)

			var (
				mu      sync.Mutex
				workers = make(map[int64]*chatWorker)
			)

			// Per chat serial, across chats parallel. A chat's messages are
			// handled strictly in arrival order so session state never sees
			// two turns at once.
			getOrStartWorker := func(chatID int64) *chatWorker {
				mu.Lock()
				defer mu.Unlock()
				if w, ok := workers[chatID]; ok && w != nil {
					return w
				}
				w := &chatWorker{Jobs: make(chan chatJob, 16)}
				workers[chatID] = w

				go func() {
					for job := range w.Jobs {
						sem <- struct{}{}
						func() {
							defer func() { <-sem }()

							_ = tg.SendChatAction(context.Background(), job.ChatID, "typing")

							replies := dispatcher.Handle(context.Background(), job.ExternalID, job.Text)
							for _, reply := range replies {
								opts := telegram.SendOptions{
									Keyboard:       reply.Keyboard,
									RemoveKeyboard: reply.RemoveKeyboard,
								}
								if err := tg.SendChunked(context.Background(), job.ChatID, reply.Text, opts); err != nil {
									logger.Warn("telegram_send_error", "chat_id", job.ChatID, "error", err.Error())
								}
							}
						}()
					}
				}()

				return w
			}

			deliver := func(u telegram.Update) {
				msg := u.Message
				if msg == nil {
					msg = u.EditedMessage
				}
				if msg == nil || msg.Chat == nil {
					return
				}
				text := strings.TrimSpace(msg.Text)
				if text == "" {
					return
				}
				externalID := strconv.FormatInt(msg.Chat.ID, 10)
				if msg.From != nil {
					externalID = strconv.FormatInt(msg.From.ID, 10)
				}
				logger.Info("message_enqueued", "chat_id", msg.Chat.ID, "external_id", externalID, "text_len", len(text))
				getOrStartWorker(msg.Chat.ID).Jobs <- chatJob{
					ChatID:     msg.Chat.ID,
					ExternalID: externalID,
					Text:       text,
				}
			}

			if webhookEnabled {
				return serveWebhook(tg, logger, webhookDomain, viper.GetInt("telegram.webhook.port"), deliver)
			}

			// Polling delivery; a previously registered webhook blocks
			// getUpdates, so drop it first.
			if err := tg.DeleteWebhook(context.Background()); err != nil {
				logger.Warn("telegram_delete_webhook_error", "error", err.Error())
			}

			var offset int64
			for {
				updates, nextOffset, err := tg.GetUpdates(context.Background(), offset, pollTimeout)
				if err != nil {
					logger.Warn("telegram_get_updates_error", "error", err.Error())
					time.Sleep(1 * time.Second)
					continue
				}
				offset = nextOffset
				for _, u := range updates {
					deliver(u)
				}
			}
		},
	}

	cmd.Flags().String("telegram-bot-token", "", "Telegram bot token.")
	cmd.Flags().String("telegram-base-url", "https://api.telegram.org", "Telegram API base URL.")
	cmd.Flags().Duration("telegram-poll-timeout", 30*time.Second, "Long polling timeout for getUpdates.")
	cmd.Flags().Int("telegram-max-concurrency", 3, "Max number of chats processed concurrently.")
	cmd.Flags().Int("history-max-messages", 10, "Max chat history messages kept per user.")
	cmd.Flags().String("data-dir", "user_data", "Directory for the user store.")

	return cmd
}

// serveWebhook registers the push endpoint with Telegram and serves it. The
// route embeds the bot token so only Telegram can guess the path.
func serveWebhook(tg *telegram.Client, logger *slog.Logger, domain string, port int, deliver func(telegram.Update)) error {
	if port <= 0 {
		port = 8443
	}
	publicURL := fmt.Sprintf("https://%s/bot/%s", strings.TrimRight(domain, "/"), tg.Token())
	if err := tg.SetWebhook(context.Background(), publicURL); err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/bot/"+tg.Token(), telegram.WebhookHandler(logger, deliver))

	addr := fmt.Sprintf(":%d", port)
	logger.Info("webhook_listen", "addr", addr, "public_url_path", "/bot/<token>")
	return http.ListenAndServe(addr, r)
}
