package telegram

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// WebhookHandler decodes pushed updates and hands them to deliver. The
// route it is mounted on should embed the bot token so only Telegram can
// guess the path.
func WebhookHandler(logger *slog.Logger, deliver func(Update)) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var update Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			logger.Warn("telegram_webhook_decode_error", "error", err.Error())
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		deliver(update)
		w.WriteHeader(http.StatusOK)
	}
}
