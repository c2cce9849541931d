package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"

	"github.com/moogar0880/problems"

	"github.com/awantoch/flowbridge/constants"
	"github.com/awantoch/flowbridge/event"
	"github.com/awantoch/flowbridge/telemetry"
	"github.com/awantoch/flowbridge/utils"
)

const maxUpdateBody = 1 << 20

// WebhookHandler receives updates pushed by Telegram and publishes them to
// the event bus. When secret is set, deliveries must carry it in the
// X-Telegram-Bot-Api-Secret-Token header.
func WebhookHandler(bus event.EventBus, secret string) http.HandlerFunc {
	if secret == "" {
		utils.Warn("Telegram webhook secret not set, deliveries are not verified")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if secret != "" {
			got := r.Header.Get(constants.HeaderTelegramSecret)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				utils.Warn("rejected telegram webhook with invalid secret from %s", r.RemoteAddr)
				writeProblem(w, r, http.StatusUnauthorized, "invalid secret token")
				return
			}
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBody))
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "failed to read body")
			return
		}
		var update Update
		if err := json.Unmarshal(body, &update); err != nil {
			writeProblem(w, r, http.StatusBadRequest, "invalid update: "+err.Error())
			return
		}

		if err := bus.Publish(r.Context(), constants.TopicTelegramUpdate, body); err != nil {
			utils.Error("failed to publish telegram update %d: %v", update.UpdateID, err)
			writeProblem(w, r, http.StatusInternalServerError, "failed to queue update")
			return
		}
		telemetry.ObserveTelegramUpdate(SourceWebhook)
		w.WriteHeader(http.StatusOK)
	}
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	problem := problems.NewStatusProblem(status).WithInstance(r.URL.Path).WithDetail(detail)
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeProblem)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}
