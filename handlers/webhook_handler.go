package handlers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"platChallengesAPI/internal/logger"
	"platChallengesAPI/internal/profile"
)

// Webhooks older or newer than this are rejected as replays.
const webhookTolerance = 5 * time.Minute

const maxWebhookBody = int64(1 << 20)

type ClerkUserSyncer interface {
	SyncClerkUser(ctx context.Context, data json.RawMessage) (*profile.Profile, error)
	DeleteClerkUser(ctx context.Context, data json.RawMessage) error
}

type WebhookHandler struct {
	profileService ClerkUserSyncer
	secret         string
	now            func() time.Time
	log            *logger.Logger
}

// NewWebhookHandler verifies Clerk (svix) signatures with secret. An empty
// secret skips verification and is meant for local development only.
func NewWebhookHandler(profileService ClerkUserSyncer, secret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		profileService: profileService,
		secret:         secret,
		now:            time.Now,
		log:            log.With("handler", "WebhookHandler"),
	}
}

func (h *WebhookHandler) HandleClerkWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Error reading body")
		return
	}

	if err := h.verify(r.Header, body); err != nil {
		h.log.Warn("Invalid webhook signature", "error", err)
		respondWithError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event profile.ClerkWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondWithError(w, http.StatusBadRequest, "Error parsing webhook")
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		_, err = h.profileService.SyncClerkUser(ctx, event.Data)
	case "user.deleted":
		err = h.profileService.DeleteClerkUser(ctx, event.Data)
	default:
		h.log.Debug("Unhandled webhook event type", "type", event.Type)
	}
	if err != nil {
		h.log.Error("Error processing webhook", "type", event.Type, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Error processing webhook")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// verify checks the svix headers: the signed content is "id.timestamp.body",
// the key is the base64 part of the whsec_ secret and the header may list
// several space-separated "v1,<base64>" signatures.
func (h *WebhookHandler) verify(header http.Header, body []byte) error {
	if h.secret == "" {
		return nil
	}

	id := header.Get("svix-id")
	ts := header.Get("svix-timestamp")
	sigs := header.Get("svix-signature")
	if id == "" || ts == "" || sigs == "" {
		return fmt.Errorf("missing signature headers")
	}

	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("bad timestamp: %w", err)
	}
	if d := h.now().Sub(time.Unix(sec, 0)); d > webhookTolerance || d < -webhookTolerance {
		return fmt.Errorf("timestamp outside tolerance")
	}

	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h.secret, "whsec_"))
	if err != nil {
		return fmt.Errorf("bad webhook secret: %w", err)
	}
	expected := signWebhook(key, id, ts, body)

	for _, sig := range strings.Fields(sigs) {
		version, value, ok := strings.Cut(sig, ",")
		if ok && version == "v1" && hmac.Equal([]byte(value), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature")
}

func signWebhook(key []byte, id, ts string, body []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
