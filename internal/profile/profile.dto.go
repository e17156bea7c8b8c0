package profile

import "encoding/json"

// ClerkWebhookEvent is the envelope Clerk posts to the webhook endpoint.
type ClerkWebhookEvent struct {
	Type   string          `json:"type"`
	Object string          `json:"object"`
	Data   json.RawMessage `json:"data"`
}

// ClerkUserData is the subset of a Clerk user object the service reads. The
// PSN online id and time zone live in the user's public metadata.
type ClerkUserData struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Deleted        bool   `json:"deleted"`
	PublicMetadata struct {
		OnlineID string `json:"online_id"`
		Timezone string `json:"timezone"`
	} `json:"public_metadata"`
}

type UpsertProfileRequest struct {
	ClerkID  string `json:"clerk_id"`
	OnlineID string `json:"online_id"`
	Timezone string `json:"timezone"`
}
