package transfer

import "time"

type RepostRequest struct {
	ProfileID string `json:"profile_id"`
	PostURL   string `json:"post_url"`
}

type DirectMessageRequest struct {
	ProfileID    string `json:"profile_id"`
	RecipientURN string `json:"recipient_urn"`
	Message      string `json:"message"`
}

type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Invitation struct {
	InvitationURN string    `json:"invitation_urn"`
	SenderURN     string    `json:"sender_urn"`
	SenderName    string    `json:"sender_name"`
	Note          string    `json:"note"`
	ReceivedAt    time.Time `json:"received_at"`
}

type InvitationListResponse struct {
	Items []Invitation   `json:"items"`
	Error *ProviderError `json:"error,omitempty"`
}
