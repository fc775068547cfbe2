package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	config "github.com/revoshq/podengine/configs"
	"github.com/revoshq/podengine/internal/transfer"
)

// Client is the remote automation capability. The pipeline only schedules and
// records; the provider performs the actual repost / DM on the host platform.
type Client interface {
	Repost(ctx context.Context, profileID, postURL string) (json.RawMessage, error)
	SendDirectMessage(ctx context.Context, profileID, recipientURN, message string) (json.RawMessage, error)
	ListInvitations(ctx context.Context, accessToken string, limit int) ([]transfer.Invitation, error)
}

type httpClient struct {
	cfg    config.Config
	client *http.Client
}

func NewClient(cfg config.Config) Client {
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *httpClient) Repost(ctx context.Context, profileID, postURL string) (json.RawMessage, error) {
	body := transfer.RepostRequest{ProfileID: profileID, PostURL: postURL}
	return c.post(ctx, "/v1/reposts", body)
}

func (c *httpClient) SendDirectMessage(ctx context.Context, profileID, recipientURN, message string) (json.RawMessage, error) {
	body := transfer.DirectMessageRequest{ProfileID: profileID, RecipientURN: recipientURN, Message: message}
	return c.post(ctx, "/v1/messages", body)
}

func (c *httpClient) ListInvitations(ctx context.Context, accessToken string, limit int) ([]transfer.Invitation, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ProviderBaseURL+"/v1/invitations/received?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("X-Account-Token", accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFromResponse(resp)
	}

	var list transfer.InvitationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to decode invitation list: %w", err)
	}
	return list.Items, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ProviderBaseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, apiErrorFromResponse(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.ProviderAPIKey)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
}

func apiErrorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body transfer.ProviderError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}
	return apiErr
}
