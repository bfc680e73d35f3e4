package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/config"
)

// RestClient implements Client against the chat gateway's JSON API.
type RestClient struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewRestClient constructs the gateway adapter.
func NewRestClient(cfg config.PlatformConfig, logger *zap.Logger) *RestClient {
	return &RestClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

type createSpaceRequest struct {
	Name     string       `json:"name"`
	ParentID string       `json:"parentId,omitempty"`
	Members  []SpaceGrant `json:"members"`
}

type createSpaceResponse struct {
	ID string `json:"id"`
}

// CreateSpace opens a private space and returns its ID.
func (c *RestClient) CreateSpace(ctx context.Context, name, parentID string, members []SpaceGrant) (string, error) {
	var resp createSpaceResponse
	err := c.do(ctx, http.MethodPost, "/spaces", createSpaceRequest{
		Name:     name,
		ParentID: parentID,
		Members:  members,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteSpace removes a space.
func (c *RestClient) DeleteSpace(ctx context.Context, spaceID string) error {
	return c.do(ctx, http.MethodDelete, "/spaces/"+url.PathEscape(spaceID), nil, nil)
}

type spaceAccessRequest struct {
	UserID string `json:"userId"`
	Allow  bool   `json:"allow"`
}

// SetSpaceAccess grants or revokes view/send capability for one user.
func (c *RestClient) SetSpaceAccess(ctx context.Context, spaceID, userID string, allow bool) error {
	path := "/spaces/" + url.PathEscape(spaceID) + "/access"
	return c.do(ctx, http.MethodPut, path, spaceAccessRequest{UserID: userID, Allow: allow}, nil)
}

// SendMessage posts to a space or channel.
func (c *RestClient) SendMessage(ctx context.Context, channelID string, msg Message) error {
	path := "/channels/" + url.PathEscape(channelID) + "/messages"
	return c.do(ctx, http.MethodPost, path, msg, nil)
}

type sendDirectResponse struct {
	ChannelID string `json:"channelId"`
}

// SendDirect delivers a private message, returning the DM channel ID.
func (c *RestClient) SendDirect(ctx context.Context, userID string, msg Message) (string, error) {
	var resp sendDirectResponse
	path := "/users/" + url.PathEscape(userID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, msg, &resp); err != nil {
		return "", err
	}
	return resp.ChannelID, nil
}

// OpenForm shows a one-shot structured form to a user.
func (c *RestClient) OpenForm(ctx context.Context, userID string, form Form) error {
	path := "/users/" + url.PathEscape(userID) + "/forms"
	return c.do(ctx, http.MethodPost, path, form, nil)
}

type fetchMessagesResponse struct {
	Messages []ChannelMessage `json:"messages"`
}

// FetchMessages returns up to limit recent messages, oldest first.
func (c *RestClient) FetchMessages(ctx context.Context, channelID string, limit int) ([]ChannelMessage, error) {
	var resp fetchMessagesResponse
	path := "/channels/" + url.PathEscape(channelID) + "/messages?limit=" + strconv.Itoa(limit)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

type roleMutationRequest struct {
	RoleIDs []string `json:"roleIds"`
}

// GrantRoles adds named roles to a user.
func (c *RestClient) GrantRoles(ctx context.Context, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	path := "/users/" + url.PathEscape(userID) + "/roles/grant"
	return c.do(ctx, http.MethodPost, path, roleMutationRequest{RoleIDs: roleIDs}, nil)
}

// RevokeRoles removes named roles from a user.
func (c *RestClient) RevokeRoles(ctx context.Context, userID string, roleIDs []string) error {
	if len(roleIDs) == 0 {
		return nil
	}
	path := "/users/" + url.PathEscape(userID) + "/roles/revoke"
	return c.do(ctx, http.MethodPost, path, roleMutationRequest{RoleIDs: roleIDs}, nil)
}

type hasRoleResponse struct {
	Member bool `json:"member"`
}

// HasRole reports role membership.
func (c *RestClient) HasRole(ctx context.Context, userID, roleID string) (bool, error) {
	var resp hasRoleResponse
	path := "/users/" + url.PathEscape(userID) + "/roles/" + url.PathEscape(roleID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return false, err
	}
	return resp.Member, nil
}

func (c *RestClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: gateway returned %d: %s", method, path, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
