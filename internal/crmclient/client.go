// Package crmclient talks to the CRM REST API. It implements the updater,
// catalog and page fetcher interfaces of the workflow packages.
package crmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leadflow/internal/domain"
	"leadflow/internal/pkg/jwt"
)

const maxResponseBodyBytes = 1 << 20

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// RequestError is returned for every non-2xx response. Detail carries the
// server's error message when the body has one.
type RequestError struct {
	StatusCode int
	Code       string
	Detail     string
}

func (e *RequestError) Error() string {
	if e == nil {
		return "request failed"
	}
	if strings.TrimSpace(e.Detail) == "" {
		return fmt.Sprintf("request failed (%d)", e.StatusCode)
	}
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Detail)
}

// HTTPStatusCode returns the HTTP status carried by a RequestError in err.
func HTTPStatusCode(err error) (int, bool) {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode <= 0 {
		return 0, false
	}
	return reqErr.StatusCode, true
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: normalizeBaseURL(baseURL),
		Token:   strings.TrimSpace(token),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	baseURL := normalizeBaseURL(c.BaseURL)
	if baseURL == "" {
		return nil, errors.New("missing API base URL")
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if token := strings.TrimSpace(c.Token); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return err
	}

	var env envelope
	decodeErr := json.Unmarshal(payload, &env)

	if resp.StatusCode >= 400 {
		reqErr := &RequestError{StatusCode: resp.StatusCode}
		if decodeErr == nil && env.Error != nil {
			reqErr.Code = env.Error.Code
			reqErr.Detail = env.Error.Message
		} else {
			reqErr.Detail = truncate(strings.TrimSpace(string(payload)), 200)
		}
		return reqErr
	}

	if decodeErr != nil {
		return fmt.Errorf("invalid response (%d): %w", resp.StatusCode, decodeErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := c.call(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login response has no token")
	}
	c.Token = resp.Token
	return resp.Token, nil
}

// Actor returns the display name of the signed-in user from the token
// claims. The signature is not checked; the server does that.
func (c *Client) Actor() (string, error) {
	if strings.TrimSpace(c.Token) == "" {
		return "", errors.New("missing auth token")
	}
	claims, err := jwt.ParseUnverified(c.Token)
	if err != nil {
		return "", err
	}
	if claims.Name != "" {
		return claims.Name, nil
	}
	return claims.UserID, nil
}

func (c *Client) GetLead(ctx context.Context, leadID string) (domain.Lead, error) {
	var out domain.Lead
	if strings.TrimSpace(leadID) == "" {
		return out, errors.New("lead id is required")
	}
	err := c.call(ctx, http.MethodGet, "/leads/"+url.PathEscape(leadID), nil, &out)
	return out, err
}

// FetchComments returns a lead's comment history, newest first.
func (c *Client) FetchComments(ctx context.Context, leadID string) ([]domain.Comment, error) {
	if strings.TrimSpace(leadID) == "" {
		return nil, errors.New("lead id is required")
	}
	var out []domain.Comment
	err := c.call(ctx, http.MethodGet, "/leads/"+url.PathEscape(leadID)+"/comments", nil, &out)
	return out, err
}

func (c *Client) UpdateLead(ctx context.Context, leadID string, u domain.Update) error {
	if strings.TrimSpace(leadID) == "" {
		return errors.New("lead id is required")
	}
	return c.call(ctx, http.MethodPatch, "/leads/"+url.PathEscape(leadID), u, nil)
}

func (c *Client) BulkUpdateLeads(ctx context.Context, b domain.BulkUpdate) error {
	return c.call(ctx, http.MethodPatch, "/leads/bulk", b, nil)
}

func (c *Client) FetchLeads(ctx context.Context, page, pageSize int, filter domain.Filter) (domain.Page[domain.Lead], error) {
	var out domain.Page[domain.Lead]
	err := c.call(ctx, http.MethodGet, "/leads?"+pageQuery(page, pageSize, filter).Encode(), nil, &out)
	return out, err
}

func (c *Client) FetchCampaigns(ctx context.Context, page, pageSize int, filter domain.Filter) (domain.Page[domain.Campaign], error) {
	var out domain.Page[domain.Campaign]
	q := pageQuery(page, pageSize, domain.Filter{Search: filter.Search})
	err := c.call(ctx, http.MethodGet, "/campaigns?"+q.Encode(), nil, &out)
	return out, err
}

// FetchCampaignLeads lists the leads of filter.CampaignID.
func (c *Client) FetchCampaignLeads(ctx context.Context, page, pageSize int, filter domain.Filter) (domain.Page[domain.Lead], error) {
	var out domain.Page[domain.Lead]
	if filter.CampaignID == "" {
		return out, errors.New("campaign id is required")
	}
	campaign := filter.CampaignID
	filter.CampaignID = ""
	path := "/campaigns/" + url.PathEscape(campaign) + "/leads?" + pageQuery(page, pageSize, filter).Encode()
	err := c.call(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) FetchStatusCatalog(ctx context.Context) ([]domain.StatusOption, error) {
	var out []domain.StatusOption
	err := c.call(ctx, http.MethodGet, "/statuses", nil, &out)
	return out, err
}

func (c *Client) FetchRequirementFieldCatalog(ctx context.Context) ([]domain.RequirementField, error) {
	var out []domain.RequirementField
	err := c.call(ctx, http.MethodGet, "/requirement-fields", nil, &out)
	return out, err
}

func (c *Client) FetchSources(ctx context.Context) ([]domain.Source, error) {
	var out []domain.Source
	err := c.call(ctx, http.MethodGet, "/sources", nil, &out)
	return out, err
}

func (c *Client) FetchTags(ctx context.Context) ([]domain.Tag, error) {
	var out []domain.Tag
	err := c.call(ctx, http.MethodGet, "/tags", nil, &out)
	return out, err
}

func pageQuery(page, pageSize int, filter domain.Filter) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(pageSize))
	if v := strings.TrimSpace(filter.Search); v != "" {
		q.Set("search", v)
	}
	if filter.StatusID != "" {
		q.Set("status", filter.StatusID)
	}
	if filter.SourceID != "" {
		q.Set("source", filter.SourceID)
	}
	if filter.TagID != "" {
		q.Set("tag", filter.TagID)
	}
	if filter.CampaignID != "" {
		q.Set("campaign", filter.CampaignID)
	}
	return q
}

// normalizeBaseURL accepts either the host or the /api/v1 root.
func normalizeBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/api/v1") {
		base += "/api/v1"
	}
	return base
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "..."
}
