package crmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/domain"
	"leadflow/internal/pkg/jwt"
)

type capturedRequest struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newTestServer(t *testing.T, status int, response string) (*Client, *capturedRequest) {
	t.Helper()
	got := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.String()
		got.auth = r.Header.Get("Authorization")
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	client := &Client{BaseURL: srv.URL, Token: "tok", HTTP: srv.Client()}
	return client, got
}

func TestUpdateLeadSendsPartialBody(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK, `{"success":true,"data":{"id":"lead1"}}`)

	err := client.UpdateLead(context.Background(), "lead1", domain.Update{
		Status:  &domain.Status{ID: "s2", Label: "Meeting"},
		Comment: "Spoke to client today",
	})

	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, got.method)
	assert.Equal(t, "/api/v1/leads/lead1", got.path)
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, map[string]any{
		"LeadStatus":        map[string]any{"id": "s2", "label": "Meeting"},
		"updateDescription": "Spoke to client today",
	}, got.body)
}

func TestUpdateLeadSurfacesServerMessage(t *testing.T) {
	client, _ := newTestServer(t, http.StatusConflict,
		`{"success":false,"error":{"code":"LEAD_LOCKED","message":"lead is locked by another user"}}`)

	err := client.UpdateLead(context.Background(), "lead1", domain.Update{Comment: "a b c"})

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusConflict, reqErr.StatusCode)
	assert.Equal(t, "LEAD_LOCKED", reqErr.Code)
	assert.Contains(t, err.Error(), "lead is locked by another user")

	code, ok := HTTPStatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, code)
}

func TestNonJSONErrorBody(t *testing.T) {
	client, _ := newTestServer(t, http.StatusBadGateway, `upstream unavailable`)

	_, err := client.FetchTags(context.Background())

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "upstream unavailable", reqErr.Detail)
}

func TestFetchLeadsQueryAndEnvelope(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK,
		`{"success":true,"data":{"items":[{"id":"a","name":"A"},{"id":"b","name":"B"}],"total":42,"hasNextPage":true}}`)

	page, err := client.FetchLeads(context.Background(), 1, 20, domain.Filter{Search: " marat ", StatusID: "s1"})

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/leads?limit=20&page=1&search=marat&status=s1", got.path)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "b", page.Items[1].ID)
	require.NotNil(t, page.TotalCount)
	assert.Equal(t, 42, *page.TotalCount)
	require.NotNil(t, page.HasNextPage)
	assert.True(t, *page.HasNextPage)
	assert.Nil(t, page.TotalPages)
}

func TestFetchCampaignLeads(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK, `{"success":true,"data":{"items":[]}}`)

	_, err := client.FetchCampaignLeads(context.Background(), 2, 10, domain.Filter{CampaignID: "c 1", TagID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/campaigns/c%201/leads?limit=10&page=2&tag=t1", got.path)

	_, err = client.FetchCampaignLeads(context.Background(), 1, 10, domain.Filter{})
	assert.Error(t, err)
}

func TestFetchStatusCatalog(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK,
		`{"success":true,"data":[{"id":"s1","label":"New","requiresReminder":"no"},{"id":"s4","label":"Follow Up","requiresReminder":"yes"}]}`)

	statuses, err := client.FetchStatusCatalog(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/api/v1/statuses", got.path)
	assert.Equal(t, []domain.StatusOption{
		{ID: "s1", Label: "New", RequiresReminder: domain.ReminderNo},
		{ID: "s4", Label: "Follow Up", RequiresReminder: domain.ReminderYes},
	}, statuses)
}

func TestLoginStoresTokenAndActor(t *testing.T) {
	token, err := jwt.New("secret", time.Hour).GenerateToken("u1", "Dana")
	require.NoError(t, err)
	client, got := newTestServer(t, http.StatusOK, `{"success":true,"data":{"token":"`+token+`"}}`)
	client.Token = ""

	_, err = client.Actor()
	assert.Error(t, err)

	_, err = client.Login(context.Background(), "dana@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/auth/login", got.path)
	assert.Equal(t, "dana@example.com", got.body["email"])
	assert.Empty(t, got.auth)

	actor, err := client.Actor()
	require.NoError(t, err)
	assert.Equal(t, "Dana", actor)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "http://crm.local/api/v1", normalizeBaseURL("http://crm.local/"))
	assert.Equal(t, "http://crm.local/api/v1", normalizeBaseURL(" http://crm.local/api/v1 "))
	assert.Equal(t, "", normalizeBaseURL(""))
}

func TestContextCancellation(t *testing.T) {
	client, _ := newTestServer(t, http.StatusOK, `{"success":true}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.BulkUpdateLeads(ctx, domain.BulkUpdate{LeadIDs: []string{"a"}, Comment: "x y z"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetLead(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK,
		`{"success":true,"data":{"id":"lead 7","name":"Omar","status":{"id":"new","label":"New"},"tags":[],"visible_comment_count":0}}`)

	l, err := client.GetLead(context.Background(), "lead 7")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/v1/leads/lead%207", got.path)
	assert.Equal(t, "Omar", l.Name)
	assert.Equal(t, "New", l.Status.Label)

	_, err = client.GetLead(context.Background(), " ")
	assert.Error(t, err)
}

func TestFetchComments(t *testing.T) {
	client, got := newTestServer(t, http.StatusOK,
		`{"success":true,"data":[{"content":"Second call","author":"Dana","created_at":"2026-08-20T10:00:00Z"},{"content":"First call","author":"Dana","created_at":"2026-08-19T10:00:00Z"}]}`)

	comments, err := client.FetchComments(context.Background(), "lead-7")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/api/v1/leads/lead-7/comments", got.path)
	require.Len(t, comments, 2)
	assert.Equal(t, "Second call", comments[0].Content)
	assert.Equal(t, "Dana", comments[1].Author)

	_, err = client.FetchComments(context.Background(), "")
	assert.Error(t, err)
}
