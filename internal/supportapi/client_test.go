package supportapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		BaseURL:  server.URL,
		TenantID: "astropeace",
		Token:    func() string { return "Bearer test-token" },
		Retries:  1,
	})
	require.NoError(t, err)
	return client, server
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := NewClient(Config{TenantID: "astropeace"})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "https://api.example.org"})
	require.Error(t, err)
}

func TestFetchAllChatsSendsHeaders(t *testing.T) {
	var gotTenant, gotAuth, gotRequestID string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/astropeace-main/chats", r.URL.Path)
		gotTenant = r.Header.Get("x-tenant-id")
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("x-request-id")
		_, _ = w.Write([]byte(`[{"id":"c1","question":"Q1"},{"id":"c2","question":"Q2"}]`))
	}))

	chats, err := client.FetchAllChats(context.Background())
	require.NoError(t, err)
	require.Len(t, chats, 2)
	require.Equal(t, "c1", chats[0].ID)
	require.Equal(t, "astropeace", gotTenant)
	require.Equal(t, "Bearer test-token", gotAuth)
	require.NotEmpty(t, gotRequestID)
}

func TestFetchChatByIDObjectShape(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/astropeace-main/chats/c1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"c1","question":"Q","unreadMessageCount":1}`))
	}))

	payload, err := client.FetchChatByID(context.Background(), "c1")
	require.NoError(t, err)
	require.False(t, payload.IsArray())
	require.Equal(t, "c1", payload.Chat.ID)
}

func TestFetchChatByIDArrayShape(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"m1","text":"Hi","fromAstrologer":false}]`))
	}))

	payload, err := client.FetchChatByID(context.Background(), "c1")
	require.NoError(t, err)
	require.True(t, payload.IsArray())
	require.Len(t, payload.Messages, 1)
}

func TestFetchChatByIDEmptyIDIsNotACall(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	_, err := client.FetchChatByID(context.Background(), "  ")
	require.ErrorIs(t, err, ErrEmptyChatID)
	require.Zero(t, calls.Load())
}

func TestMarkAllMessagesAsReadByAstrologer(t *testing.T) {
	var gotMethod, gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.MarkAllMessagesAsReadByAstrologer(context.Background(), "c1"))
	require.Equal(t, http.MethodPut, gotMethod)
	require.Equal(t, "/astropeace-main/chats/c1/read", gotPath)
}

func TestAddAstrologerResponseTrimsAndPosts(t *testing.T) {
	var body map[string]string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/astropeace-main/chats/c1/response", r.URL.Path)
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &body))
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, client.AddAstrologerResponse(context.Background(), "c1", "  Namaste  "))
	require.Equal(t, "Namaste", body["text"])
}

func TestAddAstrologerResponseRejectsBlankText(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	require.Error(t, client.AddAstrologerResponse(context.Background(), "c1", "   "))
	require.Zero(t, calls.Load())
}

func TestErrorEnvelopeMessageIsSurfaced(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"CHAT_CLOSED","message":"Chat is closed"}}`))
	}))

	err := client.AddAstrologerResponse(context.Background(), "c1", "hello")
	require.Error(t, err)
	require.Equal(t, "Chat is closed", UserMessage(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "CHAT_CLOSED", apiErr.Code)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestUserMessageFallsBackWhenEnvelopeMissing(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream exploded`))
	}))

	err := client.AddAstrologerResponse(context.Background(), "c1", "hello")
	require.Error(t, err)
	require.Equal(t, WentWrong, UserMessage(err))
}

func TestIdempotentGetRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))

	chats, err := client.FetchAllChats(context.Background())
	require.NoError(t, err)
	require.Empty(t, chats)
	require.Equal(t, int32(2), calls.Load())
}

func TestReplyPostIsNeverRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	require.Error(t, client.AddAstrologerResponse(context.Background(), "c1", "hello"))
	require.Equal(t, int32(1), calls.Load())
}

func TestUnauthorizedDetection(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Session expired"}}`))
	}))

	_, err := client.FetchAllChats(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.Unauthorized())
}
