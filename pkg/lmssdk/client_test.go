package lmssdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/lms/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorIs(t *testing.T) {
	t.Parallel()

	decoded := &APIError{StatusCode: 401, Kind: KindSessionNotFound, Message: "whatever"}
	require.ErrorIs(t, decoded, ErrSessionNotFound)
	require.False(t, errors.Is(decoded, ErrTokenExpired))
	require.Equal(t, "session_not_found: whatever", decoded.Error())

	custom := ErrNotFound.WithMessage("Route /x not found")
	require.Equal(t, http.StatusNotFound, custom.StatusCode)
	require.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestAPIErrorWriteError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ErrDuplicateEmail.WriteError(rec)

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body httpx.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, KindDuplicateEmail, body.Error)
}

func TestParseErrorResponseFallback(t *testing.T) {
	t.Parallel()

	err := parseErrorResponse(&http.Response{StatusCode: http.StatusBadGateway}, []byte("<html>"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, KindServerError, apiErr.Kind)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: http.StatusOK}, nil))
}

// fakeServer serves a minimal cookie-based session so the client's jar
// handling can be checked without the real service.
func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/login", func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ErrInvalidRequest.WriteError(w)
			return
		}
		if req.Password != "hunter22" {
			ErrInvalidCredentials.WriteError(w)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "tok", Path: "/"})
		httpx.WriteJSON(w, http.StatusOK, SessionResponse{
			Success:     true,
			User:        User{ID: "u1", Email: req.Email},
			AccessToken: "tok",
		})
	})
	mux.HandleFunc("GET /api/v1/me", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("access_token")
		if err != nil || c.Value != "tok" {
			ErrUnauthenticated.WriteError(w)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, UserResponse{Success: true, User: User{ID: "u1"}})
	})
	mux.HandleFunc("GET /api/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "", Path: "/", MaxAge: -1})
		httpx.WriteJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "bye"})
	})
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCookieSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	srv := fakeServer(t)
	client, err := NewClient(srv.URL + "/")
	require.NoError(t, err)
	require.Equal(t, srv.URL, client.BaseURL)

	_, err = client.Me(ctx)
	require.ErrorIs(t, err, ErrUnauthenticated)

	_, err = client.Login(ctx, "ada@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := client.Login(ctx, "ada@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "tok", session.AccessToken)

	me, err := client.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", me.ID)

	require.NoError(t, client.Logout(ctx))
	_, err = client.Me(ctx)
	require.ErrorIs(t, err, ErrUnauthenticated)

	health, err := client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
}
