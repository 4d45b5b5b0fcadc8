// AngelaMos | 2026
// firebase_test.go

package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToolkit struct {
	mu       sync.Mutex
	requests map[string][]map[string]any
	replies  map[string]func(body map[string]any) (int, any)
}

func newFakeToolkit() *fakeToolkit {
	return &fakeToolkit{
		requests: make(map[string][]map[string]any),
		replies:  make(map[string]func(map[string]any) (int, any)),
	}
}

func (f *fakeToolkit) on(endpoint string, reply func(body map[string]any) (int, any)) {
	f.replies[endpoint] = reply
}

func (f *fakeToolkit) calls(endpoint string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[endpoint]
}

func (f *fakeToolkit) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	body := map[string]any{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		_ = json.NewDecoder(r.Body).Decode(&body)
	} else {
		_ = r.ParseForm()
		for k := range r.PostForm {
			body[k] = r.PostForm.Get(k)
		}
	}
	body["_key"] = r.URL.Query().Get("key")

	f.mu.Lock()
	f.requests[endpoint] = append(f.requests[endpoint], body)
	reply, ok := f.replies[endpoint]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	status, payload := reply(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func providerError(message string) (int, any) {
	return http.StatusBadRequest, map[string]any{
		"error": map[string]any{"code": 400, "message": message},
	}
}

func newTestFirebase(t *testing.T, fake *fakeToolkit) Provider {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewFirebase(FirebaseConfig{
		APIKey:       "test-key",
		EmulatorHost: srv.URL,
		ContinueURL:  "http://localhost:3000",
	})
}

func TestFirebaseSignUpSetsDisplayName(t *testing.T) {
	fake := newFakeToolkit()
	fake.on("accounts:signUp", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"localId":      "uid-1",
			"email":        "a@b.com",
			"idToken":      "id-1",
			"refreshToken": "rt-1",
			"expiresIn":    "3600",
		}
	})
	fake.on("accounts:update", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"localId":      "uid-1",
			"email":        "a@b.com",
			"displayName":  "Ana",
			"idToken":      "id-2",
			"refreshToken": "rt-2",
			"expiresIn":    "3600",
		}
	})
	p := newTestFirebase(t, fake)

	session, err := p.SignUp(context.Background(), "a@b.com", "secret1", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", session.UID)
	assert.Equal(t, "Ana", session.DisplayName)
	assert.Equal(t, "id-2", session.IDToken)

	signUp := fake.calls("accounts:signUp")
	require.Len(t, signUp, 1)
	assert.Equal(t, "test-key", signUp[0]["_key"])
	assert.Equal(t, true, signUp[0]["returnSecureToken"])

	update := fake.calls("accounts:update")
	require.Len(t, update, 1)
	assert.Equal(t, "id-1", update[0]["idToken"])
	assert.Equal(t, "Ana", update[0]["displayName"])
}

func TestFirebaseErrorMapping(t *testing.T) {
	tests := []struct {
		message string
		want    error
	}{
		{message: "EMAIL_EXISTS", want: ErrAccountExists},
		{message: "WEAK_PASSWORD : Password should be at least 6 characters", want: ErrWeakPassword},
		{message: "INVALID_PASSWORD", want: ErrInvalidCredentials},
		{message: "INVALID_LOGIN_CREDENTIALS", want: ErrInvalidCredentials},
		{message: "EMAIL_NOT_FOUND", want: ErrUnknownAccount},
		{message: "USER_DISABLED", want: ErrAccountDisabled},
		{message: "INVALID_EMAIL", want: ErrInvalidEmail},
		{message: "INVALID_ID_TOKEN", want: ErrNoSession},
		{message: "CREDENTIAL_TOO_OLD_LOGIN_AGAIN", want: ErrNoSession},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			fake := newFakeToolkit()
			fake.on("accounts:signInWithPassword", func(map[string]any) (int, any) {
				return providerError(tt.message)
			})
			p := newTestFirebase(t, fake)

			_, err := p.SignIn(context.Background(), "a@b.com", "secret1")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFirebaseUnmappedError(t *testing.T) {
	fake := newFakeToolkit()
	fake.on("accounts:sendOobCode", func(map[string]any) (int, any) {
		return providerError("QUOTA_EXCEEDED")
	})
	p := newTestFirebase(t, fake)

	err := p.SendPasswordReset(context.Background(), "a@b.com")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "QUOTA_EXCEEDED", perr.Message)
}

func TestFirebaseSignInLooksUpVerification(t *testing.T) {
	fake := newFakeToolkit()
	fake.on("accounts:signInWithPassword", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"localId":      "uid-1",
			"email":        "a@b.com",
			"idToken":      "id-1",
			"refreshToken": "rt-1",
			"expiresIn":    "3600",
		}
	})
	fake.on("accounts:lookup", func(body map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"users": []map[string]any{{
				"localId":       "uid-1",
				"email":         "a@b.com",
				"displayName":   "Ana",
				"emailVerified": true,
			}},
		}
	})
	p := newTestFirebase(t, fake)

	session, err := p.SignIn(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)
	assert.True(t, session.EmailVerified)
	assert.Equal(t, "Ana", session.DisplayName)
	assert.Equal(t, "rt-1", session.RefreshToken)
	assert.Equal(t, "id-1", fake.calls("accounts:lookup")[0]["idToken"])
}

func TestFirebaseSendOobCodes(t *testing.T) {
	fake := newFakeToolkit()
	fake.on("accounts:sendOobCode", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{"email": "a@b.com"}
	})
	p := newTestFirebase(t, fake)
	ctx := context.Background()

	assert.ErrorIs(t, p.SendVerificationEmail(ctx, ""), ErrNoSession)
	require.NoError(t, p.SendVerificationEmail(ctx, "id-1"))
	require.NoError(t, p.SendPasswordReset(ctx, "a@b.com"))

	calls := fake.calls("accounts:sendOobCode")
	require.Len(t, calls, 2)
	assert.Equal(t, "VERIFY_EMAIL", calls[0]["requestType"])
	assert.Equal(t, "id-1", calls[0]["idToken"])
	assert.Equal(t, "PASSWORD_RESET", calls[1]["requestType"])
	assert.Equal(t, "http://localhost:3000", calls[1]["continueUrl"])
}

func TestFirebaseRefresh(t *testing.T) {
	fake := newFakeToolkit()
	fake.on("token", func(body map[string]any) (int, any) {
		if body["refresh_token"] != "rt-1" {
			return providerError("INVALID_REFRESH_TOKEN")
		}
		return http.StatusOK, map[string]any{
			"id_token":      "id-9",
			"refresh_token": "rt-9",
			"expires_in":    "3600",
			"user_id":       "uid-1",
		}
	})
	fake.on("accounts:lookup", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"users": []map[string]any{{"localId": "uid-1", "email": "a@b.com"}},
		}
	})
	p := newTestFirebase(t, fake)
	ctx := context.Background()

	session, err := p.Refresh(ctx, "rt-1")
	require.NoError(t, err)
	assert.Equal(t, "id-9", session.IDToken)
	assert.Equal(t, "uid-1", session.UID)

	_, err = p.Refresh(ctx, "rt-stale")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFirebaseLookupDisabled(t *testing.T) {
	fake := newFakeToolkit()
	fake.on("accounts:lookup", func(map[string]any) (int, any) {
		return http.StatusOK, map[string]any{
			"users": []map[string]any{{"localId": "uid-1", "disabled": true}},
		}
	})
	p := newTestFirebase(t, fake)

	_, err := p.Lookup(context.Background(), "id-1")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}
