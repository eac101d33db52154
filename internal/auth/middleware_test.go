package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/openlecture/internal/authz"
)

// echoSubject writes the subject the middleware resolved, or "anonymous".
var echoSubject = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := IdentityFromContext(r.Context())
	if !id.Authenticated() {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(id.SubjectID))
})

func serve(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOptionalAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Issue(ada)
	require.NoError(t, err)
	expired, err := ts.IssueWithDuration(ada, -time.Minute)
	require.NoError(t, err)

	h := OptionalAuth(ts)(echoSubject)

	tests := []struct {
		name          string
		authorization string
		want          string
	}{
		{"valid bearer", "Bearer " + token, "u_ada"},
		{"scheme is case-insensitive", "bearer " + token, "u_ada"},
		{"no header", "", "anonymous"},
		{"wrong scheme", "Basic " + token, "anonymous"},
		{"expired token", "Bearer " + expired, "anonymous"},
		{"garbage", "Bearer nope", "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.authorization)
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, err := ts.Issue(ada)
	require.NoError(t, err)

	h := RequireAuth(ts)(echoSubject)

	rec := serve(h, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u_ada", rec.Body.String())

	rec = serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"unauthorized","message":"valid authentication required"}`, rec.Body.String())

	rec = serve(h, "Bearer "+token+"x")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentityFromContext_DefaultsToAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, authz.Anonymous(), IdentityFromContext(req.Context()))

	ctx := WithIdentity(req.Context(), ada)
	assert.Equal(t, ada, IdentityFromContext(ctx))
}
