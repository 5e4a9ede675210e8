package csrf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 43)
	assert.NotEqual(t, a, b)
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name      string
		cookie    string
		submitted string
		want      bool
	}{
		{name: "match", cookie: "abc", submitted: "abc", want: true},
		{name: "mismatch", cookie: "abc", submitted: "abd", want: false},
		{name: "missing cookie", cookie: "", submitted: "abc", want: false},
		{name: "missing submission", cookie: "abc", submitted: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateToken(tt.cookie, tt.submitted))
		})
	}
}

func TestValidateRequest(t *testing.T) {
	form := url.Values{FormFieldName: {"tok"}}
	r := httptest.NewRequest(http.MethodPost, "/catalog/new", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
	assert.True(t, ValidateRequest(r))

	r = httptest.NewRequest(http.MethodPost, "/catalog/delete/1", nil)
	r.Header.Set(HeaderName, "tok")
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "tok"})
	assert.True(t, ValidateRequest(r))

	r = httptest.NewRequest(http.MethodPost, "/catalog/delete/1", nil)
	r.Header.Set(HeaderName, "tok")
	assert.False(t, ValidateRequest(r))
}

func TestEnsureToken(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/catalog", nil)

	token, err := EnsureToken(w, r, true)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, token, cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.True(t, cookies[0].HttpOnly)

	// An existing cookie is reused without setting a new one.
	w = httptest.NewRecorder()
	r.AddCookie(&http.Cookie{Name: CookieName, Value: "existing"})
	token, err = EnsureToken(w, r, true)
	require.NoError(t, err)
	assert.Equal(t, "existing", token)
	assert.Empty(t, w.Result().Cookies())
}

func TestTokenContext(t *testing.T) {
	assert.Empty(t, Token(context.Background()))
	assert.Equal(t, "tok", Token(WithToken(context.Background(), "tok")))
}
