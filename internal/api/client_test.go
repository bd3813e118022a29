package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

func TestGenerateCaptionSuccess(t *testing.T) {
	var gotAuth, gotPartType, gotField string
	var gotBytes []byte

	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/caption/upload", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()

		gotField = hdr.Filename
		gotPartType = hdr.Header.Get("Content-Type")
		gotBytes, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"message":"ok","image_url":"http://img/1.png","caption":"a cat on a sofa","confidence":0.91,"warning":null,"caption_id":12}`)
	})
	defer srv.Close()

	res, err := c.GenerateCaption(context.Background(), "tok-1", Upload{
		Name: "cat.png",
		MIME: "image/png",
		Data: []byte{0x89, 'P', 'N', 'G'},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "cat.png", gotField)
	assert.Equal(t, "image/png", gotPartType)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, gotBytes)

	assert.Equal(t, "a cat on a sofa", res.Caption)
	assert.Empty(t, res.Warning)
	require.NotNil(t, res.CaptionID)
	assert.EqualValues(t, 12, *res.CaptionID)
}

func TestGenerateCaptionGuestSendsNoAuth(t *testing.T) {
	var sawAuth bool
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuth = r.Header["Authorization"]
		io.WriteString(w, `{"caption":"x"}`)
	})
	defer srv.Close()

	_, err := c.GenerateCaption(context.Background(), "", Upload{Name: "a.jpg", MIME: "image/jpeg", Data: []byte{1}})
	require.NoError(t, err)
	assert.False(t, sawAuth)
}

func TestGenerateCaptionWarning(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"caption":null,"warning":"low confidence","confidence":0.2}`)
	})
	defer srv.Close()

	res, err := c.GenerateCaption(context.Background(), "", Upload{Name: "b.gif", MIME: "image/gif", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "low confidence", res.Warning)
	assert.Empty(t, res.Caption)
	assert.Nil(t, res.CaptionID)
}

func TestGenerateCaptionAPIError(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"detail":"Guest limit reached. Please login to generate more captions."}`)
	})
	defer srv.Close()

	_, err := c.GenerateCaption(context.Background(), "", Upload{Name: "c.png", MIME: "image/png", Data: []byte{1}})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Contains(t, apiErr.Detail, "Guest limit reached")
}

func TestParseAPIErrorNonJSONBody(t *testing.T) {
	e := parseAPIError(http.StatusBadGateway, []byte("upstream exploded\n"))
	assert.Equal(t, http.StatusBadGateway, e.Status)
	assert.Equal(t, "upstream exploded", e.Detail)

	e = parseAPIError(http.StatusBadGateway, nil)
	assert.Equal(t, "caption service returned status 502", e.Error())
}

func TestRecent(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/history/recent", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		io.WriteString(w, `{"items":[{"id":2,"image_url":"u2","caption_text":"second"},{"id":1,"image_url":"u1","caption_text":"first"}],"count":2}`)
	})
	defer srv.Close()

	res, err := c.Recent(context.Background(), "tok")
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.EqualValues(t, 2, res.Items[0].ID)
	assert.Equal(t, "second", res.Items[0].CaptionText)
	assert.Equal(t, 2, res.Count)
}

func TestHistoryPaged(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/history", r.URL.Path)
		require.Equal(t, "3", r.URL.Query().Get("page"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		io.WriteString(w, `{"items":[],"total":42,"page":3,"limit":10,"total_pages":5}`)
	})
	defer srv.Close()

	res, err := c.History(context.Background(), "tok", 3, 10)
	require.NoError(t, err)
	assert.Equal(t, 42, res.Total)
	assert.Equal(t, 5, res.TotalPages)
}

func TestLogin(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		io.WriteString(w, `{"access_token":"jwt","token_type":"bearer","user":{"id":9,"name":"Ada","email":"ada@example.com"}}`)
	})
	defer srv.Close()

	res, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.AccessToken)
	assert.Equal(t, "Ada", res.User.Name)
}

func TestLoginMissingToken(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"token_type":"bearer"}`)
	})
	defer srv.Close()

	_, err := c.Login(context.Background(), "a@b.c", "pw")
	assert.Error(t, err)
}

func TestLoginRejected(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Invalid credentials"}`)
	})
	defer srv.Close()

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestSignup(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/signup", r.URL.Path)
		io.WriteString(w, `{"id":5,"name":"Ada","email":"ada@example.com"}`)
	})
	defer srv.Close()

	res, err := c.Signup(context.Background(), "Ada", "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, 5, res.ID)
}

func TestSignupMissingID(t *testing.T) {
	c, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name":"Ada"}`)
	})
	defer srv.Close()

	_, err := c.Signup(context.Background(), "Ada", "ada@example.com", "pw")
	assert.Error(t, err)
}

func TestTransportError(t *testing.T) {
	c := NewWithClient("http://127.0.0.1:1", &http.Client{Timeout: 100 * time.Millisecond})

	_, err := c.Recent(context.Background(), "tok")
	require.Error(t, err)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures must not look like service errors")
}
