package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://mix.test"

// setupHTTPMock activates httpmock for the duration of the test
func setupHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", 400, `{"detail":"Title taken"}`, "Title taken"},
		{"field list", 422, `{"detail":[{"msg":"field required"},{"msg":"too short"}]}`, "field required, too short"},
		{"empty list", 422, `{"detail":[]}`, "Request failed (422 Unprocessable Entity)"},
		{"not json", 502, `<html>bad gateway</html>`, "Request failed (502 Bad Gateway)"},
		{"empty body", 500, ``, "Request failed (500 Internal Server Error)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorMessage(tt.status, []byte(tt.body)))
		})
	}
}

func TestCallSetsHeaders(t *testing.T) {
	setupHTTPMock(t)

	var got http.Header
	httpmock.RegisterResponder("GET", testBaseURL+"/admin/projects",
		func(req *http.Request) (*http.Response, error) {
			got = req.Header.Clone()
			return httpmock.NewStringResponse(http.StatusOK, `[]`), nil
		})

	c := New(testBaseURL+"/", WithToken("secret"))
	projects, err := c.ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)

	assert.Equal(t, "Bearer secret", got.Get("Authorization"))
	assert.Equal(t, "mixreview", got.Get("User-Agent"))
	assert.NotEmpty(t, got.Get("X-Request-ID"))
}

func TestCallWithoutTokenSendsNoAuthorization(t *testing.T) {
	setupHTTPMock(t)

	var auth string
	httpmock.RegisterResponder("GET", testBaseURL+"/api/settings",
		func(req *http.Request) (*http.Response, error) {
			auth = req.Header.Get("Authorization")
			return httpmock.NewStringResponse(http.StatusOK, `{"accent_color":"#ff0000"}`), nil
		})

	s, err := New(testBaseURL).GetSettings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, auth)
	assert.Equal(t, "#ff0000", s.AccentColor)
	// fields absent from the body keep their defaults
	assert.Equal(t, "#0f0f0f", s.Dark900)
}

func TestCallNoContent(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("DELETE", testBaseURL+"/admin/projects/p1",
		httpmock.NewStringResponder(http.StatusNoContent, ""))

	err := New(testBaseURL, WithToken("t")).DeleteProject(context.Background(), "p1")
	require.NoError(t, err)
}

func TestCallRequestError(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("POST", testBaseURL+"/admin/projects",
		httpmock.NewStringResponder(http.StatusConflict, `{"detail":"Project exists"}`))

	_, err := New(testBaseURL).CreateProject(context.Background(), "Album")
	require.Error(t, err)

	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusConflict, re.Status)
	assert.Equal(t, "Project exists", re.Error())
}

func TestCallUnauthorized(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/admin/projects",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"detail":"Not authenticated"}`))

	err := New(testBaseURL, WithToken("stale")).Probe(context.Background())
	assert.True(t, IsUnauthorized(err))
}

func TestProbeWithoutTokenMakesNoCall(t *testing.T) {
	setupHTTPMock(t)

	err := New(testBaseURL).Probe(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestCallNetworkError(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/admin/projects",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := New(testBaseURL).ListProjects(context.Background())
	var re *RequestError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 0, re.Status)
}

func TestLoginStoresToken(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("POST", testBaseURL+"/admin/auth/login",
		httpmock.NewStringResponder(http.StatusOK, `{"access_token":"abc","token_type":"bearer"}`))

	c := New(testBaseURL)
	tok, err := c.Login(context.Background(), credentials("admin", "pw"))
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
	assert.Equal(t, "abc", c.Token())
}

func TestValidationMakesNoCall(t *testing.T) {
	setupHTTPMock(t)
	c := New(testBaseURL)
	ctx := context.Background()

	_, err := c.CreateProject(ctx, "   ")
	assert.True(t, IsValidation(err))
	_, err = c.CreateSong(ctx, "p1", "")
	assert.True(t, IsValidation(err))
	assert.True(t, IsValidation(c.RenameVersion(ctx, 1, " ")))
	_, err = c.Login(ctx, credentials("", "pw"))
	assert.True(t, IsValidation(err))
	_, err = c.ReplyToComment(ctx, "link", 1, "Ann", "  ")
	assert.True(t, IsValidation(err))

	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestSetupFlow(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/admin/auth/status",
		httpmock.NewStringResponder(http.StatusOK, `{"setup_complete":false}`))
	httpmock.RegisterResponder("POST", testBaseURL+"/admin/auth/setup",
		httpmock.NewStringResponder(http.StatusOK, `{"access_token":"first","token_type":"bearer"}`))

	c := New(testBaseURL)
	ctx := context.Background()

	status, err := c.AuthStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.SetupComplete)

	tok, err := c.Setup(ctx, credentials("admin", "pw"))
	require.NoError(t, err)
	assert.Equal(t, "first", tok)
	assert.Equal(t, "first", c.Token())
}
