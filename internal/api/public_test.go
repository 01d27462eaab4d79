package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/mixreview/internal/models"
)

func credentials(user, pass string) models.Credentials {
	return models.Credentials{Username: user, Password: pass}
}

const sharedProjectJSON = `{
	"id": "p1",
	"title": "Album",
	"songs": [
		{"id": 10, "title": "Intro", "versions": [
			{"id": 100, "version_number": 1, "label": "rough"},
			{"id": 101, "version_number": 2, "label": "mix", "favourite": true}
		]}
	]
}`

func TestGetSharedProject(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/projects/abc123",
		httpmock.NewStringResponder(http.StatusOK, sharedProjectJSON))

	p, err := New(testBaseURL).GetSharedProject(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", p.ShareLink)
	require.Len(t, p.Songs, 1)
	song := p.FindSong(10)
	require.NotNil(t, song)
	assert.Equal(t, int64(101), song.Favourite().ID)
	assert.Equal(t, int64(101), song.Latest().ID)
}

func TestGetSharedProjectNotFound(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/projects/nope",
		httpmock.NewStringResponder(http.StatusNotFound, `{"detail":"Project not found"}`))

	_, err := New(testBaseURL).GetSharedProject(context.Background(), "nope")
	require.Error(t, err)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.Key)
	assert.True(t, IsNotFound(err))
}

func TestListCommentsFilter(t *testing.T) {
	setupHTTPMock(t)

	var query string
	httpmock.RegisterResponder("GET", testBaseURL+"/api/projects/abc/comments",
		func(req *http.Request) (*http.Response, error) {
			query = req.URL.RawQuery
			return httpmock.NewStringResponse(http.StatusOK,
				`[{"id":1,"version_id":100,"timecode":12.5,"author_name":"Ann","text":"louder","replies":[{"id":7,"comment_id":1,"author_name":"Bob","text":"ok"}]}]`), nil
		})

	threads, err := New(testBaseURL).ListComments(context.Background(), "abc", CommentFilter{VersionID: 100})
	require.NoError(t, err)
	assert.Equal(t, "version_id=100", query)
	require.Len(t, threads, 1)
	assert.Equal(t, 12.5, threads[0].Timecode)
	require.Len(t, threads[0].Replies, 1)
	assert.Equal(t, "Bob", threads[0].Replies[0].AuthorName)

	_, err = New(testBaseURL).ListComments(context.Background(), "abc", CommentFilter{SongID: 10})
	require.NoError(t, err)
	assert.Equal(t, "song_id=10", query)
}

func TestCreateCommentTrimsAndClamps(t *testing.T) {
	setupHTTPMock(t)

	var sent models.NewComment
	httpmock.RegisterResponder("POST", testBaseURL+"/api/projects/abc/comments",
		func(req *http.Request) (*http.Response, error) {
			data, _ := io.ReadAll(req.Body)
			_ = json.Unmarshal(data, &sent)
			return httpmock.NewStringResponse(http.StatusCreated, `{"id":5}`), nil
		})

	th, err := New(testBaseURL).CreateComment(context.Background(), "abc", models.NewComment{
		VersionID: 100, Timecode: -3, AuthorName: "  Ann ", Text: " kick too loud ",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), th.ID)
	assert.Equal(t, "Ann", sent.AuthorName)
	assert.Equal(t, "kick too loud", sent.Text)
	assert.Equal(t, 0.0, sent.Timecode)
}

func TestCreateCommentValidation(t *testing.T) {
	setupHTTPMock(t)
	c := New(testBaseURL)

	_, err := c.CreateComment(context.Background(), "abc", models.NewComment{AuthorName: " ", Text: "x"})
	assert.True(t, IsValidation(err))
	_, err = c.CreateComment(context.Background(), "abc", models.NewComment{AuthorName: "Ann", Text: "\n"})
	assert.True(t, IsValidation(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestFetchAudio(t *testing.T) {
	setupHTTPMock(t)
	httpmock.RegisterResponder("GET", testBaseURL+"/api/audio/100",
		func(*http.Request) (*http.Response, error) {
			resp := httpmock.NewBytesResponse(http.StatusOK, []byte("RIFF"))
			resp.Header.Set("Content-Type", "audio/wav")
			return resp, nil
		})
	httpmock.RegisterResponder("GET", testBaseURL+"/api/audio/404",
		httpmock.NewStringResponder(http.StatusNotFound, `{"detail":"Audio file not found"}`))

	c := New(testBaseURL)
	data, ct, err := c.FetchAudio(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)
	assert.Equal(t, "audio/wav", ct)

	_, _, err = c.FetchAudio(context.Background(), 404)
	assert.True(t, IsNotFound(err))
	assert.EqualError(t, err, "Audio file not found")
}
