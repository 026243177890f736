package change

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/surfspot/internal/workspace"
)

func TestNewGitHubDetector_Validation(t *testing.T) {
	t.Parallel()

	for _, repo := range []string{"", "owner", "/name", "owner/", "a/b/c"} {
		_, err := NewGitHubDetector(repo, "")
		assert.Error(t, err, "repository %q", repo)
	}

	d, err := NewGitHubDetector("owner/name", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultGitHubAPI, d.baseURL)
}

func TestGitHubDetector_Detect(t *testing.T) {
	t.Parallel()

	var gotAuth, gotPath, gotPerPage string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotPerPage = r.URL.Query().Get("per_page")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"sha":"def"},{"sha":"abc"}]`))
	}))
	defer srv.Close()

	d, err := NewGitHubDetector("owner/repo", "pat123", WithGitHubBaseURL(srv.URL+"/"))
	require.NoError(t, err)

	token, err := d.Detect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Token("def"), token)
	assert.Equal(t, "token pat123", gotAuth)
	assert.Equal(t, "/repos/owner/repo/commits", gotPath)
	assert.Equal(t, "1", gotPerPage)
}

func TestGitHubDetector_BranchAndNoAuth(t *testing.T) {
	t.Parallel()

	var gotAuth, gotSHA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotSHA = r.URL.Query().Get("sha")
		_, _ = w.Write([]byte(`[{"sha":"abc"}]`))
	}))
	defer srv.Close()

	d, err := NewGitHubDetector("owner/repo", "", WithGitHubBaseURL(srv.URL), WithGitHubBranch("develop"))
	require.NoError(t, err)

	_, err = d.Detect(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "develop", gotSHA)
}

func TestGitHubDetector_TransientFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"message":"boom"}`},
		{"unauthorized", http.StatusUnauthorized, `{"message":"Bad credentials"}`},
		{"malformed body", http.StatusOK, `not json`},
		{"empty list", http.StatusOK, `[]`},
		{"missing sha", http.StatusOK, `[{}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			d, err := NewGitHubDetector("owner/repo", "", WithGitHubBaseURL(srv.URL))
			require.NoError(t, err)

			token, err := d.Detect(context.Background())
			require.Error(t, err)
			assert.Empty(t, token)
			assert.True(t, workspace.IsTransient(err), "expected transient error, got %v", err)
		})
	}
}

func TestGitHubDetector_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d, err := NewGitHubDetector("owner/repo", "", WithGitHubBaseURL(url))
	require.NoError(t, err)

	_, err = d.Detect(context.Background())
	require.Error(t, err)
	assert.True(t, workspace.IsTransient(err))
}

func TestHasChanged(t *testing.T) {
	t.Parallel()

	assert.False(t, HasChanged("abc", "abc"))
	assert.True(t, HasChanged("def", "abc"))
	assert.True(t, HasChanged("abc", ""))
}
