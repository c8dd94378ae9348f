package openalex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(NewClientParams{BaseURL: srv.URL, Email: "crawler@example.org"})
	require.NoError(t, err)
	return c
}

func TestListAuthors_BuildsAnyOfFilter(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"meta":{"count":2},"results":[
			{"id":"https://openalex.org/A2","display_name":"Grace Hopper"},
			{"id":"https://openalex.org/A1","display_name":"Ada Lovelace","affiliations":[{"institution":{"id":"https://openalex.org/I1"}}]}
		]}`)
	})

	authors, err := c.ListAuthors(context.Background(), []string{"A1", "A2"})
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "https://openalex.org/A2", authors[0].ID)
	assert.Equal(t, []string{"I1"}, authors[1].InstitutionIDs())

	require.NotNil(t, got)
	assert.Equal(t, "/authors", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "openalex:A1|A2", q.Get("filter"))
	assert.Equal(t, "2", q.Get("per-page"))
	assert.Equal(t, "crawler@example.org", q.Get("mailto"))
	assert.Contains(t, q.Get("select"), "affiliations")
}

func TestListWorks_EmptyInputMakesNoRequest(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	works, err := c.ListWorks(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, works)
	assert.Zero(t, calls)
}

func TestListWorks_TooManyIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})
	ids := make([]string, MaxFilterValues+1)
	for i := range ids {
		ids[i] = fmt.Sprintf("W%d", i)
	}

	_, err := c.ListWorks(context.Background(), ids)
	assert.ErrorIs(t, err, ErrTooManyIDs)
}

func TestListInstitutions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "overloaded", http.StatusServiceUnavailable)
			},
			wantErr: ErrUnexpectedCode,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"results":[{"id":`)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.ListInstitutions(context.Background(), []string{"I1"})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGetWork_ByDOI(t *testing.T) {
	var path string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		fmt.Fprint(w, `{"id":"https://openalex.org/W1","title":"Seed","referenced_works":["https://openalex.org/W2"]}`)
	})

	work, err := c.GetWork(context.Background(), "https://doi.org/10.1234/abc")
	require.NoError(t, err)
	assert.Equal(t, "/works/doi:10.1234/abc", path)
	assert.Equal(t, "W1", work.CanonicalID())
	assert.Equal(t, []string{"W2"}, work.ReferenceIDs())
}

func TestGetWork_EmptyReference(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})
	_, err := c.GetWork(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://openalex.org/W2741809807", "W2741809807"},
		{"W2741809807", "W2741809807"},
		{"https://doi.org/10.7717/peerj.4375", "doi:10.7717/peerj.4375"},
		{"HTTPS://DX.DOI.ORG/10.7717/peerj.4375", "doi:10.7717/peerj.4375"},
		{"doi:10.7717/peerj.4375", "doi:10.7717/peerj.4375"},
		{" 10.7717/peerj.4375 ", "doi:10.7717/peerj.4375"},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, WorkKey(tt.in))
		})
	}
}
