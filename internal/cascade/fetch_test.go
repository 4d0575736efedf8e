package cascade

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/srclight/cli/internal/gql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeQuerier serves canned GraphQL responses.
type FakeQuerier struct {
	QueryFunc func(ctx context.Context, url string, req gql.Request) (*gql.Response, error)
}

func (f *FakeQuerier) Query(ctx context.Context, url string, req gql.Request) (*gql.Response, error) {
	return f.QueryFunc(ctx, url, req)
}

func dataResponse(t *testing.T, payload string) *gql.Response {
	t.Helper()
	var raw json.RawMessage = []byte(payload)
	return &gql.Response{Data: raw}
}

func TestFetchCascadeParsesSubjects(t *testing.T) {
	fetcher := NewFetcher(&FakeQuerier{
		QueryFunc: func(ctx context.Context, url string, req gql.Request) (*gql.Response, error) {
			assert.Equal(t, "https://srclight.example", url)
			return dataResponse(t, `{"viewerConfiguration": {
				"subjects": [
					{
						"__typename": "Org",
						"id": "org1",
						"name": "acme",
						"displayName": "Acme Corp",
						"latestSettings": {"id": 12, "configuration": {"contents": "{\"a\":1}"}},
						"settingsURL": "/organizations/acme/settings",
						"viewerCanAdminister": true
					},
					{
						"__typename": "User",
						"id": "u1",
						"username": "alice",
						"settingsURL": "/settings/alice",
						"viewerCanAdminister": true
					},
					{
						"__typename": "Site",
						"id": "site",
						"siteID": "srclight.example",
						"settingsURL": "/site-admin/configuration",
						"viewerCanAdminister": false
					}
				],
				"merged": {"contents": "{\"a\":1}", "messages": []}
			}}`), nil
		},
	})

	c, err := fetcher.FetchCascade(context.Background(), "https://srclight.example")
	require.NoError(t, err)
	require.Len(t, c.Subjects, 3)

	org := c.Subjects[0]
	assert.Equal(t, KindOrganization, org.Kind)
	assert.Equal(t, "Acme Corp", org.Name)
	require.NotNil(t, org.LatestSettings)
	assert.Equal(t, 12, org.LatestSettings.ID)
	assert.Equal(t, `{"a":1}`, org.LatestSettings.Contents)
	assert.True(t, org.ViewerCanAdminister)

	user := c.Subjects[1]
	assert.Equal(t, KindUser, user.Kind)
	assert.Equal(t, "alice", user.Name)
	assert.Nil(t, user.LatestSettings)

	site := c.Subjects[2]
	assert.Equal(t, KindSite, site.Kind)
	assert.False(t, site.ViewerCanAdminister)

	assert.Equal(t, `{"a":1}`, c.Merged.Contents)
}

// Merge problems are reported alongside the merged contents, never as a
// fetch failure.
func TestFetchCascadeToleratesMergeMessages(t *testing.T) {
	fetcher := NewFetcher(&FakeQuerier{
		QueryFunc: func(ctx context.Context, url string, req gql.Request) (*gql.Response, error) {
			return dataResponse(t, `{"viewerConfiguration": {
				"subjects": [],
				"merged": {"contents": "{}", "messages": ["org settings: parse error at line 3"]}
			}}`), nil
		},
	})

	c, err := fetcher.FetchCascade(context.Background(), "https://srclight.example")
	require.NoError(t, err)
	assert.Equal(t, "{}", c.Merged.Contents)
	assert.Equal(t, []string{"org settings: parse error at line 3"}, c.Merged.Messages)
}

func TestFetchCascadeNoData(t *testing.T) {
	tests := []struct {
		name    string
		resp    *gql.Response
		wantMsg string
	}{
		{
			name:    "null data without errors gets the fallback message",
			resp:    &gql.Response{},
			wantMsg: "configuration response contained no data",
		},
		{
			name: "every reported error message is preserved",
			resp: &gql.Response{Errors: []gql.Error{
				{Message: "must be authenticated"},
				{Message: "viewerConfiguration unavailable"},
			}},
			wantMsg: "must be authenticated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := NewFetcher(&FakeQuerier{
				QueryFunc: func(ctx context.Context, url string, req gql.Request) (*gql.Response, error) {
					return tt.resp, nil
				},
			})
			_, err := fetcher.FetchCascade(context.Background(), "https://srclight.example")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			for _, e := range tt.resp.Errors {
				assert.Contains(t, err.Error(), e.Message)
			}
		})
	}
}

func TestFetchCascadeTransportError(t *testing.T) {
	fetcher := NewFetcher(&FakeQuerier{
		QueryFunc: func(ctx context.Context, url string, req gql.Request) (*gql.Response, error) {
			return nil, assert.AnError
		},
	})
	_, err := fetcher.FetchCascade(context.Background(), "https://srclight.example")
	assert.ErrorIs(t, err, assert.AnError)
}
