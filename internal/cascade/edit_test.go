package cascade

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/srclight/cli/internal/config"
	"github.com/srclight/cli/internal/gql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FakeMutator records mutation requests and delegates to MutateFunc.
type FakeMutator struct {
	mu         sync.Mutex
	requests   []gql.Request
	MutateFunc func(ctx context.Context, url string, req gql.Request) (*gql.Response, error)
}

func (f *FakeMutator) Mutate(ctx context.Context, url string, req gql.Request) (*gql.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.MutateFunc != nil {
		return f.MutateFunc(ctx, url, req)
	}
	return &gql.Response{}, nil
}

func (f *FakeMutator) Requests() []gql.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gql.Request(nil), f.requests...)
}

// FakeSource serves a fixed cascade and counts refreshes.
type FakeSource struct {
	cascade   *Cascade
	err       error
	refreshes int
}

func (f *FakeSource) Value(ctx context.Context) (*Cascade, error) { return f.cascade, f.err }
func (f *FakeSource) Refresh()                                    { f.refreshes++ }

func settingsID(id int) *Settings { return &Settings{ID: id, Contents: "{}"} }

func editorFixture(c *Cascade) (*Editor, *FakeSource, *FakeMutator) {
	source := &FakeSource{cascade: c}
	mutator := &FakeMutator{}
	editor := NewEditor(source, mutator, config.NewEndpoints("https://srclight.example"))
	return editor, source, mutator
}

func variablesJSON(t *testing.T, req gql.Request) string {
	t.Helper()
	raw, err := json.Marshal(req.Variables)
	require.NoError(t, err)
	return string(raw)
}

func TestApplyExplicitKeyPathEdit(t *testing.T) {
	editor, source, mutator := editorFixture(&Cascade{
		Subjects: []Subject{{Kind: KindUser, ID: "u1", LatestSettings: settingsID(5)}},
		Merged:   Merged{Contents: "{}"},
	})

	err := editor.Apply(context.Background(), "u1", Edit{
		Path:  []Segment{Property("ui"), Property("theme")},
		Value: "dark",
	})
	require.NoError(t, err)

	requests := mutator.Requests()
	require.Len(t, requests, 1)
	assert.JSONEq(t, `{
		"subject": "u1",
		"lastID": 5,
		"edit": {"keyPath": [{"property":"ui"},{"property":"theme"}], "value": "dark"}
	}`, variablesJSON(t, requests[0]))
	assert.Equal(t, 1, source.refreshes)
}

func TestApplyExtensionToggle(t *testing.T) {
	enabled := true
	tests := []struct {
		name     string
		edit     Edit
		wantEdit string
	}{
		{
			name:     "enable",
			edit:     Edit{ExtensionID: "foo", Enabled: &enabled},
			wantEdit: `{"keyPath": [{"property":"extensions"},{"property":"foo"}], "value": true}`,
		},
		{
			// A nil Enabled removes the override so the default applies.
			name:     "clear override encodes null",
			edit:     Edit{ExtensionID: "foo"},
			wantEdit: `{"keyPath": [{"property":"extensions"},{"property":"foo"}], "value": null}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor, _, mutator := editorFixture(&Cascade{
				Subjects: []Subject{{Kind: KindUser, ID: "u1", LatestSettings: settingsID(5)}},
			})

			err := editor.Apply(context.Background(), "u1", tt.edit)
			require.NoError(t, err)

			requests := mutator.Requests()
			require.Len(t, requests, 1)
			assert.JSONEq(t, `{"subject":"u1","lastID":5,"edit":`+tt.wantEdit+`}`, variablesJSON(t, requests[0]))
		})
	}
}

func TestApplySendsNullLastIDForFreshSubject(t *testing.T) {
	editor, _, mutator := editorFixture(&Cascade{
		Subjects: []Subject{{Kind: KindOrganization, ID: "org1"}},
	})

	err := editor.Apply(context.Background(), "org1", Edit{
		Path:  []Segment{Property("search"), Property("contexts"), Index(0)},
		Value: "repo:^github",
	})
	require.NoError(t, err)

	requests := mutator.Requests()
	require.Len(t, requests, 1)
	assert.JSONEq(t, `{
		"subject": "org1",
		"lastID": null,
		"edit": {"keyPath": [{"property":"search"},{"property":"contexts"},{"index":0}], "value": "repo:^github"}
	}`, variablesJSON(t, requests[0]))
}

func TestApplyUnknownSubject(t *testing.T) {
	editor, source, mutator := editorFixture(&Cascade{
		Subjects: []Subject{{Kind: KindUser, ID: "u1"}},
	})

	err := editor.Apply(context.Background(), "nope", Edit{Path: []Segment{Property("x")}})
	var unknown *UnknownSubjectError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.ID)
	assert.Contains(t, err.Error(), "nope")

	// No mutation may be issued and no refresh fired for a failed edit.
	assert.Empty(t, mutator.Requests())
	assert.Equal(t, 0, source.refreshes)
}

func TestApplyMalformedEdit(t *testing.T) {
	editor, _, mutator := editorFixture(&Cascade{
		Subjects: []Subject{{Kind: KindUser, ID: "u1"}},
	})

	err := editor.Apply(context.Background(), "u1", Edit{})
	assert.ErrorIs(t, err, ErrMalformedEdit)
	assert.Empty(t, mutator.Requests())
}

func TestApplySurfacesEveryMutationError(t *testing.T) {
	editor, source, mutator := editorFixture(&Cascade{
		Subjects: []Subject{{Kind: KindUser, ID: "u1", LatestSettings: settingsID(3)}},
	})
	mutator.MutateFunc = func(ctx context.Context, url string, req gql.Request) (*gql.Response, error) {
		return &gql.Response{Errors: []gql.Error{
			{Message: "settings version mismatch"},
			{Message: "edit rejected"},
		}}, nil
	}

	err := editor.Apply(context.Background(), "u1", Edit{Path: []Segment{Property("x")}, Value: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings version mismatch")
	assert.Contains(t, err.Error(), "edit rejected")
	assert.Equal(t, 0, source.refreshes)
}

// A successful edit against the real store triggers exactly one refetch.
func TestApplyRefreshesStoreOnce(t *testing.T) {
	fetcher := &FakeFetcher{
		FetchFunc: func(ctx context.Context, endpoint string) (*Cascade, error) {
			return &Cascade{
				Subjects: []Subject{{Kind: KindUser, ID: "u1", LatestSettings: settingsID(7)}},
				Merged:   Merged{Contents: "{}"},
			}, nil
		},
	}
	endpoints := config.NewEndpoints("https://srclight.example")
	store := NewStore(fetcher, endpoints)
	defer store.Close()
	mutator := &FakeMutator{}
	editor := NewEditor(store, mutator, endpoints)

	err := editor.Apply(context.Background(), "u1", Edit{Path: []Segment{Property("x")}, Value: true})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return fetcher.Calls() == 2 }, 5*time.Second, 10*time.Millisecond)
}
