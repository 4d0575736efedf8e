package cascade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/srclight/cli/internal/gql"
)

const configurationQuery = `query Configuration {
	viewerConfiguration {
		subjects {
			__typename
			... on Org {
				id
				name
				displayName
			}
			... on User {
				id
				username
				displayName
			}
			... on Site {
				id
				siteID
			}
			latestSettings {
				id
				configuration {
					contents
				}
			}
			settingsURL
			viewerCanAdminister
		}
		merged {
			contents
			messages
		}
	}
}`

// Querier is the read half of the GraphQL client used by the fetcher.
type Querier interface {
	Query(ctx context.Context, url string, req gql.Request) (*gql.Response, error)
}

// Fetcher retrieves cascade snapshots from a Srclight instance.
type Fetcher struct {
	client Querier
}

// NewFetcher wraps client into a Fetcher.
func NewFetcher(client Querier) *Fetcher {
	return &Fetcher{client: client}
}

type subjectNode struct {
	Typename       string `json:"__typename"`
	ID             string `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	DisplayName    string `json:"displayName"`
	SiteID         string `json:"siteID"`
	LatestSettings *struct {
		ID            int `json:"id"`
		Configuration struct {
			Contents string `json:"contents"`
		} `json:"configuration"`
	} `json:"latestSettings"`
	SettingsURL         string `json:"settingsURL"`
	ViewerCanAdminister bool   `json:"viewerCanAdminister"`
}

type configurationData struct {
	ViewerConfiguration *struct {
		Subjects []subjectNode `json:"subjects"`
		Merged   struct {
			Contents string   `json:"contents"`
			Messages []string `json:"messages"`
		} `json:"merged"`
	} `json:"viewerConfiguration"`
}

// FetchCascade fetches one cascade snapshot from endpoint. A response without
// a viewerConfiguration payload fails with an aggregate of every error
// message the server reported. Merge messages inside the payload are data,
// not failures.
func (f *Fetcher) FetchCascade(ctx context.Context, endpoint string) (*Cascade, error) {
	resp, err := f.client.Query(ctx, endpoint, gql.Request{Query: configurationQuery})
	if err != nil {
		return nil, err
	}

	var data configurationData
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &data); err != nil {
			return nil, fmt.Errorf("invalid configuration payload: %w", err)
		}
	}
	if data.ViewerConfiguration == nil {
		return nil, gql.AggregateErrors(resp.Errors, "configuration response contained no data")
	}

	cascade := &Cascade{
		Merged: Merged{
			Contents: data.ViewerConfiguration.Merged.Contents,
			Messages: data.ViewerConfiguration.Merged.Messages,
		},
	}
	for _, node := range data.ViewerConfiguration.Subjects {
		cascade.Subjects = append(cascade.Subjects, node.toSubject())
	}
	return cascade, nil
}

func (n subjectNode) toSubject() Subject {
	s := Subject{
		ID:                  n.ID,
		SettingsURL:         n.SettingsURL,
		ViewerCanAdminister: n.ViewerCanAdminister,
	}
	switch n.Typename {
	case "Org":
		s.Kind = KindOrganization
		s.Name = n.DisplayName
		if s.Name == "" {
			s.Name = n.Name
		}
	case "User":
		s.Kind = KindUser
		s.Name = n.DisplayName
		if s.Name == "" {
			s.Name = n.Username
		}
	case "Site":
		s.Kind = KindSite
		s.Name = n.SiteID
	default:
		s.Kind = SubjectKind(n.Typename)
		s.Name = n.DisplayName
	}
	if n.LatestSettings != nil {
		s.LatestSettings = &Settings{
			ID:       n.LatestSettings.ID,
			Contents: n.LatestSettings.Configuration.Contents,
		}
	}
	return s
}
