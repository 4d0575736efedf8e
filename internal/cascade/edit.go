package cascade

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/srclight/cli/internal/gql"
)

const editSettingsMutation = `mutation EditSettings($subject: ID!, $lastID: Int, $edit: ConfigurationEdit!) {
	editSettings(subject: $subject, lastID: $lastID, edit: $edit) {
		alwaysNil
	}
}`

// Segment is one step of a key path into a settings document: either a
// property name or an array index.
type Segment struct {
	property string
	index    int
	isIndex  bool
}

// Property returns a property-name segment.
func Property(name string) Segment {
	return Segment{property: name}
}

// Index returns an array-index segment.
func Index(i int) Segment {
	return Segment{index: i, isIndex: true}
}

// MarshalJSON encodes the segment as the ConfigurationEdit wire tag:
// {"property": name} or {"index": i}.
func (s Segment) MarshalJSON() ([]byte, error) {
	if s.isIndex {
		return json.Marshal(map[string]int{"index": s.index})
	}
	return json.Marshal(map[string]string{"property": s.property})
}

func (s Segment) String() string {
	if s.isIndex {
		return fmt.Sprintf("%d", s.index)
	}
	return s.property
}

// Edit is a pending mutation against one subject's settings document. Exactly
// one of the two shapes must be populated:
//
//   - an explicit Path with a replacement Value (nil Value deletes the key)
//   - the extension-toggle shorthand: ExtensionID with an optional Enabled,
//     which rewrites ["extensions", ExtensionID]; a nil Enabled removes the
//     override so the default applies again
type Edit struct {
	Path  []Segment
	Value any

	ExtensionID string
	Enabled     *bool
}

// normalize reduces either edit shape to a key-path/value pair.
func (e Edit) normalize() ([]Segment, any, error) {
	switch {
	case len(e.Path) > 0:
		return e.Path, e.Value, nil
	case e.ExtensionID != "":
		var value any
		if e.Enabled != nil {
			value = *e.Enabled
		}
		return []Segment{Property("extensions"), Property(e.ExtensionID)}, value, nil
	default:
		return nil, nil, ErrMalformedEdit
	}
}

// Mutator is the write half of the GraphQL client used by the Editor.
type Mutator interface {
	Mutate(ctx context.Context, url string, req gql.Request) (*gql.Response, error)
}

// CascadeSource is the slice of the Store the Editor depends on: one current
// snapshot, and a way to invalidate it after a successful write.
type CascadeSource interface {
	Value(ctx context.Context) (*Cascade, error)
	Refresh()
}

// Editor applies single-subject settings edits with optimistic concurrency.
type Editor struct {
	source    CascadeSource
	client    Mutator
	endpoints interface{ Current() string }
}

// NewEditor builds an Editor over the given cascade source and transport.
func NewEditor(source CascadeSource, client Mutator, endpoints interface{ Current() string }) *Editor {
	return &Editor{source: source, client: client, endpoints: endpoints}
}

// Apply applies one edit to the subject with the given ID.
//
// The subject's current settings revision is sent as lastID so the server can
// reject the write if another client changed the document since this snapshot
// was taken; such a conflict surfaces as whatever error the server reports.
// On success the store is refreshed so every observer eventually sees the
// updated merge.
func (e *Editor) Apply(ctx context.Context, subjectID string, edit Edit) error {
	cascade, err := e.source.Value(ctx)
	if err != nil {
		return err
	}

	subject, ok := cascade.Subject(subjectID)
	if !ok {
		return &UnknownSubjectError{ID: subjectID}
	}

	var lastID *int
	if subject.LatestSettings != nil {
		lastID = &subject.LatestSettings.ID
	}

	path, value, err := edit.normalize()
	if err != nil {
		return err
	}

	resp, err := e.client.Mutate(ctx, e.endpoints.Current(), gql.Request{
		Query: editSettingsMutation,
		Variables: map[string]any{
			"subject": subjectID,
			"lastID":  lastID,
			"edit": map[string]any{
				"keyPath": path,
				"value":   value,
			},
		},
		PrivateInfo: true,
	})
	if err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return gql.AggregateErrors(resp.Errors, "")
	}

	e.source.Refresh()
	return nil
}
