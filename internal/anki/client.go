// Package anki talks to a running Anki instance through the AnkiConnect
// HTTP API and manages the Anki process lifecycle around it. It also provides
// an offline .apkg export path for machines without a reachable Anki.
package anki

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// connectVersion is the AnkiConnect API version every request declares.
const connectVersion = 6

// DefaultURL is where a local AnkiConnect add-on listens.
const DefaultURL = "http://localhost:8765"

// ErrKind classifies AnkiConnect failures.
type ErrKind int

const (
	// KindUnknown is any failure not recognized below. Callers treat it as
	// fatal for the current batch.
	KindUnknown ErrKind = iota
	// KindDuplicate means the note already exists in the collection.
	KindDuplicate
	// KindUnreachable means the endpoint could not be contacted at all.
	KindUnreachable
)

// Error is a failed AnkiConnect action. AnkiConnect reports errors as free
// text only, so Kind is derived from the message at this boundary; callers
// must match on Kind, never on the text.
type Error struct {
	Action  string
	Kind    ErrKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("AnkiConnect %s failed: %s", e.Action, e.Message)
}

// IsDuplicate reports whether err is a duplicate-note rejection.
func IsDuplicate(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind == KindDuplicate
	}

	return false
}

func classify(message string) ErrKind {
	if strings.Contains(strings.ToLower(message), "duplicate") {
		return KindDuplicate
	}

	return KindUnknown
}

// Client is a minimal AnkiConnect client. AnkiConnect serializes its own
// calls, so the client issues them strictly sequentially.
type Client struct {
	url    string
	client *http.Client
}

// NewClient creates a client for the AnkiConnect endpoint at url.
func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}

	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// invoke performs a single AnkiConnect action and unmarshals the result into
// out when out is non-nil.
func (c *Client) invoke(ctx context.Context, action string, params any, out any) error {
	body, err := json.Marshal(request{Action: action, Version: connectVersion, Params: params})
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s request", action)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "failed to build %s request", action)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &Error{Action: action, Kind: KindUnreachable, Message: err.Error()}
	}
	defer resp.Body.Close()

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return errors.Wrapf(err, "failed to decode %s response", action)
	}

	if parsed.Error != nil && *parsed.Error != "" {
		return &Error{Action: action, Kind: classify(*parsed.Error), Message: *parsed.Error}
	}

	if out != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, out); err != nil {
			return errors.Wrapf(err, "failed to decode %s result", action)
		}
	}

	return nil
}

// Version returns the AnkiConnect API version, doubling as a liveness check.
func (c *Client) Version(ctx context.Context) (int, error) {
	var version int
	if err := c.invoke(ctx, "version", nil, &version); err != nil {
		return 0, err
	}

	return version, nil
}

// Ping reports whether the endpoint answers the version call.
func (c *Client) Ping(ctx context.Context) bool {
	_, err := c.Version(ctx)

	return err == nil
}

// DeckNames lists the names of all decks in the collection.
func (c *Client) DeckNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.invoke(ctx, "deckNames", nil, &names); err != nil {
		return nil, err
	}

	return names, nil
}

// CreateDeck creates a deck with the given name.
func (c *Client) CreateDeck(ctx context.Context, name string) error {
	return c.invoke(ctx, "createDeck", map[string]any{"deck": name}, nil)
}

// ModelNames lists the names of all note types in the collection.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.invoke(ctx, "modelNames", nil, &names); err != nil {
		return nil, err
	}

	return names, nil
}

// CardTemplate is one presentation template of a note type.
type CardTemplate struct {
	Name  string `json:"Name"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// CreateModel creates a note type with the given fields, templates and
// stylesheet.
func (c *Client) CreateModel(ctx context.Context, name string, fields []string, css string, templates []CardTemplate) error {
	params := map[string]any{
		"modelName":     name,
		"inOrderFields": fields,
		"css":           css,
		"cardTemplates": templates,
	}

	return c.invoke(ctx, "createModel", params, nil)
}

// StoreMediaFile stores data in Anki's media collection under filename.
func (c *Client) StoreMediaFile(ctx context.Context, filename string, data []byte) error {
	params := map[string]any{
		"filename": filename,
		"data":     base64.StdEncoding.EncodeToString(data),
	}

	return c.invoke(ctx, "storeMediaFile", params, nil)
}

// Note is a single note to add. One note renders into multiple cards via the
// note type's templates.
type Note struct {
	Deck   string
	Model  string
	Fields map[string]string
	Tags   []string
}

// AddNote adds a note with duplicate detection enabled. A duplicate rejection
// surfaces as an *Error with KindDuplicate.
func (c *Client) AddNote(ctx context.Context, note Note) error {
	params := map[string]any{
		"note": map[string]any{
			"deckName":  note.Deck,
			"modelName": note.Model,
			"fields":    note.Fields,
			"options": map[string]any{
				"allowDuplicate": false,
			},
			"tags": note.Tags,
		},
	}

	return c.invoke(ctx, "addNote", params, nil)
}

// Sync requests a collection sync with AnkiWeb.
func (c *Client) Sync(ctx context.Context) error {
	return c.invoke(ctx, "sync", nil, nil)
}
