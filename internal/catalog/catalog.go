// Package catalog loads JSON catalogs of searchable items from disk or over
// HTTP. The bundled book catalog backs the demo binaries.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// ErrNotArray is returned when the selected catalog value is not a JSON array.
var ErrNotArray = errors.New("catalog: items are not an array")

//go:embed books.json
var bundled []byte

// Book is one entry of the book catalog.
type Book struct {
	Author    string `json:"author"`
	Country   string `json:"country"`
	ImageLink string `json:"imageLink"`
	Language  string `json:"language"`
	Link      string `json:"link"`
	Pages     int    `json:"pages"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
}

// Loader reads catalogs. The zero value uses http.DefaultClient.
type Loader struct {
	Client *http.Client
}

var defaultLoader = &Loader{Client: &http.Client{Timeout: 30 * time.Second}}

// Read returns the raw items array found at itemsPath inside the catalog at
// src. src is an http(s) URL, a file path, "-" for stdin or "" for the
// bundled book catalog. itemsPath is a gjson path; empty means the document
// itself is the array.
func (l *Loader) Read(ctx context.Context, src, itemsPath string) ([]byte, error) {
	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}

	result := gjson.ParseBytes(data)
	if itemsPath != "" {
		result = result.Get(itemsPath)
		if !result.Exists() {
			return nil, errors.Wrapf(ErrNotArray, "path %q not found", itemsPath)
		}
	}
	if !result.IsArray() {
		return nil, errors.Wrapf(ErrNotArray, "found %s", result.Type)
	}
	return []byte(result.Raw), nil
}

// Documents loads the catalog as generic JSON objects with numbers kept as
// json.Number.
func (l *Loader) Documents(ctx context.Context, src, itemsPath string) ([]map[string]any, error) {
	raw, err := l.Read(ctx, src, itemsPath)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, errors.Wrap(err, "failed to decode catalog items")
	}
	return items, nil
}

// Books loads the catalog as books.
func (l *Loader) Books(ctx context.Context, src, itemsPath string) ([]Book, error) {
	raw, err := l.Read(ctx, src, itemsPath)
	if err != nil {
		return nil, err
	}

	var books []Book
	if err := json.Unmarshal(raw, &books); err != nil {
		return nil, errors.Wrap(err, "failed to decode books")
	}
	return books, nil
}

func (l *Loader) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case src == "":
		return bundled, nil
	case src == "-":
		data, err := io.ReadAll(os.Stdin)
		return data, errors.Wrap(err, "failed to read catalog from stdin")
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.get(ctx, src)
	default:
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read catalog %s", src)
		}
		return data, nil
	}
}

func (l *Loader) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build catalog request")
	}
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch catalog %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("failed to fetch catalog %s: %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", url)
	}
	return data, nil
}

// Documents loads a catalog with a loader that times out after 30 seconds.
func Documents(ctx context.Context, src, itemsPath string) ([]map[string]any, error) {
	return defaultLoader.Documents(ctx, src, itemsPath)
}

// Books loads a book catalog with a loader that times out after 30 seconds.
func Books(ctx context.Context, src, itemsPath string) ([]Book, error) {
	return defaultLoader.Books(ctx, src, itemsPath)
}
