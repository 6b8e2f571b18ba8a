// Package remote talks to services outside this process.  The ownership
// directory answers which cinemas a manager runs; its responses are
// normalized to []model.ID here so nothing downstream has to care whether
// the directory sent numbers, strings, one object or a list.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/iliyamo/cinema-backoffice/internal/model"
)

// ErrDirectory is returned when the directory answers with success=false
// or an unreadable body.
var ErrDirectory = errors.New("ownership directory error")

// OwnershipClient queries GET {BaseURL}/managers/{id}/cinemas.
type OwnershipClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewOwnershipClient returns a client with a bounded request timeout.
func NewOwnershipClient(baseURL string) *OwnershipClient {
	return &OwnershipClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// OwnedVenueIDs returns the cinemas managed by p.  The caller's token is
// forwarded as a bearer credential.
func (c *OwnershipClient) OwnedVenueIDs(ctx context.Context, p model.Principal) ([]model.ID, error) {
	endpoint := fmt.Sprintf("%s/managers/%s/cinemas", c.BaseURL, url.PathEscape(p.UserID.String()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.Token != "" {
		req.Header.Set("Authorization", "Bearer "+p.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ownership request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("ownership read: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrDirectory, resp.StatusCode)
	}
	return ParseOwnedIDs(body)
}

// ParseOwnedIDs decodes the {"success": bool, "data": ...} envelope.  data
// may be a list or a single value; each entry may be a bare id or an
// object carrying "id" or "cinemaId".  Duplicates are dropped, first
// occurrence wins.
func ParseOwnedIDs(body []byte) ([]model.ID, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrDirectory)
	}
	doc := gjson.ParseBytes(body)
	if ok := doc.Get("success"); ok.Exists() && !ok.Bool() {
		return nil, fmt.Errorf("%w: %s", ErrDirectory, doc.Get("message").String())
	}

	data := doc.Get("data")
	entries := []gjson.Result{data}
	if data.IsArray() {
		entries = data.Array()
	}

	out := []model.ID{}
	seen := map[model.ID]bool{}
	for _, e := range entries {
		id, err := entryID(e)
		if err != nil {
			return nil, err
		}
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func entryID(e gjson.Result) (model.ID, error) {
	if e.IsObject() {
		v := e.Get("id")
		if !v.Exists() {
			v = e.Get("cinemaId")
		}
		e = v
	}
	switch e.Type {
	case gjson.Number:
		if _, err := strconv.ParseUint(e.Raw, 10, 64); err == nil {
			return model.NewID(e.Raw)
		}
		return model.NewID(e.Float())
	case gjson.String:
		return model.NewID(e.Str)
	case gjson.Null:
		return "", nil
	}
	if !e.Exists() {
		return "", nil
	}
	return "", fmt.Errorf("%w: unexpected id %s", ErrDirectory, e.Raw)
}
