package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/OFFIS-RIT/papergraph/pkg/common"
)

const (
	DefaultBaseURL = "https://api.openalex.org"
	DefaultTimeout = 30 * time.Second

	// MaxFilterValues is the most values OpenAlex accepts in one OR filter.
	MaxFilterValues = 100
)

var (
	ErrNotFound       = errors.New("openalex: entity not found")
	ErrUnexpectedCode = errors.New("openalex: unexpected status code")
	ErrTooManyIDs     = errors.New("openalex: too many ids in one lookup")
)

var selectFields = map[common.Kind]string{
	common.KindWork:        "id,title,display_name,doi,publication_year,referenced_works,authorships",
	common.KindAuthor:      "id,display_name,orcid,affiliations",
	common.KindInstitution: "id,display_name,ror,country_code",
}

// Client is a small read-only client for the works, authors and institutions
// collections of the OpenAlex REST API.
type Client struct {
	baseURL    *url.URL
	mailto     string
	apiKey     string
	httpClient *http.Client
}

type NewClientParams struct {
	BaseURL string
	// Email is sent as mailto so requests land in the polite pool.
	Email      string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewClient(params NewClientParams) (*Client, error) {
	base := params.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid openalex url %q: %w", base, err)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    u,
		mailto:     params.Email,
		apiKey:     params.APIKey,
		httpClient: httpClient,
	}, nil
}

type listResponse[T any] struct {
	Meta struct {
		Count   int `json:"count"`
		PerPage int `json:"per_page"`
	} `json:"meta"`
	Results []T `json:"results"`
}

// GetWork resolves a single work by OpenAlex id or DOI.
func (c *Client) GetWork(ctx context.Context, ref string) (*common.Work, error) {
	key := WorkKey(ref)
	if key == "" {
		return nil, fmt.Errorf("%w: empty work reference", ErrNotFound)
	}

	var work common.Work
	if err := c.get(ctx, []string{"works", key}, url.Values{"select": {selectFields[common.KindWork]}}, &work); err != nil {
		return nil, err
	}
	return &work, nil
}

// ListWorks looks up works by canonical id with one any-of filter request.
func (c *Client) ListWorks(ctx context.Context, ids []string) ([]common.Work, error) {
	return list[common.Work](ctx, c, common.KindWork, ids)
}

func (c *Client) ListAuthors(ctx context.Context, ids []string) ([]common.Author, error) {
	return list[common.Author](ctx, c, common.KindAuthor, ids)
}

func (c *Client) ListInstitutions(ctx context.Context, ids []string) ([]common.Institution, error) {
	return list[common.Institution](ctx, c, common.KindInstitution, ids)
}

func list[T any](ctx context.Context, c *Client, kind common.Kind, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxFilterValues {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyIDs, len(ids), MaxFilterValues)
	}

	query := url.Values{
		"filter":   {"openalex:" + strings.Join(ids, "|")},
		"per-page": {strconv.Itoa(len(ids))},
		"select":   {selectFields[kind]},
	}
	var resp listResponse[T]
	if err := c.get(ctx, []string{kind.Collection()}, query, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

func (c *Client) get(ctx context.Context, segments []string, query url.Values, out any) error {
	u := c.baseURL.JoinPath(segments...)
	if c.mailto != "" {
		query.Set("mailto", c.mailto)
	}
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, u.Path)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w %d: %s", ErrUnexpectedCode, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var doiPrefixes = []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/", "http://dx.doi.org/", "doi:"}

// WorkKey turns a seed reference into the path key OpenAlex accepts for a
// single work: a canonical id (W123) or a doi: reference.
func WorkKey(ref string) string {
	ref = strings.TrimSpace(ref)
	for _, prefix := range doiPrefixes {
		if len(ref) > len(prefix) && strings.EqualFold(ref[:len(prefix)], prefix) {
			return "doi:" + ref[len(prefix):]
		}
	}
	if strings.HasPrefix(ref, "10.") {
		return "doi:" + ref
	}
	return common.NormalizeID(ref)
}
