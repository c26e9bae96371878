package jobs

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const (
	searchPath      = "/jobs/search"
	contentType     = "application/json"
	contentEncoding = "gzip, deflate, br"
	defaultPerPage  = "100"

	httpTimeout = 15 * time.Second
)

// ItemResponse is one page of the job board search response.
type ItemResponse struct {
	Items   []Item
	Found   int
	Pages   int
	Page    int
	PerPage int `json:"per_page"`
}

type Item interface{}

// APISource fetches postings from an HTTP job board API.
type APISource struct {
	token  string
	logger *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

// NewAPISource creates a source for the given job board base URL. The token
// may be empty for boards with public search endpoints.
func NewAPISource(baseURL, token, userAgent string, logger *zap.Logger) *APISource {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &APISource{
		token:   token,
		logger:  logger,
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: httpTimeout,
		},
		UserAgent: userAgent,
	}
}

// Fetch runs the search and decodes all pages into postings.
func (s *APISource) Fetch(ctx context.Context, f Filter) (*List, error) {
	q := buildQuery(f)

	items, err := s.getItems(ctx, s.BaseURL+searchPath, q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var postings []*Posting
	cfg := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   &postings,
		TagName:  "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode postings: %w", err)
	}

	return &List{Items: postings}, nil
}

func buildQuery(f Filter) url.Values {
	q := url.Values{}
	if len(f.Keywords) > 0 {
		q.Set("text", strings.Join(f.Keywords, " "))
	}
	if f.Location != "" {
		q.Set("location", f.Location)
	}
	if f.Remote {
		q.Set("remote", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	// Set per_page max as possible. It should be faster.
	q.Set("per_page", defaultPerPage)

	return q
}

// getItems makes a GET request to the job board API and returns items from all pages.
func (s *APISource) getItems(ctx context.Context, u string, q url.Values) ([]Item, error) {
	var items []Item

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	req = s.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	resp, err := s.request(req)
	if err != nil {
		return nil, err
	}

	response, err := s.parseItemResponse(resp)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("got response from job board", zap.Int("pages", response.Pages), zap.Int("max items per page", response.PerPage))

	items = append(items, response.Items...)

	for response.Page < (response.Pages - 1) {
		s.logger.Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", response.Page+1, response.Pages),
		))

		resp, err = s.request(addPage(req, response.Page+1))
		if err != nil {
			return nil, err
		}

		response, err = s.parseItemResponse(resp)
		if err != nil {
			return nil, err
		}

		items = append(items, response.Items...)
	}

	return items, nil
}

func (s *APISource) parseItemResponse(resp *http.Response) (*ItemResponse, error) {
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	var body io.ReadCloser
	var err error
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		body, err = gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer body.Close()
	default:
		body = resp.Body
		defer body.Close()
	}

	var response *ItemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, err
	}

	return response, nil
}

func (s *APISource) request(req *http.Request) (*http.Response, error) {
	s.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *APISource) setHeaders(req *http.Request) *http.Request {
	if s.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.token))
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Content-Type", contentType)

	return req
}

// addPage adds page parameter to request URL.
func addPage(req *http.Request, page int) *http.Request {
	q := req.URL.Query()
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()

	return req
}
