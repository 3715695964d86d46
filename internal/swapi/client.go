package swapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/holocron/internal/config"
	"github.com/mmcdole/holocron/internal/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 15 * time.Second
	defaultAgent    = "Holocron/1.0"
	maxResponseSize = 8 << 20
)

// statusError is a non-retryable HTTP status
type statusError struct {
	Code int
	Body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.Code)
}

// Client implements domain.CatalogClient against a SWAPI-style REST API.
// It never retries; retry policy belongs to the caller.
type Client struct {
	baseURL    string
	pageSize   int
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a new catalog API client
func NewClient(cfg config.APIConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	agent := cfg.UserAgent
	if agent == "" {
		agent = defaultAgent
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:  cfg.PageSize,
		userAgent: agent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// doRequest performs a GET and returns the body of a 200 response.
// Network failures, timeouts, 429 and 5xx come back as *domain.TransientError.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = reqURL + "?" + query.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.TransientError{Op: "GET " + path, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("catalog request", "url", reqURL)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("catalog request failed", "url", reqURL, "error", err)
		return nil, &domain.TransientError{Op: "GET " + path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &domain.TransientError{Op: "GET " + path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	c.logger.Debug("catalog response", "url", reqURL, "status", resp.StatusCode, "elapsed", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		c.logger.Warn("catalog server error", "status", resp.StatusCode, "url", reqURL)
		return nil, &domain.TransientError{Op: "GET " + path, Err: &statusError{Code: resp.StatusCode, Body: string(body)}}
	default:
		return nil, &statusError{Code: resp.StatusCode, Body: string(body)}
	}
}

func isStatus(err error, code int) bool {
	var se *statusError
	return errors.As(err, &se) && se.Code == code
}

// searchParam is the query key each collection searches on
func searchParam(t domain.EntityType) string {
	if t == domain.EntityFilms {
		return "title"
	}
	return "name"
}

// ListEntities returns one page of a collection, or the search results when
// search is non-empty. Search responses are not paginated by the API, so they
// always report a single page.
func (c *Client) ListEntities(ctx context.Context, t domain.EntityType, page int, search string) (domain.ListResult, error) {
	if !t.Valid() {
		return domain.ListResult{}, fmt.Errorf("unknown entity type %q", t)
	}
	if page < 1 {
		page = 1
	}

	query := url.Values{}
	search = strings.TrimSpace(search)
	if search != "" {
		query.Set(searchParam(t), search)
	} else {
		query.Set("page", strconv.Itoa(page))
		if c.pageSize > 0 {
			query.Set("limit", strconv.Itoa(c.pageSize))
		}
	}

	body, err := c.doRequest(ctx, "/"+string(t), query)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return domain.ListResult{}, &domain.NotFoundError{Type: t, ID: "page " + strconv.Itoa(page), Err: err}
		}
		return domain.ListResult{}, err
	}

	env, err := decodeListEnvelope(body)
	if err != nil {
		c.logger.Error("catalog parse error", "type", t, "error", err, "bodyLen", len(body))
		return domain.ListResult{}, err
	}

	switch env.shape {
	case domain.ShapeSearch:
		items := MapSearchItems(env.search)
		return domain.ListResult{
			Type:         t,
			Page:         1,
			Items:        items,
			TotalRecords: len(items),
			TotalPages:   1,
			Shape:        domain.ShapeSearch,
		}, nil

	default:
		return domain.ListResult{
			Type:         t,
			Page:         page,
			Items:        MapListItems(env.list.Results),
			TotalRecords: env.list.TotalRecords,
			TotalPages:   env.list.TotalPages,
			Shape:        domain.ShapeList,
		}, nil
	}
}

// GetEntity returns the full record for (t, id)
func (c *Client) GetEntity(ctx context.Context, t domain.EntityType, id string) (*domain.Detail, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown entity type %q", t)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("empty id for %s", t)
	}

	body, err := c.doRequest(ctx, "/"+string(t)+"/"+url.PathEscape(id), nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, &domain.NotFoundError{Type: t, ID: id, Err: err}
		}
		return nil, err
	}

	entry, err := decodeDetailEnvelope(body)
	if err != nil {
		c.logger.Error("catalog parse error", "type", t, "id", id, "error", err)
		return nil, err
	}
	if entry.UID == "" {
		entry.UID = id
	}
	return MapDetail(t, entry), nil
}

// GetEntityByReference returns the record a relation points at
func (c *Client) GetEntityByReference(ctx context.Context, ref domain.Reference) (*domain.Detail, error) {
	if !ref.Valid() {
		return nil, &domain.MalformedReferenceError{Raw: ref.String(), Reason: "unknown entity type or empty id"}
	}
	return c.GetEntity(ctx, ref.Type, ref.ID)
}
