package edgar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/polyxpand-rgb/sec-insider/src/logger"
	"github.com/polyxpand-rgb/sec-insider/src/models"
	"github.com/polyxpand-rgb/sec-insider/src/utils"
	"golang.org/x/time/rate"
)

const (
	defaultSearchURL      = "https://efts.sec.gov/LATEST/search-index"
	defaultArchiveBaseURL = "https://www.sec.gov/Archives/edgar/data"

	// EDGAR search page size. Pagination advances in steps of this many hits.
	searchPageSize = 200
)

// Client fetches Form 4 filing metadata and raw documents from SEC EDGAR.
// Every outbound request, search and document fetch alike, waits on the
// shared limiter, so the configured requests-per-second ceiling holds
// regardless of how callers drive the client.
type Client struct {
	SearchURL      string
	ArchiveBaseURL string

	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	maxRetries int
}

// NewClient creates an EDGAR client. requestsPerSecond below 1 is clamped to
// 1, matching the minimum pacing EDGAR tolerates.
func NewClient(userAgent string, requestsPerSecond float64, maxRetries int, timeout time.Duration) *Client {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		SearchURL:      defaultSearchURL,
		ArchiveBaseURL: defaultArchiveBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		userAgent:  userAgent,
		maxRetries: maxRetries,
	}
}

// doRequest performs one logical request with pacing and retries. Transport
// errors and 5xx responses are retried up to maxRetries attempts; 4xx
// responses fail immediately.
func (c *Client) doRequest(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait interrupted: %w", err)
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("error building request for %s: %w", url, err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt == c.maxRetries {
				return nil, fmt.Errorf("request to %s failed after %d attempts: %w", url, attempt, err)
			}
			logger.L.Warn("EDGAR request failed, retrying", "url", url, "attempt", attempt, "error", err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = &StatusError{StatusCode: resp.StatusCode, URL: url}
			if attempt == c.maxRetries {
				return nil, lastErr
			}
			logger.L.Warn("EDGAR server error, retrying", "url", url, "status", resp.StatusCode, "attempt", attempt)
			continue
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: url}
		}
		return resp, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, ErrRetriesExhausted
}

type searchRequest struct {
	Query string             `json:"query"`
	From  int                `json:"from"`
	Size  int                `json:"size"`
	Sort  []map[string]order `json:"sort"`
}

type order struct {
	Order string `json:"order"`
}

type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type searchHit struct {
	Adsh            string   `json:"adsh"`
	AccessionNo     string   `json:"accessionNo"`
	FiledAt         string   `json:"filedAt"`
	FormType        string   `json:"formType"`
	CompanyName     string   `json:"companyName"`
	CIK             string   `json:"cik"`
	CIKs            []string `json:"ciks"`
	PrimaryDocument string   `json:"primaryDocument"`
	LinkToFiling    string   `json:"linkToFilingDetails"`
}

// FetchFilingMetadata returns metadata for all Form 4 filings filed within
// [startDate, endDate], ascending by filing date. Pages of searchPageSize are
// requested until a short page signals the end of the result set.
func (c *Client) FetchFilingMetadata(ctx context.Context, startDate, endDate time.Time) ([]models.FilingMetadata, error) {
	query := fmt.Sprintf(`formType:"4" AND filedAt:[%s TO %s]`,
		utils.FormatDate(startDate), utils.FormatDate(endDate))

	var results []models.FilingMetadata
	from := 0
	for {
		payload, err := json.Marshal(searchRequest{
			Query: query,
			From:  from,
			Size:  searchPageSize,
			Sort:  []map[string]order{{"filedAt": {Order: "asc"}}},
		})
		if err != nil {
			return nil, fmt.Errorf("error encoding search payload: %w", err)
		}

		resp, err := c.doRequest(ctx, http.MethodPost, c.SearchURL, payload)
		if err != nil {
			return nil, fmt.Errorf("error searching filings %s: %w", query, err)
		}

		var page searchResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if decodeErr != nil {
			return nil, fmt.Errorf("error decoding search response: %w", decodeErr)
		}

		if len(page.Hits) == 0 {
			break
		}
		for _, hit := range page.Hits {
			results = append(results, hit.toMetadata())
		}
		logger.L.Debug("Fetched filing metadata page", "from", from, "hits", len(page.Hits))
		if len(page.Hits) < searchPageSize {
			break
		}
		from += searchPageSize
	}

	logger.L.Info("Filing metadata fetched", "query", query, "filings", len(results))
	return results, nil
}

func (h searchHit) toMetadata() models.FilingMetadata {
	accession := h.Adsh
	if accession == "" {
		accession = h.AccessionNo
	}
	cik := h.CIK
	if cik == "" && len(h.CIKs) > 0 {
		cik = h.CIKs[0]
	}
	return models.FilingMetadata{
		AccessionNumber: accession,
		FiledAt:         h.FiledAt,
		FormType:        h.FormType,
		CompanyName:     h.CompanyName,
		CIK:             cik,
		PrimaryDocument: h.PrimaryDocument,
		LinkToFiling:    h.LinkToFiling,
	}
}

// FetchRawDocument downloads the primary document for a filing as text. The
// canonical archive URL joins the CIK with leading zeros stripped, the
// accession number with dashes removed, and the primary document name.
func (c *Client) FetchRawDocument(ctx context.Context, meta models.FilingMetadata) (string, error) {
	if meta.AccessionNumber == "" || meta.CIK == "" || meta.PrimaryDocument == "" {
		return "", fmt.Errorf("%w: accession=%q cik=%q primaryDocument=%q",
			ErrMissingMetadata, meta.AccessionNumber, meta.CIK, meta.PrimaryDocument)
	}

	url := fmt.Sprintf("%s/%s/%s/%s",
		c.ArchiveBaseURL,
		strings.TrimLeft(meta.CIK, "0"),
		strings.ReplaceAll(meta.AccessionNumber, "-", ""),
		meta.PrimaryDocument)

	resp, err := c.doRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("error fetching document %s: %w", meta.AccessionNumber, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading document body %s: %w", meta.AccessionNumber, err)
	}
	return string(body), nil
}
