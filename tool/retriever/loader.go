package retriever

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DefaultDatasetsServerURL is the Hugging Face datasets-server endpoint.
	DefaultDatasetsServerURL = "https://datasets-server.huggingface.co"

	// GuestDataset is the dataset of gala invitees.
	GuestDataset = "agents-course/unit3-invitees"

	defaultPageSize = 100
	maxPageSize     = 100
	defaultTimeout  = 30 * time.Second
)

type loaderConfig struct {
	baseURL  string
	dataset  string
	split    string
	pageSize int
	timeout  time.Duration
	logger   *slog.Logger
}

// LoadOption configures LoadGuests.
type LoadOption func(*loaderConfig)

// WithBaseURL overrides the datasets-server endpoint.
func WithBaseURL(url string) LoadOption {
	return func(c *loaderConfig) {
		c.baseURL = url
	}
}

// WithDataset overrides the dataset name and split.
func WithDataset(dataset, split string) LoadOption {
	return func(c *loaderConfig) {
		c.dataset = dataset
		c.split = split
	}
}

// WithPageSize sets the number of rows fetched per request. It is clamped to 1..100.
func WithPageSize(n int) LoadOption {
	return func(c *loaderConfig) {
		c.pageSize = min(max(n, 1), maxPageSize)
	}
}

// WithLoaderLogger sets the logger for LoadGuests.
func WithLoaderLogger(logger *slog.Logger) LoadOption {
	return func(c *loaderConfig) {
		c.logger = logger
	}
}

type rowsResponse struct {
	Rows []struct {
		RowIdx int   `json:"row_idx"`
		Row    Guest `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// LoadGuests fetches every row of the guest dataset and converts each into a
// Document. Each page is requested once; any failure aborts the load.
func LoadGuests(ctx context.Context, opts ...LoadOption) ([]Document, error) {
	cfg := loaderConfig{
		baseURL:  DefaultDatasetsServerURL,
		dataset:  GuestDataset,
		split:    "train",
		pageSize: defaultPageSize,
		timeout:  defaultTimeout,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := resty.New().
		SetBaseURL(cfg.baseURL).
		SetTimeout(cfg.timeout).
		SetRetryCount(0)

	cfg.logger.Info("loading dataset", "dataset", cfg.dataset, "split", cfg.split)

	var docs []Document
	for offset := 0; ; {
		var page rowsResponse
		var apiErr errorResponse
		resp, err := client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"dataset": cfg.dataset,
				"config":  "default",
				"split":   cfg.split,
				"offset":  strconv.Itoa(offset),
				"length":  strconv.Itoa(cfg.pageSize),
			}).
			SetResult(&page).
			SetError(&apiErr).
			Get("/rows")
		if err != nil {
			return nil, goerr.Wrap(err, "failed to request dataset rows",
				goerr.V("dataset", cfg.dataset), goerr.V("offset", offset))
		}
		if resp.IsError() {
			return nil, goerr.New("dataset rows request failed",
				goerr.V("dataset", cfg.dataset),
				goerr.V("status", resp.StatusCode()),
				goerr.V("error", apiErr.Error),
			)
		}

		for _, row := range page.Rows {
			docs = append(docs, row.Row.Document())
		}

		// The server may return fewer rows than requested
		offset += len(page.Rows)
		if len(page.Rows) == 0 || offset >= page.NumRowsTotal {
			break
		}
	}

	cfg.logger.Info("dataset loaded", "dataset", cfg.dataset, "documents", len(docs))
	return docs, nil
}
