// Package openet fetches daily ET point timeseries from the OpenET API.
package openet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/greenblume/et-shade-etl/internal/domain"
	"github.com/greenblume/et-shade-etl/internal/observability"
)

// Client implements domain.ETSource against the OpenET raster timeseries
// endpoint. One request covers a whole calendar year for one point.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenET API client.
func NewClient(token, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// timeseriesRequest mirrors the OpenET point-timeseries request body.
type timeseriesRequest struct {
	DateRange   [2]string  `json:"date_range"`
	Interval    string     `json:"interval"`
	Geometry    [2]float64 `json:"geometry"` // [lon, lat]
	Model       string     `json:"model"`
	Variable    string     `json:"variable"`
	ReferenceET string     `json:"reference_et"`
	Units       string     `json:"units"`
	FileFormat  string     `json:"file_format"`
}

// timeseriesPoint is one element of the OpenET JSON response.
type timeseriesPoint struct {
	Time string  `json:"time"`
	ET   float64 `json:"et"`
}

// DailyET fetches the daily Ensemble ET series for a field and year, in mm.
func (c *Client) DailyET(ctx context.Context, field domain.Field, year int) ([]domain.ETRecord, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}

	body := timeseriesRequest{
		DateRange:   [2]string{fmt.Sprintf("%d-01-01", year), fmt.Sprintf("%d-12-31", year)},
		Interval:    "daily",
		Geometry:    [2]float64{field.Lon, field.Lat},
		Model:       "Ensemble",
		Variable:    "ET",
		ReferenceET: "gridMET",
		Units:       "mm",
		FileFormat:  "JSON",
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode timeseries request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/raster/timeseries/point", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.OpenETAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.OpenETRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("openet timeseries request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.OpenETRequests.WithLabelValues("error").Inc()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("openet API error: status %d: %s", resp.StatusCode, respBody)
	}

	var points []timeseriesPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		c.metrics.OpenETRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode timeseries response: %w", err)
	}

	if len(points) == 0 {
		c.metrics.OpenETRequests.WithLabelValues("empty").Inc()
		c.logger.Warn("openet returned no data", "field_id", field.ID, "year", year)
		return nil, nil
	}

	records := make([]domain.ETRecord, 0, len(points))
	for _, p := range points {
		date, err := domain.ParseDate(p.Time)
		if err != nil {
			c.metrics.OpenETRequests.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("openet response: %w", err)
		}
		if math.IsNaN(p.ET) || p.ET < 0 {
			c.metrics.OpenETRequests.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("openet response: %w: et value %g mm on %s",
				domain.ErrInvalidInput, p.ET, date)
		}
		records = append(records, domain.ETRecord{FieldID: field.ID, Date: date, ETmm: p.ET})
	}

	c.metrics.OpenETRequests.WithLabelValues("success").Inc()
	return records, nil
}
