package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"MarketBell/internal/model"
)

// HTTPProvider fetches the trading schedule from a REST backend.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPProvider creates a provider with optional proxy support. timeout
// bounds a single request; zero leaves requests bounded only by ctx.
func NewHTTPProvider(baseURL, apiKey, proxyURL string, timeout time.Duration) *HTTPProvider {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &HTTPProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (p *HTTPProvider) Name() string { return "http" }

// httpSchedule is the expected JSON shape from the backend. Both camelCase
// and snake_case field names are accepted.
type httpSchedule struct {
	IsTradeDay  *bool        `json:"is_trade_day"`
	IsTradeDay2 *bool        `json:"isTradeDay"`
	HolidayName string       `json:"holiday_name"`
	Holiday2    string       `json:"holidayName"`
	Periods     []httpPeriod `json:"periods"`
}

type httpPeriod struct {
	Status    string `json:"status"`
	Text      string `json:"text"`
	StartTime string `json:"start_time"`
	Start2    string `json:"startTime"`
	EndTime   string `json:"end_time"`
	End2      string `json:"endTime"`
}

func (p *HTTPProvider) GetTradingSchedule(ctx context.Context) (*model.TradingSchedule, error) {
	endpoint := p.BaseURL + "/api/v1/trading-schedule"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch schedule: status %d, body: %s", resp.StatusCode, string(body))
	}

	var raw *httpSchedule
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return raw.toModel(), nil
}

func (s *httpSchedule) toModel() *model.TradingSchedule {
	sched := &model.TradingSchedule{
		HolidayName: firstNonEmpty(s.HolidayName, s.Holiday2),
	}
	switch {
	case s.IsTradeDay != nil:
		sched.IsTradeDay = *s.IsTradeDay
	case s.IsTradeDay2 != nil:
		sched.IsTradeDay = *s.IsTradeDay2
	}
	for _, hp := range s.Periods {
		sched.Periods = append(sched.Periods, model.TradingPeriod{
			Status:    model.StatusTag(hp.Status),
			Text:      hp.Text,
			StartTime: firstNonEmpty(hp.StartTime, hp.Start2),
			EndTime:   firstNonEmpty(hp.EndTime, hp.End2),
		})
	}
	return sched
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
