package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"algobank/backend/pkg/logger"
)

const (
	binanceTickerURL  = "https://api.binance.com/api/v3/ticker/price?symbol=BTCUSDT"
	binanceKlinesURL  = "https://api.binance.com/api/v3/klines?symbol=BTCUSDT&interval=1d&limit=%d"
	coinbaseSpotURL   = "https://api.coinbase.com/v2/prices/BTC-USD/spot"
	priceCacheTTL     = time.Minute
	fallbackBTCPrice  = 40000
	marketHTTPTimeout = 5 * time.Second
)

// MarketService quotes the BTC/USD rate used to convert deposit and
// withdrawal amounts. Quotes are averaged across exchanges and cached; when
// no exchange answers, a fixed fallback keeps conversions working.
type MarketService struct {
	client *http.Client
	logger *logger.Logger

	mu        sync.Mutex
	cached    decimal.Decimal
	fetchedAt time.Time
}

func NewMarketService(log *logger.Logger) *MarketService {
	return &MarketService{
		client: &http.Client{Timeout: marketHTTPTimeout},
		logger: log,
	}
}

// BTCPrice returns the current BTC/USD rate.
func (s *MarketService) BTCPrice(ctx context.Context) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cached.IsZero() && time.Since(s.fetchedAt) < priceCacheTTL {
		return s.cached
	}

	var quotes []decimal.Decimal
	if p, err := s.fetchBinance(ctx); err == nil {
		quotes = append(quotes, p)
	} else {
		s.logger.WithError(err).Debug("binance quote unavailable")
	}
	if p, err := s.fetchCoinbase(ctx); err == nil {
		quotes = append(quotes, p)
	} else {
		s.logger.WithError(err).Debug("coinbase quote unavailable")
	}

	if len(quotes) == 0 {
		if !s.cached.IsZero() {
			return s.cached
		}
		s.logger.Warn("no exchange quotes available, using fallback BTC price")
		return decimal.NewFromInt(fallbackBTCPrice)
	}

	sum := decimal.Zero
	for _, q := range quotes {
		sum = sum.Add(q)
	}
	s.cached = sum.Div(decimal.NewFromInt(int64(len(quotes))))
	s.fetchedAt = time.Now()

	return s.cached
}

// PricePoint is one daily close of the BTC/USD history.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Price decimal.Decimal `json:"price"`
}

// BTCHistory returns the last days daily closes, oldest first.
func (s *MarketService) BTCHistory(ctx context.Context, days int) ([]PricePoint, error) {
	if days < 1 {
		days = 1
	}
	if days > 365 {
		days = 365
	}

	// Binance klines come as positional arrays: open time, open, high, low,
	// close, ...
	var raw [][]json.RawMessage
	url := fmt.Sprintf(binanceKlinesURL, days)
	if err := s.fetchJSON(ctx, url, &raw); err != nil {
		return nil, fmt.Errorf("failed to fetch price history: %w", err)
	}

	points := make([]PricePoint, 0, len(raw))
	for _, candle := range raw {
		if len(candle) < 5 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(candle[0], &openTime); err != nil {
			continue
		}
		var closeStr string
		if err := json.Unmarshal(candle[4], &closeStr); err != nil {
			continue
		}
		price, err := decimal.NewFromString(closeStr)
		if err != nil {
			continue
		}
		points = append(points, PricePoint{
			Date:  time.UnixMilli(openTime).UTC(),
			Price: price,
		})
	}
	return points, nil
}

func (s *MarketService) fetchBinance(ctx context.Context) (decimal.Decimal, error) {
	var body struct {
		Price string `json:"price"`
	}
	if err := s.fetchJSON(ctx, binanceTickerURL, &body); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(body.Price)
}

func (s *MarketService) fetchCoinbase(ctx context.Context) (decimal.Decimal, error) {
	var body struct {
		Data struct {
			Amount string `json:"amount"`
		} `json:"data"`
	}
	if err := s.fetchJSON(ctx, coinbaseSpotURL, &body); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(body.Data.Amount)
}

func (s *MarketService) fetchJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode quote: %w", err)
	}
	return nil
}
