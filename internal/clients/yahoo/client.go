// Package yahoo provides a thin Yahoo Finance quote client for the analysis
// engine.
package yahoo

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// Quote is a point-in-time price snapshot for one symbol
type Quote struct {
	Symbol        string
	Price         float64
	PreviousClose float64
}

// Client fetches quotes from Yahoo Finance
type Client struct {
	log zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// Quote fetches the current price and previous close for a symbol.
// Outside regular trading hours the pre/post market price is used when the
// regular market price is unavailable.
func (c *Client) Quote(symbol string) (*Quote, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("create ticker for %s: %w", symbol, err)
	}
	defer t.Close()

	result := &Quote{Symbol: symbol}

	if quote, err := t.Quote(); err == nil && quote != nil {
		switch {
		case quote.RegularMarketPrice > 0:
			result.Price = quote.RegularMarketPrice
		case quote.PreMarketPrice > 0:
			result.Price = quote.PreMarketPrice
		case quote.PostMarketPrice > 0:
			result.Price = quote.PostMarketPrice
		}
	}

	info, err := t.Info()
	if err == nil && info != nil {
		result.PreviousClose = info.RegularMarketPreviousClose
		if result.Price == 0 && info.CurrentPrice > 0 {
			result.Price = info.CurrentPrice
		}
	}

	if result.Price <= 0 {
		return nil, fmt.Errorf("no valid price for %s", symbol)
	}

	c.log.Debug().
		Str("symbol", symbol).
		Float64("price", result.Price).
		Float64("previous_close", result.PreviousClose).
		Msg("Fetched quote")

	return result, nil
}
