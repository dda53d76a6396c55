// Package pricefeed polls SOL/USDT market data from Binance and broadcasts
// it to websocket subscribers. It runs independently of balance monitoring
// and shares no state with it.
package pricefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"
)

// Kline is one candlestick.
type Kline struct {
	OpenTime  time.Time       `json:"open_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	CloseTime time.Time       `json:"close_time"`
}

// KlineSource fetches recent candlestick data for the tracked symbol.
type KlineSource interface {
	RecentKlines(ctx context.Context) ([]Kline, error)
}

type BinanceSource struct {
	client   *binance.Client
	symbol   string
	interval string
	limit    int
}

func NewBinanceSource(client *binance.Client) *BinanceSource {
	return &BinanceSource{
		client:   client,
		symbol:   "SOLUSDT",
		interval: "5m",
		limit:    60,
	}
}

func (s *BinanceSource) RecentKlines(ctx context.Context) ([]Kline, error) {
	klines, err := s.client.NewKlinesService().
		Symbol(s.symbol).
		Interval(s.interval).
		Limit(s.limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch %s klines: %w", s.symbol, err)
	}

	out := make([]Kline, 0, len(klines))
	for _, k := range klines {
		parsed, err := parseKline(k)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

func parseKline(k *binance.Kline) (Kline, error) {
	open, err := decimal.NewFromString(k.Open)
	if err != nil {
		return Kline{}, fmt.Errorf("parse open: %w", err)
	}
	high, err := decimal.NewFromString(k.High)
	if err != nil {
		return Kline{}, fmt.Errorf("parse high: %w", err)
	}
	low, err := decimal.NewFromString(k.Low)
	if err != nil {
		return Kline{}, fmt.Errorf("parse low: %w", err)
	}
	cls, err := decimal.NewFromString(k.Close)
	if err != nil {
		return Kline{}, fmt.Errorf("parse close: %w", err)
	}
	vol, err := decimal.NewFromString(k.Volume)
	if err != nil {
		return Kline{}, fmt.Errorf("parse volume: %w", err)
	}
	return Kline{
		OpenTime:  time.UnixMilli(k.OpenTime),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
		CloseTime: time.UnixMilli(k.CloseTime),
	}, nil
}
