// Package solana is a thin JSON-RPC client for the balance reads the
// monitor needs. It is strictly read-only.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/solvault/solvault-backend/internal/models"
)

// solDecimals is the lamports-per-SOL exponent.
const solDecimals = 9

type Client struct {
	rpcURL   string
	usdtMint string
	http     *http.Client
}

func NewClient(rpcURL, usdtMint string) *Client {
	return &Client{
		rpcURL:   rpcURL,
		usdtMint: usdtMint,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// GetBalances reads the SOL and USDT balances for a wallet in one snapshot.
func (c *Client) GetBalances(ctx context.Context, address string) (models.BalanceSnapshot, error) {
	sol, err := c.solBalance(ctx, address)
	if err != nil {
		return models.BalanceSnapshot{}, err
	}
	usdt, err := c.usdtBalance(ctx, address)
	if err != nil {
		return models.BalanceSnapshot{}, err
	}
	return models.BalanceSnapshot{SOL: sol, USDT: usdt}, nil
}

func (c *Client) solBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	var out struct {
		Value uint64 `json:"value"`
	}
	if err := c.call(ctx, "getBalance", []any{address}, &out); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromUint64(out.Value).Shift(-solDecimals), nil
}

func (c *Client) usdtBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	var out struct {
		Value []struct {
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							TokenAmount struct {
								Amount   string `json:"amount"`
								Decimals int32  `json:"decimals"`
							} `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	}
	params := []any{
		address,
		map[string]any{"mint": c.usdtMint},
		map[string]any{"encoding": "jsonParsed"},
	}
	if err := c.call(ctx, "getTokenAccountsByOwner", params, &out); err != nil {
		return decimal.Zero, err
	}
	// No token account yet means a zero balance, not an error.
	if len(out.Value) == 0 {
		return decimal.Zero, nil
	}
	amt := out.Value[0].Account.Data.Parsed.Info.TokenAmount
	raw, err := decimal.NewFromString(amt.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse token amount %q: %w", amt.Amount, err)
	}
	return raw.Shift(-amt.Decimals), nil
}
