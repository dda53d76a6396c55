package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testAddr = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	testMint = "Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr"
)

func rpcServer(t *testing.T, tokenAccounts string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Method {
		case "getBalance":
			fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":2500000000}}`)
		case "getTokenAccountsByOwner":
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":%s}}`, tokenAccounts)
		default:
			t.Fatalf("unexpected method %s", req.Method)
		}
	}))
}

func TestGetBalances(t *testing.T) {
	accounts := `[{"pubkey":"x","account":{"data":{"parsed":{"info":{"tokenAmount":{"amount":"1500000","decimals":6}}}}}}]`
	srv := rpcServer(t, accounts)
	defer srv.Close()

	c := NewClient(srv.URL, testMint)
	snap, err := c.GetBalances(context.Background(), testAddr)
	require.NoError(t, err)
	require.Equal(t, "2.5", snap.SOL.String())
	require.Equal(t, "1.5", snap.USDT.String())
}

func TestGetBalancesNoTokenAccount(t *testing.T) {
	srv := rpcServer(t, `[]`)
	defer srv.Close()

	c := NewClient(srv.URL, testMint)
	snap, err := c.GetBalances(context.Background(), testAddr)
	require.NoError(t, err)
	require.Equal(t, "2.5", snap.SOL.String())
	require.True(t, snap.USDT.IsZero())
}

func TestGetBalancesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"invalid pubkey"}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testMint)
	_, err := c.GetBalances(context.Background(), "not-a-key")
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid pubkey")
}

func TestGetBalancesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testMint)
	_, err := c.GetBalances(context.Background(), testAddr)
	require.Error(t, err)
}
