package evm

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-middleware/pkg/catalog"
	"github.com/chainsafe/crosschain-middleware/pkg/chainclient"
)

const (
	testOwner = "0x1111111111111111111111111111111111111111"
	wbtcAddr  = "0xA0b86a33E6441C4CB2C62C7E85a3bF1d3D7a5e40"
	ethAddr   = "0x0000000000000000000000000000000000000000"
)

// fakeRPC satisfies rpcClient with function fields.
type fakeRPC struct {
	BalanceAtFunc          func(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContractFunc       func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceiptFunc func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

func (f *fakeRPC) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return f.BalanceAtFunc(ctx, account, blockNumber)
}

func (f *fakeRPC) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return f.CallContractFunc(ctx, msg, blockNumber)
}

func (f *fakeRPC) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return f.TransactionReceiptFunc(ctx, txHash)
}

// newTestClient wires a fake RPC backend onto chain 1.
func newTestClient(t *testing.T, rpc rpcClient, gatewayURL string) *Client {
	t.Helper()
	c, err := Dial(nil, gatewayURL, 0, catalog.Default(), zap.NewNop())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	if rpc != nil {
		c.chains[1] = rpc
	}
	return c
}

func TestTokenBalance_Native(t *testing.T) {
	rpc := &fakeRPC{
		BalanceAtFunc: func(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
			if account != common.HexToAddress(testOwner) {
				t.Errorf("queried account %s, want %s", account, testOwner)
			}
			// 1.5 ETH in wei.
			return big.NewInt(1_500_000_000_000_000_000), nil
		},
	}
	c := newTestClient(t, rpc, "http://gateway.invalid")

	got, err := c.TokenBalance(context.Background(), testOwner, ethAddr, 1)
	if err != nil {
		t.Fatalf("TokenBalance: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("1.5")) {
		t.Errorf("balance = %s, want 1.5", got)
	}
}

func TestTokenBalance_ERC20(t *testing.T) {
	c := newTestClient(t, nil, "http://gateway.invalid")

	wantCall, err := c.erc20.Pack("balanceOf", common.HexToAddress(testOwner))
	if err != nil {
		t.Fatalf("packing expected calldata: %v", err)
	}

	rpc := &fakeRPC{
		CallContractFunc: func(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
			if msg.To == nil || *msg.To != common.HexToAddress(wbtcAddr) {
				t.Errorf("call target = %v, want %s", msg.To, wbtcAddr)
			}
			if string(msg.Data) != string(wantCall) {
				t.Error("calldata is not a balanceOf(owner) call")
			}
			// 2.5 WBTC in 8-decimal base units.
			return common.LeftPadBytes(big.NewInt(250_000_000).Bytes(), 32), nil
		},
	}
	c.chains[1] = rpc

	got, err := c.TokenBalance(context.Background(), testOwner, wbtcAddr, 1)
	if err != nil {
		t.Fatalf("TokenBalance: %v", err)
	}
	if !got.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("balance = %s, want 2.5", got)
	}
}

func TestTokenBalance_Errors(t *testing.T) {
	rpcErr := errors.New("connection refused")
	rpc := &fakeRPC{
		CallContractFunc: func(context.Context, ethereum.CallMsg, *big.Int) ([]byte, error) {
			return nil, rpcErr
		},
	}
	c := newTestClient(t, rpc, "http://gateway.invalid")

	if _, err := c.TokenBalance(context.Background(), testOwner, wbtcAddr, 999); !errors.Is(err, errUnknownChain) {
		t.Errorf("unconfigured chain error = %v, want %v", err, errUnknownChain)
	}

	if _, err := c.TokenBalance(context.Background(), testOwner, wbtcAddr, 1); !errors.Is(err, rpcErr) {
		t.Errorf("rpc failure not propagated: %v", err)
	}
}

func TestTransferStatus(t *testing.T) {
	tests := []struct {
		name    string
		receipt *types.Receipt
		err     error
		want    chainclient.TransferStatus
		wantErr bool
	}{
		{"successful receipt", &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil, chainclient.TransferConfirmed, false},
		{"failed receipt", &types.Receipt{Status: types.ReceiptStatusFailed}, nil, chainclient.TransferReverted, false},
		{"no receipt yet", nil, ethereum.NotFound, chainclient.TransferPending, false},
		{"rpc failure", nil, errors.New("timeout"), chainclient.TransferPending, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rpc := &fakeRPC{
				TransactionReceiptFunc: func(context.Context, common.Hash) (*types.Receipt, error) {
					return tc.receipt, tc.err
				},
			}
			c := newTestClient(t, rpc, "http://gateway.invalid")

			got, err := c.TransferStatus(context.Background(), "0xdeadbeef", 1)
			if (err != nil) != tc.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("status = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSubmitTransfer(t *testing.T) {
	var gotPath string
	var gotReq chainclient.TransferRequest
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding gateway request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"hash": "0xabc123"})
	}))
	defer gateway.Close()

	c := newTestClient(t, nil, gateway.URL)

	req := chainclient.TransferRequest{
		TransactionID: "tx-1",
		OwnerID:       testOwner,
		TokenAddress:  wbtcAddr,
		Amount:        decimal.NewFromInt(10),
		SourceChain:   1,
		TargetChain:   137,
		TargetAddress: "0x2222222222222222222222222222222222222222",
	}

	ref, err := c.SubmitTransfer(context.Background(), req)
	if err != nil {
		t.Fatalf("SubmitTransfer: %v", err)
	}
	if ref != "0xabc123" {
		t.Errorf("ref = %s, want 0xabc123", ref)
	}
	if gotPath != "/v1/transfers" {
		t.Errorf("gateway path = %s", gotPath)
	}
	if gotReq.TransactionID != "tx-1" || !gotReq.Amount.Equal(decimal.NewFromInt(10)) {
		t.Errorf("gateway received %+v", gotReq)
	}
}

func TestSubmitTransfer_GatewayFailures(t *testing.T) {
	t.Run("missing hash", func(t *testing.T) {
		gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer gateway.Close()

		c := newTestClient(t, nil, gateway.URL)
		if _, err := c.SubmitTransfer(context.Background(), chainclient.TransferRequest{}); err == nil {
			t.Fatal("expected an error for a hashless gateway response")
		}
	})

	t.Run("gateway error status", func(t *testing.T) {
		gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "relayer unavailable", http.StatusBadGateway)
		}))
		defer gateway.Close()

		c := newTestClient(t, nil, gateway.URL)
		_, err := c.SubmitTransfer(context.Background(), chainclient.TransferRequest{})
		if err == nil || !strings.Contains(err.Error(), "502") {
			t.Fatalf("error = %v, want a 502 gateway error", err)
		}
	})
}

func TestCancelTransfer(t *testing.T) {
	var gotPath, gotReason string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		var body struct {
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotReason = body.Reason
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	c := newTestClient(t, nil, gateway.URL)

	if err := c.CancelTransfer(context.Background(), "0xref1", "user requested cancellation"); err != nil {
		t.Fatalf("CancelTransfer: %v", err)
	}
	if gotPath != "/v1/transfers/0xref1/cancel" {
		t.Errorf("gateway path = %s", gotPath)
	}
	if gotReason != "user requested cancellation" {
		t.Errorf("reason = %q", gotReason)
	}
}

func TestCancelTransfer_GatewayRefusal(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "transfer already settled", http.StatusConflict)
	}))
	defer gateway.Close()

	c := newTestClient(t, nil, gateway.URL)

	err := c.CancelTransfer(context.Background(), "0xref1", "too late")
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("error = %v, want a 409 gateway error", err)
	}
}
