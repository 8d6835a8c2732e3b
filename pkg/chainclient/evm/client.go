// Package evm implements chainclient.Client against EVM chains. Balance and
// settlement queries go straight to the chain over JSON-RPC; submission and
// cancellation go through the relayer gateway, which owns the signing keys.
package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chainsafe/crosschain-middleware/pkg/catalog"
	"github.com/chainsafe/crosschain-middleware/pkg/chainclient"
)

const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

const defaultGatewayTimeout = 30 * time.Second

var errUnknownChain = errors.New("no rpc endpoint configured for chain")

// rpcClient is the slice of ethclient.Client the balance and status paths
// use. Narrowed for test fakes.
type rpcClient interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Client talks to EVM chains directly for reads and to the relayer gateway
// for anything that needs a signature.
type Client struct {
	chains     map[int64]rpcClient
	catalog    *catalog.Catalog
	erc20      abi.ABI
	gatewayURL string
	httpClient *http.Client
	logger     *zap.Logger
}

// Dial connects to every chain in rpcURLs and returns a ready client.
// gatewayURL is the relayer gateway base URL used for submit/cancel.
func Dial(rpcURLs map[int64]string, gatewayURL string, requestTimeout time.Duration, cat *catalog.Catalog, logger *zap.Logger) (*Client, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	if requestTimeout <= 0 {
		requestTimeout = defaultGatewayTimeout
	}

	chains := make(map[int64]rpcClient, len(rpcURLs))
	for chainID, url := range rpcURLs {
		if url == "" {
			continue
		}
		ec, dialErr := ethclient.Dial(url)
		if dialErr != nil {
			return nil, fmt.Errorf("dial chain %d: %w", chainID, dialErr)
		}
		chains[chainID] = ec
		logger.Info("Connected to chain RPC", zap.Int64("chain_id", chainID))
	}

	return &Client{
		chains:     chains,
		catalog:    cat,
		erc20:      parsed,
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger,
	}, nil
}

// TokenBalance returns owner's balance of token on chainID in token units.
// The zero address and other native markers read the account balance; ERC-20
// tokens go through balanceOf.
func (c *Client) TokenBalance(ctx context.Context, owner, token string, chainID int64) (decimal.Decimal, error) {
	rpc, ok := c.chains[chainID]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d", errUnknownChain, chainID)
	}

	decimals := int32(18)
	native := false
	if tk, found := c.catalog.TokenByAddress(token); found {
		decimals = int32(tk.Decimals)
		native = tk.Native
	}

	ownerAddr := common.HexToAddress(owner)

	if native {
		raw, err := rpc.BalanceAt(ctx, ownerAddr, nil)
		if err != nil {
			return decimal.Zero, fmt.Errorf("native balance query on chain %d: %w", chainID, err)
		}
		return decimal.NewFromBigInt(raw, -decimals), nil
	}

	data, err := c.erc20.Pack("balanceOf", ownerAddr)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pack balanceOf: %w", err)
	}

	tokenAddr := common.HexToAddress(token)
	out, err := rpc.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data}, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balanceOf call on chain %d: %w", chainID, err)
	}

	results, err := c.erc20.Unpack("balanceOf", out)
	if err != nil || len(results) != 1 {
		return decimal.Zero, fmt.Errorf("unpack balanceOf result: %w", err)
	}
	raw, ok := results[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}

	return decimal.NewFromBigInt(raw, -decimals), nil
}

// TransferStatus maps the receipt for ref into a settlement status. A missing
// receipt means the transfer is still pending.
func (c *Client) TransferStatus(ctx context.Context, ref string, chainID int64) (chainclient.TransferStatus, error) {
	rpc, ok := c.chains[chainID]
	if !ok {
		return chainclient.TransferPending, fmt.Errorf("%w: %d", errUnknownChain, chainID)
	}

	receipt, err := rpc.TransactionReceipt(ctx, common.HexToHash(ref))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return chainclient.TransferPending, nil
		}
		return chainclient.TransferPending, fmt.Errorf("receipt query on chain %d: %w", chainID, err)
	}

	if receipt.Status == types.ReceiptStatusSuccessful {
		return chainclient.TransferConfirmed, nil
	}
	return chainclient.TransferReverted, nil
}

// SubmitTransfer posts the transfer to the relayer gateway and returns the
// source-chain transaction hash the relayer produced.
func (c *Client) SubmitTransfer(ctx context.Context, req chainclient.TransferRequest) (string, error) {
	var resp struct {
		Hash string `json:"hash"`
	}
	if err := c.postGateway(ctx, "/v1/transfers", req, &resp); err != nil {
		return "", fmt.Errorf("submit transfer: %w", err)
	}
	if resp.Hash == "" {
		return "", errors.New("relayer gateway returned no transaction hash")
	}
	return resp.Hash, nil
}

// CancelTransfer asks the relayer gateway to cancel an in-flight transfer.
func (c *Client) CancelTransfer(ctx context.Context, ref, reason string) error {
	body := struct {
		Reason string `json:"reason"`
	}{Reason: reason}
	if err := c.postGateway(ctx, "/v1/transfers/"+ref+"/cancel", body, nil); err != nil {
		return fmt.Errorf("cancel transfer %s: %w", ref, err)
	}
	return nil
}

func (c *Client) postGateway(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway responded %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}
