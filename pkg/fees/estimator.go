// Package fees computes the bridge fee, gas estimate and completion
// estimate quoted to the user when a transfer is initiated.
package fees

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/crosschain-middleware/pkg/catalog"
)

// fallbackEstimate is quoted when the target chain carries no timing data.
const fallbackEstimate = "10-15 minutes"

// Quote is the cost breakdown for a requested transfer.
type Quote struct {
	// BridgeFee is charged in token units of the bridged asset.
	BridgeFee decimal.Decimal
	// GasEstimate is denominated in wei on the source chain.
	GasEstimate decimal.Decimal
	// EstimatedTime is a rough human-readable time to completion.
	EstimatedTime string
}

// Estimator quotes bridge costs. FeeRate is a fraction of the transferred
// amount (default 1%); GasEstimate is a flat per-transfer figure in wei.
type Estimator struct {
	feeRate     decimal.Decimal
	gasEstimate decimal.Decimal
	catalog     *catalog.Catalog
}

// New creates an estimator with the given fee rate and flat gas estimate.
func New(feeRate, gasEstimate decimal.Decimal, cat *catalog.Catalog) *Estimator {
	return &Estimator{
		feeRate:     feeRate,
		gasEstimate: gasEstimate,
		catalog:     cat,
	}
}

// Quote computes the fee breakdown for transferring amount to targetChain.
// BridgeFee = amount * feeRate, kept at full decimal precision.
func (e *Estimator) Quote(amount decimal.Decimal, targetChain int64) Quote {
	return Quote{
		BridgeFee:     amount.Mul(e.feeRate),
		GasEstimate:   e.gasEstimate,
		EstimatedTime: e.estimateTime(targetChain),
	}
}

// estimateTime derives a settlement estimate from the target chain's block
// time and confirmation depth, padded to a coarse range.
func (e *Estimator) estimateTime(targetChain int64) string {
	ch, ok := e.catalog.ChainByID(targetChain)
	if !ok || ch.BlockTime <= 0 || ch.ConfirmedBlocks <= 0 {
		return fallbackEstimate
	}

	settle := time.Duration(ch.BlockTime*ch.ConfirmedBlocks) * time.Second
	lower := settle.Round(time.Minute)
	if lower < time.Minute {
		lower = time.Minute
	}
	upper := lower * 2

	return fmt.Sprintf("%d-%d minutes", int(lower.Minutes()), int(upper.Minutes()))
}
