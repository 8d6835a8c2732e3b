//go:build ignore

// bridge-activity.go - Display recent bridge activity in a demo-friendly format
//
// Usage:
//   go run scripts/bridge-activity.go -token $(go run scripts/generate-jwt.go -subject 0x...)
//   go run scripts/bridge-activity.go -api http://localhost:8080 -limit 10
//   go run scripts/bridge-activity.go -status initiated
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

var (
	baAPI    = flag.String("api", "http://localhost:8080", "Bridge API base URL")
	baToken  = flag.String("token", os.Getenv("BRIDGE_API_TOKEN"), "Bearer token (or set BRIDGE_API_TOKEN)")
	baLimit  = flag.Int("limit", 20, "Number of recent transactions to display")
	baStatus = flag.String("status", "", "Filter by status (pending, initiated, completed, failed, cancelled)")
)

type activityTx struct {
	ID            string     `json:"id"`
	TokenAddress  string     `json:"tokenAddress"`
	Amount        string     `json:"amount"`
	SourceChain   int64      `json:"sourceChain"`
	TargetChain   int64      `json:"targetChain"`
	TargetAddress string     `json:"targetAddress"`
	Status        string     `json:"status"`
	BridgeFee     string     `json:"bridgeFee"`
	SubmissionRef string     `json:"submissionRef"`
	CreatedAt     time.Time  `json:"createdAt"`
	CancelledAt   *time.Time `json:"cancelledAt"`
}

type activityPage struct {
	Success bool `json:"success"`
	Data    struct {
		Transactions []activityTx `json:"transactions"`
		Pagination   struct {
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	} `json:"data"`
}

func main() {
	flag.Parse()

	if *baToken == "" {
		fmt.Fprintln(os.Stderr, "a bearer token is required; generate one with scripts/generate-jwt.go")
		os.Exit(2)
	}

	query := url.Values{"limit": {strconv.Itoa(*baLimit)}}
	if *baStatus != "" {
		query.Set("status", *baStatus)
	}

	req, err := http.NewRequest(http.MethodGet, *baAPI+"/bridge/transactions?"+query.Encode(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Authorization", "Bearer "+*baToken)

	resp, err := (&http.Client{Timeout: 15 * time.Second}).Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "calling bridge API: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "bridge API responded %d\n", resp.StatusCode)
		os.Exit(1)
	}

	var page activityPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		fmt.Fprintf(os.Stderr, "decoding response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Bridge Activity (%d of %d transactions) ===\n\n",
		len(page.Data.Transactions), page.Data.Pagination.Total)

	if len(page.Data.Transactions) == 0 {
		fmt.Println("No transactions found.")
		return
	}

	for _, tx := range page.Data.Transactions {
		fmt.Printf("%s  %-10s  %s tokens  chain %d -> %d\n",
			tx.CreatedAt.Format("2006-01-02 15:04:05"), tx.Status, tx.Amount,
			tx.SourceChain, tx.TargetChain)
		fmt.Printf("    id: %s\n", tx.ID)
		fmt.Printf("    token: %s  fee: %s\n", tx.TokenAddress, tx.BridgeFee)
		if tx.SubmissionRef != "" {
			fmt.Printf("    ref: %s\n", tx.SubmissionRef)
		}
		if tx.CancelledAt != nil {
			fmt.Printf("    cancelled: %s\n", tx.CancelledAt.Format(time.RFC3339))
		}
		fmt.Println()
	}
}
