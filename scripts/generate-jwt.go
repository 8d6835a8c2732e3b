//go:build ignore

// Generates a bearer token for calling the bridge API locally.
// Run with: go run scripts/generate-jwt.go -subject 0xYourWalletAddress
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	secret := flag.String("secret", "dev-secret-change-me", "HMAC signing secret (must match auth.jwt_secret)")
	issuer := flag.String("issuer", "bridge-api", "issuer claim (must match auth.issuer, empty to omit)")
	subject := flag.String("subject", "", "wallet address placed in the subject claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "-subject is required (the wallet address the token acts as)")
		os.Exit(2)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": *subject,
		"iat": now.Unix(),
		"exp": now.Add(*ttl).Unix(),
	}
	if *issuer != "" {
		claims["iss"] = *issuer
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(*secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "signing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "\nexpires %s\nexample:\n  curl -H 'Authorization: Bearer %s' http://localhost:8080/bridge/transactions\n",
		now.Add(*ttl).Format(time.RFC3339), token)
}
