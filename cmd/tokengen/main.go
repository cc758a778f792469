// tokengen mints a bearer token for a user id with the deployment's secret.
// With -expired it produces a token already past its window, useful for
// exercising the 401 path against a running server.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ludolog/ludolog/internal/auth"
)

func main() {
	expired := flag.Bool("expired", false, "issue a token that is already expired")
	ttl := flag.Duration("ttl", auth.DefaultTTL, "token validity window")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tokengen [-expired] [-ttl 168h] <user-id>")
		os.Exit(2)
	}

	var userID int64
	if _, err := fmt.Sscanf(flag.Arg(0), "%d", &userID); err != nil {
		fmt.Fprintln(os.Stderr, "tokengen: user id must be an integer")
		os.Exit(2)
	}

	_ = godotenv.Load()
	secret := os.Getenv("TOKEN_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "tokengen: TOKEN_SECRET is required")
		os.Exit(1)
	}

	svc := auth.NewTokenService(secret, os.Getenv("DOMAIN"), *ttl)
	if *expired {
		// Shift the clock back a full window so exp lands in the past.
		svc.Now = func() time.Time { return time.Now().Add(-*ttl - time.Minute) }
	}

	token, err := svc.Issue(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokengen: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Token", token)
}
