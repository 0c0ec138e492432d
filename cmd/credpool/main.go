package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"studio/internal/domain"
	"studio/internal/infra"
	"studio/internal/sqlinline"
)

// credpool manages the rotating API credential pool: add a key, flip one
// back to active after a quota reset, or list the pool state.
func main() {
	var (
		addFlag    string
		labelFlag  string
		statusFlag string
		idFlag     string
		listFlag   bool
	)
	flag.StringVar(&addFlag, "add", "", "API key secret to add to the pool (falls back to GEMINI_API_KEY)")
	flag.StringVar(&labelFlag, "label", "", "human-readable label for the added key")
	flag.StringVar(&idFlag, "id", "", "credential ID to update (UUID)")
	flag.StringVar(&statusFlag, "status", "", "new status for -id (active, exhausted, invalid)")
	flag.BoolVar(&listFlag, "list", false, "list the pool")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Sprintf("failed to create pool: %v", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "credpool").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	switch {
	case listFlag:
		rows, err := runner.Query(ctx, sqlinline.QListCredentialPool)
		if err != nil {
			exitWithError(fmt.Sprintf("failed to list pool: %v", err))
		}
		defer rows.Close()
		for rows.Next() {
			var id, secret, label, status string
			if err := rows.Scan(&id, &secret, &label, &status); err != nil {
				exitWithError(fmt.Sprintf("failed to read pool row: %v", err))
			}
			fmt.Printf("%s  %-10s  %-20s  %s\n", id, status, label, maskSecret(secret))
		}
	case idFlag != "":
		status := strings.TrimSpace(strings.ToLower(statusFlag))
		switch domain.CredentialStatus(status) {
		case domain.CredentialActive, domain.CredentialExhausted, domain.CredentialInvalid:
		default:
			exitWithError(fmt.Sprintf("unsupported status %q", statusFlag))
		}
		if _, err := runner.Exec(ctx, sqlinline.QUpdateCredentialStatus, idFlag, status); err != nil {
			exitWithError(fmt.Sprintf("failed to update credential: %v", err))
		}
		fmt.Printf("credential %s set to %s\n", idFlag, status)
	default:
		secret := strings.TrimSpace(addFlag)
		if secret == "" {
			secret = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
		}
		if secret == "" {
			exitWithError("an API key is required via -add or GEMINI_API_KEY")
		}
		row := runner.QueryRow(ctx, sqlinline.QInsertCredential, secret, strings.TrimSpace(labelFlag))
		var id string
		if err := row.Scan(&id); err != nil {
			exitWithError(fmt.Sprintf("failed to store credential: %v", err))
		}
		fmt.Printf("credential stored with id %s\n", id)
	}
}

func maskSecret(secret string) string {
	if len(secret) <= 8 {
		return "********"
	}
	return secret[:4] + "…" + secret[len(secret)-4:]
}

func exitWithError(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
