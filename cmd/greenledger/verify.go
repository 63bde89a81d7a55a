package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/verdant-labs/greenledger/pkg/store"
)

// chainVerifier is the read side of an audit sink.
type chainVerifier interface {
	List(ctx context.Context) ([]*store.AuditEntry, error)
	VerifyChain(ctx context.Context) error
}

// runVerifyChain re-walks the persisted audit chain offline and
// reports whether every hash link still holds.
func runVerifyChain(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify-chain", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		driver     string
		dbPath     string
		jsonOutput bool
	)
	cmd.StringVar(&driver, "driver", "sqlite", "Database driver: sqlite or postgres")
	cmd.StringVar(&dbPath, "db", "greenledger.db", "SQLite path or Postgres DSN")
	cmd.BoolVar(&jsonOutput, "json", false, "Output result as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}

	ctx := context.Background()
	var audit chainVerifier
	switch driver {
	case "sqlite":
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: open %s: %v\n", dbPath, err)
			return 1
		}
		defer db.Close()
		if audit, err = store.NewSQLiteAuditStore(db); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	case "postgres":
		db, err := sql.Open("postgres", dbPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: open postgres: %v\n", err)
			return 1
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			fmt.Fprintf(stderr, "Error: ping postgres: %v\n", err)
			return 1
		}
		if audit, err = store.NewPostgresAuditStore(db); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(stderr, "Error: unknown driver %q (want sqlite or postgres)\n", driver)
		return 2
	}

	entries, err := audit.List(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	verifyErr := audit.VerifyChain(ctx)
	if jsonOutput {
		result := map[string]any{
			"db":      dbPath,
			"entries": len(entries),
			"valid":   verifyErr == nil,
		}
		if verifyErr != nil {
			result["error"] = verifyErr.Error()
		}
		_ = json.NewEncoder(stdout).Encode(result)
	} else if verifyErr == nil {
		fmt.Fprintf(stdout, "OK: %d entries, chain intact\n", len(entries))
	} else {
		fmt.Fprintf(stdout, "BROKEN: %v\n", verifyErr)
	}

	if verifyErr != nil {
		return 1
	}
	return 0
}
