package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/verdant-labs/greenledger/pkg/engine"
	"github.com/verdant-labs/greenledger/pkg/reputation"
	"github.com/verdant-labs/greenledger/pkg/sponsors"
	"github.com/verdant-labs/greenledger/pkg/store"
)

// runDemo walks the full ledger lifecycle in memory: sponsor funding,
// action submission, verification, and a token trade, then prints the
// resulting state and the audit chain it produced.
func runDemo(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("demo", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var jsonOutput bool
	cmd.BoolVar(&jsonOutput, "json", false, "Output final state as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	funds := sponsors.NewAccountBook()
	funds.Deposit("acme", 10_000)

	eng, err := engine.New(engine.Config{Owner: "owner", Funds: funds})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	recorder := store.NewRecorder(store.NewAuditLog(), nil, nil, nil)
	recorder.Attach(eng)

	step := func(name string, err error) bool {
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s: %v\n", name, err)
			return false
		}
		if !jsonOutput {
			fmt.Fprintf(stdout, "  %s✓%s %s\n", colorGreen, colorReset, name)
		}
		return true
	}

	if !jsonOutput {
		fmt.Fprintf(stdout, "%sGreenLedger demo%s\n", colorBold, colorReset)
	}

	if !step("register sponsor acme", eng.RegisterSponsor("acme", "Acme Corp")) {
		return 1
	}
	if !step("acme contributes 5000", eng.SponsorContribute("acme", 5_000)) {
		return 1
	}

	id, err := eng.SubmitAction("alice", reputation.Cleanup, "geo:berlin-tiergarten", "sha256:beach01")
	if !step(fmt.Sprintf("alice submits cleanup (action %d)", id), err) {
		return 1
	}
	if !step("owner verifies, 100 ECO minted", eng.VerifyAction("owner", "alice", id)) {
		return 1
	}

	id2, err := eng.SubmitAction("alice", reputation.Recycling, "geo:berlin-mitte", "sha256:recycle01")
	if !step(fmt.Sprintf("alice submits recycling (action %d)", id2), err) {
		return 1
	}
	if !step("owner verifies, 50 ECO minted", eng.VerifyAction("owner", "alice", id2)) {
		return 1
	}

	if !step("alice trades 30 ECO to bob", eng.TradeTokens("alice", "bob", 30)) {
		return 1
	}

	chain := recorder.Chain().Entries()
	acme, _ := eng.GetSponsorInfo("acme")
	result := map[string]any{
		"alice_balance": eng.GetBalance("alice"),
		"bob_balance":   eng.GetBalance("bob"),
		"total_supply":  eng.GetTotalSupply(),
		"alice_stats":   eng.GetUserStats("alice"),
		"sponsor_acme":  acme,
		"audit_entries": len(chain),
	}

	if jsonOutput {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
		return 0
	}

	fmt.Fprintln(stdout, "")
	fmt.Fprintf(stdout, "  alice: %d ECO   bob: %d ECO   supply: %d\n",
		eng.GetBalance("alice"), eng.GetBalance("bob"), eng.GetTotalSupply())
	st := eng.GetUserStats("alice")
	fmt.Fprintf(stdout, "  alice reputation: %d (%d actions)\n", st.ReputationScore, st.TotalActions)
	fmt.Fprintf(stdout, "  sponsor pool: %d from %s\n", acme.AvailableBalance, acme.Name)
	fmt.Fprintf(stdout, "  audit chain: %d entries, head %s\n", len(chain), chain[len(chain)-1].EntryHash)
	return 0
}
