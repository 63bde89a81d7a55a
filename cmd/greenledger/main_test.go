package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"greenledger", "help"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	if !strings.Contains(stdout.String(), "verify-chain") {
		t.Errorf("usage should list verify-chain, got: %s", stdout.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"greenledger", "frobnicate"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Unknown command") {
		t.Errorf("expected unknown command error, got: %s", stderr.String())
	}
}

func TestRunDemo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run([]string{"greenledger", "demo", "--json"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("demo failed (%d): %s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{`"alice_balance": 120`, `"bob_balance": 30`, `"total_supply": 150`} {
		if !strings.Contains(out, want) {
			t.Errorf("demo output missing %s:\n%s", want, out)
		}
	}
}

func TestRunVerifyChainEmptyDB(t *testing.T) {
	var stdout, stderr bytes.Buffer
	db := t.TempDir() + "/audit.db"
	code := Run([]string{"greenledger", "verify-chain", "--db", db}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0 on empty chain, got %d: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "0 entries") {
		t.Errorf("expected empty chain report, got: %s", stdout.String())
	}
}
