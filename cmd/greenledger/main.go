// Command greenledger runs the environmental reward ledger: an HTTP
// server crediting users with EcoTokens for verified environmental
// actions, plus offline tooling for the audit chain.
package main

import (
	"fmt"
	"io"
	"os"
)

const version = "v0.1.0"

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is the entrypoint for testing.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return runServe(stderr)
	}

	switch args[1] {
	case "serve", "server":
		return runServe(stderr)
	case "verify-chain":
		return runVerifyChain(args[2:], stdout, stderr)
	case "demo":
		return runDemo(args[2:], stdout, stderr)
	case "version", "--version":
		fmt.Fprintf(stdout, "greenledger %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

// ANSI Colors
const (
	colorReset = "\033[0m"
	colorBold  = "\033[1m"
	colorGreen = "\033[32m"
	colorBlue  = "\033[34m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[37m"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sGreenLedger %s%s\n", colorBold+colorBlue, version, colorReset)
	fmt.Fprintf(w, "%sVerified actions in. EcoTokens out.%s\n", colorGray, colorReset)
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sUSAGE:%s\n", colorBold, colorReset)
	fmt.Fprintln(w, "  greenledger <command> [flags]")
	fmt.Fprintln(w, "")

	printSection(w, "LEDGER")
	printCommand(w, "serve", "Run the ledger server (default)")
	printCommand(w, "demo", "Run a scripted submit/verify/trade walkthrough")

	printSection(w, "AUDIT")
	printCommand(w, "verify-chain", "Verify the persisted audit chain (--db)")

	printSection(w, "UTILITIES")
	printCommand(w, "version", "Show version information")
	printCommand(w, "help", "Show this help")
	fmt.Fprintln(w, "")
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s:%s\n", colorBold+colorCyan, title, colorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-14s%s %s\n", colorGreen, name, colorReset, desc)
}
