package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "derive":
		return runDerive(args[1:])
	case "groups":
		return runGroups(args[1:])
	case "candidates":
		return runCandidates(args[1:])
	case "decisions":
		return runDecisions(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "fotoatlas CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  fotoatlas <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health      Verify database connectivity")
	fmt.Fprintln(os.Stderr, "  derive      Rebuild the grouping snapshot and print its stats")
	fmt.Fprintln(os.Stderr, "  groups      List derived photo groups, or show one group")
	fmt.Fprintln(os.Stderr, "  candidates  List candidate pairs awaiting review")
	fmt.Fprintln(os.Stderr, "  decisions   List rows from the decision log")
	fmt.Fprintln(os.Stderr, "  serve       Start the Echo API server")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"fotoatlas <command> -h\" for command-specific flags.")
}
