// Command ledgerctl is the operator tool for the wallet ledger.
package main

import (
	"os"

	"orusledger/internal/cli"
)

func main() {
	if err := cli.Execute(os.Args[1:], os.Stdout); err != nil {
		os.Exit(1)
	}
}
