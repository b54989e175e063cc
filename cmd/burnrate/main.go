// Command burnrate categorizes bank-statement CSV exports with keyword
// rules, either from the command line or as a JSON API.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
