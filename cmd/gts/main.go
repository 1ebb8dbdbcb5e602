// Package main provides the gts registry CLI.
package main

import "github.com/gts-labs/gts/internal/cli"

func main() {
	cli.Execute()
}
