// Package main provides the masquerade CLI.
package main

import "github.com/mesh-intelligence/masquerade/internal/cli"

func main() {
	cli.Execute()
}
