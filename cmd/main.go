package main

import "github.com/driftlabs/webcheck/cmd/cli"

func main() {
	cli.Execute()
}
