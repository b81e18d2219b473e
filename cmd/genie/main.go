package main

import "github.com/felixgeelhaar/genie/cmd/genie/cli"

func main() {
	cli.Execute()
}
