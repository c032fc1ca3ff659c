package main

import "github.com/genmedia/studioctl/cmd/studioctl/cmd"

func main() {
	cmd.Execute()
}
