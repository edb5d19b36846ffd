package main

import "github.com/cribeiro84/prhub/internal/cli"

func main() {
	cli.Execute()
}
