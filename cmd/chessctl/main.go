package main

import "github.com/mcoot/signedchess/internal/cli"

func main() {
	cli.Execute()
}
