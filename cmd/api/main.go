package main

import "keebstore/internal/cli"

func main() {
	cli.Execute()
}
