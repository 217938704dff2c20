package main

import "Picvault/internal/cli"

const version = "1.0.0"

func main() {
	cli.Execute(version)
}
