package main

import (
	"futures-six/internal/cli"
)

func main() {
	cli.Execute()
}
