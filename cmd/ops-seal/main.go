package main

import (
	"os"

	"github.com/damienjburks/ops-seal/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
