package main

import (
	"context"
	"os"

	"github.com/GreedyKomodoDragon/s3search/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
