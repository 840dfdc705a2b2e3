package main

import (
	"os"

	"github.com/metricgate/metricgate/cmd/metricgate/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
