package main

import (
	"github.com/Paintersrp/kill-code/internal/cli"
	"github.com/Paintersrp/kill-code/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
