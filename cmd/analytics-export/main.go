package main

import (
	"os"

	"analytics-export/cmd/analytics-export/commands"
	"analytics-export/lib/util/serviceutil"
)

func main() {
	ctx, cancel := serviceutil.SignalContext()
	code := commands.ExecuteContext(ctx)
	cancel()
	os.Exit(code)
}
