// Command lunactl is the operator CLI for the Luna conversation dashboard.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	appconfig "github.com/lunim/luna-dashboard/internal/config"
)

func main() {
	_ = godotenv.Load()
	a := newApp(appconfig.Load())
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
