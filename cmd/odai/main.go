package main

import (
	"os"

	"odai-party/internal/logging"

	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	logging.Setup(os.Getenv("ODAI_LOG_LEVEL"), true)
	cobra.CheckErr(newCmd().Execute())
}
