package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		if jsonOutput {
			printJSON(map[string]interface{}{
				"success": false,
				"error":   userMessage(err),
			})
		} else {
			printError("%s", userMessage(err))
		}
		os.Exit(1)
	}
}
