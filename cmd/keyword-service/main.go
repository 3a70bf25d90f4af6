package main

import (
	"os"

	"github.com/keywordpulse/keywordpulse/keywordservice"
)

func main() {
	if err := keywordservice.Run(); err != nil {
		os.Exit(1)
	}
}
