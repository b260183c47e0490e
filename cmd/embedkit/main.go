package main

import (
	"log"

	"github.com/embedkit/embedkit/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ embedkit failed to start: %v", err)
	}
}
