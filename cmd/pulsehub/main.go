package main

import (
	"log"

	"github.com/dalemusser/pulsehub/internal/app/bootstrap"
)

func main() {
	if err := bootstrap.Run(); err != nil {
		log.Fatal(err)
	}
}
