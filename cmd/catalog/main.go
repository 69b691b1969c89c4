package main

import (
	"os"

	"gigcity.app/catalog/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
