package main

import (
	"os"

	"oldprague.photos/fotoatlas/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
