package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("never printed")

	if len(os.Args) > 5 {
		os.Exit(2) // want `os.Exit call is forbidden in main function: os.Exit\(2\)`
	}

	exit(0)
}

func exit(code int) {
	os.Exit(code)
}
