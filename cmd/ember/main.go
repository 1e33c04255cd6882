// Package main provides the Ember update-engine CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("Ember %s\n", version)
			return
		case "train":
			if err := runTrain(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "ember train: %v\n", err)
				os.Exit(1)
			}
			return
		case "inspect":
			if err := runInspect(os.Args[2:]); err != nil {
				fmt.Fprintf(os.Stderr, "ember inspect: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	fmt.Printf("Ember %s - parameter-update engine\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version            Show version")
	fmt.Println("  train              Run a demo optimization from a YAML config")
	fmt.Println("  inspect <file>     Print the header of a .ember checkpoint")
}
