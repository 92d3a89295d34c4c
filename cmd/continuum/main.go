package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "continuum",
		Short: "Local-first AI chat session core",
	}
	root.AddCommand(serveCmd(), verifyCmd(), hashCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
