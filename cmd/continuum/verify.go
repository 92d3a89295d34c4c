package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/continuum-ai/continuum/internal/verify"
)

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file> <sha256>",
		Short: "Check a model file against its expected SHA-256",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := verify.IntegrityWithProgress(args[0], args[1], func(p verify.Progress) {
				fmt.Printf("\rhashing... %.0f%%", p.Percentage)
			})
			if err != nil {
				return err
			}
			fmt.Println()
			if !res.Verified {
				return fmt.Errorf("checksum mismatch: got %s, want %s", res.ComputedHash, res.ExpectedHash)
			}
			fmt.Printf("ok  %s  (%d bytes)\n", res.ComputedHash, res.FileSize)
			return nil
		},
	}
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file>",
		Short: "Print the SHA-256 of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := verify.Checksum(args[0])
			if err != nil {
				return err
			}
			fmt.Println(sum)
			return nil
		},
	}
}
