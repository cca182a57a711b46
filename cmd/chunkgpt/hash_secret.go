package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yanqian/chunkgpt/internal/domain/auth"
)

var hashSecretCmd = &cobra.Command{
	Use:   "hash-secret",
	Short: "Hash an API client secret read from stdin for auth.clients[].secretHash",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var secret string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &secret); err != nil {
			return fmt.Errorf("read secret: %w", err)
		}
		hashed, err := auth.HashSecret(strings.TrimSpace(secret))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashSecretCmd)
}
