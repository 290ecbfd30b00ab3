package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"issuesync/internal/auth"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the API token",
	}

	hashCmd := &cobra.Command{
		Use:   "hash",
		Short: "Hash a token read from stdin for api_token_hash",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token: %w", err)
			}
			token := strings.TrimRight(line, "\r\n")
			if err := auth.ValidateToken(token); err != nil {
				return err
			}
			hash, err := auth.HashToken(token)
			if err != nil {
				return err
			}
			return writePlain("%s\n", hash)
		},
	}

	tokenCmd.AddCommand(hashCmd)
	return tokenCmd
}
