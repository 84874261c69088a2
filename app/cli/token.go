package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"adOptimizer/pkg/utils"
)

func newTokenCmd() *cobra.Command {
	var (
		userID uint
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT for the admin API (needs JWT_SECRET)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := utils.GenerateJWTWithTTL(strconv.FormatUint(uint64(userID), 10), role, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().UintVar(&userID, "user-id", 0, "User id stored in the token")
	cmd.Flags().StringVar(&role, "role", "admin", "Role stored in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}
