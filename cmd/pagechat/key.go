package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the completion API key",
}

var keySetCmd = &cobra.Command{
	Use:   "set [KEY]",
	Short: "Save the API key (read from stdin when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := prepareRuntimeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var key string
		if len(args) == 1 {
			key = args[0]
		} else {
			fmt.Fprint(cmd.ErrOrStderr(), "API key: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read key: %w", err)
			}
			key = line
		}

		if err := env.Credentials.Set(ctx, strings.TrimSpace(key)); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether an API key is saved",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := prepareRuntimeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if env.Credentials.Saved(ctx) {
			fmt.Fprintln(cmd.OutOrStdout(), "API key is saved.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No API key saved.")
		}
		return nil
	},
}

func init() {
	keyCmd.AddCommand(keySetCmd, keyStatusCmd)
	rootCmd.AddCommand(keyCmd)
}
