package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askPage pageFlags

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about a page and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := prepareRuntimeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		controller := env.controller(ctx, env.loader(askPage))
		if _, err := controller.Open(ctx); err != nil {
			return fmt.Errorf("failed to open session: %w", err)
		}

		b, sent := controller.Send(ctx, strings.Join(args, " "))
		if !sent {
			return errors.New("question is empty")
		}
		if b.Error {
			return errors.New(strings.TrimPrefix(b.Text, "Error: "))
		}
		fmt.Fprintln(cmd.OutOrStdout(), b.Text)
		return nil
	},
}

func init() {
	askPage.register(askCmd.Flags())
	rootCmd.AddCommand(askCmd)
}
