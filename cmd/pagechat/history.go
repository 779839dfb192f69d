package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/pagechat/internal/session"
)

var historyFormat string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the current session log",
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := session.NewExporter(historyFormat)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := prepareRuntimeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		st, err := env.Sessions.Resume(ctx)
		if err != nil {
			return err
		}
		turns, err := env.Sessions.Turns(ctx, st)
		if err != nil {
			return err
		}
		return exporter.Export(session.Export{SessionID: st.ID, Turns: turns}, cmd.OutOrStdout())
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the current session and start a new one",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := prepareRuntimeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		st, err := env.Sessions.Resume(ctx)
		if err != nil {
			return err
		}
		next, err := env.Sessions.Reset(ctx, st)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session cleared: %s\nNew session: %s\n", st.ID, next.ID)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "Output format: text, json, yaml, md")
	rootCmd.AddCommand(historyCmd, resetCmd)
}
