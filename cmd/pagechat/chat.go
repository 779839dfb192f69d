package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatPage pageFlags

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat about a page",
	Long: `Start an interactive conversation about a page. The page is re-read on
every message. Type /reset to start a new session and /quit to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		env, err := prepareRuntimeEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		return runREPL(ctx, env, chatPage)
	},
}

func init() {
	chatPage.register(chatCmd.Flags())
	rootCmd.AddCommand(chatCmd)
}

func runREPL(ctx context.Context, env *runtimeEnv, p pageFlags) error {
	controller := env.controller(ctx, env.loader(p))
	st, err := controller.Open(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}

	target := p.url
	if p.file != "" {
		target = p.file
	}
	renderHeader(os.Stdout, "pagechat", fmt.Sprintf("page: %s | session: %s", orNone(target), st.ID))
	if !controller.CredentialSaved(ctx) {
		fmt.Println(metaStyle.Render("No API key saved. Run `pagechat key set` first."))
	}

	s := bufio.NewScanner(os.Stdin)
	s.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Print("you> ")
		if !s.Scan() {
			break
		}
		line := strings.TrimSpace(s.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			st, err := controller.Reset(ctx)
			if err != nil {
				fmt.Println(errorStyle.Render("Error: " + err.Error()))
				continue
			}
			fmt.Println(metaStyle.Render("New session: " + st.ID))
			continue
		}

		if b, sent := controller.Send(ctx, line); sent {
			renderBubble(os.Stdout, b)
		}
	}
	return s.Err()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
