package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ChamsBouzaiene/pagechat/internal/engine/protocol"
)

var (
	enginePage  pageFlags
	engineStdio bool
)

var engineCmd = &cobra.Command{
	Use:   "engine",
	Short: "Serve protocol messages as NDJSON over stdin/stdout",
	Long: `Read one JSON message per line from stdin and write one reply per line
to stdout. SCRAPE_REQUEST reads the configured page; SCRAPED_CONTENT asks the
completion endpoint. Logs go to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !engineStdio {
			return errors.New("engine currently supports --stdio only")
		}
		// Keep stdout clean for the protocol.
		log.SetOutput(os.Stderr)

		ctx := cmd.Context()
		env, err := prepareRuntimeEnv(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: failed to prepare runtime environment: %v\n", err)
			return err
		}
		defer env.Close()

		return runStdIOEngine(ctx, os.Stdin, os.Stdout, env.router(env.loader(enginePage)))
	},
}

func init() {
	enginePage.register(engineCmd.Flags())
	engineCmd.Flags().BoolVar(&engineStdio, "stdio", false, "Serve the engine over the NDJSON stdio protocol")
	rootCmd.AddCommand(engineCmd)
}

func runStdIOEngine(ctx context.Context, in io.Reader, out io.Writer, handler protocol.Handler) error {
	log.Println("🔌 Starting engine stdio bridge (--stdio)")
	runner := newStdIORunner(in, out, handler)
	runner.emit(protocol.NewStatusEvent("engine_ready", "stdio protocol ready"))
	return runner.Run(ctx)
}

type stdioRunner struct {
	scanner *bufio.Scanner
	writer  *bufio.Writer
	events  chan any
	handler protocol.Handler
	wg      sync.WaitGroup
}

func newStdIORunner(in io.Reader, out io.Writer, handler protocol.Handler) *stdioRunner {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	return &stdioRunner{
		scanner: scanner,
		writer:  bufio.NewWriter(out),
		events:  make(chan any, 256),
		handler: handler,
	}
}

// Run reads lines until EOF or ctx ends. Each line is handled on its own
// goroutine so a slow completion does not block page reads.
func (r *stdioRunner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go r.flushEvents(errCh)

	for r.scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		r.wg.Add(1)
		go func(l string) {
			defer r.wg.Done()
			r.handleLine(ctx, l)
		}(line)
	}
	scanErr := r.scanner.Err()

	r.wg.Wait()
	if scanErr != nil && !errors.Is(scanErr, io.EOF) {
		r.emit(protocol.Failure(fmt.Sprintf("stdin error: %v", scanErr)))
	}
	close(r.events)
	return <-errCh
}

func (r *stdioRunner) flushEvents(errCh chan<- error) {
	for ev := range r.events {
		if err := r.writeEvent(ev); err != nil {
			errCh <- err
			// Drain so senders never block.
			for range r.events {
			}
			return
		}
	}
	errCh <- r.writer.Flush()
}

func (r *stdioRunner) writeEvent(ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := r.writer.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return r.writer.Flush()
}

func (r *stdioRunner) emit(ev any) {
	r.events <- ev
}

func (r *stdioRunner) handleLine(ctx context.Context, line string) {
	msg, err := protocol.DecodeMessage([]byte(line))
	if err != nil {
		log.Printf("stdio: invalid message %s: %v", truncate(line, 256), err)
		reply := protocol.Failure(err.Error())
		reply.ID = requestID(line)
		r.emit(reply)
		return
	}
	r.emit(r.handler.Handle(ctx, msg))
}

// requestID pulls a string id out of a line that failed validation, if it has one.
func requestID(line string) string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal([]byte(line), &head); err != nil {
		return ""
	}
	return head.ID
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	if limit <= 3 {
		return s[:limit]
	}
	return s[:limit-3] + "..."
}
