// The repoqa client spawns the protocol server, loads one repository
// snapshot, summarizes it, and answers questions in an interactive loop.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"repoqa/internal/config"
	"repoqa/internal/llm"
	"repoqa/internal/pipeline"
	"repoqa/internal/rpc"
	"repoqa/internal/summary"
	"repoqa/internal/tools"
)

func main() {
	serverCmd := flag.String("server", "repoqa-server", "server command to spawn")
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: repoqa-client [flags] <github-username> <repo-name>")
		fmt.Fprintln(os.Stderr, "example: repoqa-client octocat Hello-World")
		os.Exit(1)
	}
	username, repoName := flag.Arg(0), flag.Arg(1)

	// Credentials are validated before any network activity; a missing
	// model key is fatal here.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llmCli, err := llm.New(ctx, cfg.Provider, cfg.ModelKey(), cfg.Model)
	if err != nil {
		log.Fatalf("client: configure %s: %v", cfg.Provider, err)
	}
	defer llmCli.Close()

	if err := run(ctx, llmCli, *serverCmd, username, repoName); err != nil {
		log.Fatalf("client: %v", err)
	}
}

func run(ctx context.Context, llmCli llm.Client, serverCmd, username, repoName string) error {
	rc, err := rpc.Start(ctx, serverCmd)
	if err != nil {
		return err
	}
	// The subprocess is reaped on every exit path, signals included.
	defer rc.Close()

	if err := rc.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	sess := &tools.Session{RPC: rc, Username: username, RepoName: repoName}
	log.Printf("client: loading repository %s/%s via %s", username, repoName, llmCli.Name())
	snap, err := sess.RepoData(ctx)
	if err != nil {
		return err
	}

	sum := summary.Summarize(snap)
	if err := summary.WriteDiagnostic(summary.DiagnosticFile, sum); err != nil {
		log.Printf("client: %v", err)
	}
	fmt.Printf("Repository %q loaded: %d files analyzed\n", repoName, sum.TotalFiles)
	fmt.Printf("File types: %v\n", sum.FileTypes)
	fmt.Println("\nAsk me anything about the code. Type 'quit' to exit.")

	pipe := &pipeline.Pipeline{LLM: llmCli, Fetcher: sess, Summary: sum}
	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !sc.Scan() {
			break
		}
		question := strings.TrimSpace(sc.Text())
		if question == "" {
			continue
		}
		switch strings.ToLower(question) {
		case "quit", "exit", "q":
			return nil
		}

		sel := pipe.SelectFiles(ctx, question)
		if sel.Fallback {
			if len(sel.Rejected) > 0 {
				log.Printf("client: model suggested unknown files %v; falling back to %v", sel.Rejected, sel.Paths)
			} else {
				log.Printf("client: file selection degraded; falling back to %v", sel.Paths)
			}
		}
		if len(sel.Paths) == 0 {
			fmt.Println("No relevant files identified. Please rephrase your question.")
			continue
		}
		fmt.Printf("Reading %d file(s): %s\n", len(sel.Paths), strings.Join(sel.Paths, ", "))

		fmt.Printf("\nAI: %s\n", pipe.Answer(ctx, question, sel))
		if ctx.Err() != nil {
			return nil
		}
	}
	return sc.Err()
}
