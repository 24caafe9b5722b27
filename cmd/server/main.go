// The repoqa server exposes GitHub repository retrieval as JSON-RPC tools
// on stdio. Logs go to stderr so stdout stays a clean protocol channel.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"repoqa/internal/githubapi"
	"repoqa/internal/repoload"
	"repoqa/internal/rpc"
	"repoqa/internal/tools"
)

func main() {
	ws := flag.String("ws", "", "also serve the protocol over websocket on this address (e.g. :8377)")
	flag.Parse()

	_ = godotenv.Load()
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		log.Println("server: GITHUB_TOKEN not set; GitHub API rate limits will be lower (60/hour vs 5000/hour)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gh := githubapi.NewClient(token)
	defer gh.Close()

	reg := rpc.NewRegistry()
	tools.RegisterDefaultTools(reg, tools.Host{
		GitHub: gh,
		Loader: &repoload.Loader{GitHub: gh},
	})
	srv := &rpc.Server{Name: "repoqa-server", Version: "0.1.0", Registry: reg}

	if *ws != "" {
		go func() {
			if err := srv.ServeWS(ctx, *ws, "/rpc"); err != nil {
				log.Printf("server: websocket listener: %v", err)
			}
		}()
	}

	if err := srv.Serve(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server: %v", err)
	}
}
