package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ntwoods/countboard"
)

func main() {
	// start mock server (see mock_server.go)
	go StartMockCountServer(":9999")
	time.Sleep(100 * time.Millisecond)

	approve, err := countboard.NewTile("approve", "Approve Staging List",
		"https://example.com/approve",
		"http://localhost:9999/count/approve",
		countboard.WithDescription("Approve eligible staging list entries quickly and safely."),
		countboard.WithIcon("check"),
	)
	if err != nil {
		slog.Error("failed to create tile", "error", err)
		os.Exit(1)
	}

	dispatch, _ := countboard.NewTile("dispatch", "Marking on LR",
		"https://example.com/dispatch",
		"http://localhost:9999/count/dispatch",
		countboard.WithDescription("See LR/RM pending list and complete marking workflow."),
		countboard.WithIcon("truck"),
	)

	ideas, _ := countboard.NewTile("ideas", "Suggestions",
		"https://example.com/ideas",
		"http://localhost:9999/count/ideas",
		countboard.WithIcon("bulb"),
	)

	returns, _ := countboard.NewTile("returns", "Returns",
		"https://example.com/returns",
		"http://localhost:9999/count/returns",
		countboard.WithIcon("refresh"),
		countboard.WithTimeout(2*time.Second),
	)

	// fails every other round to show the error pill keeping the last count
	flaky, _ := countboard.NewTile("flaky", "Flaky Queue",
		"https://example.com/flaky",
		"http://localhost:9999/count/flaky",
		countboard.WithExtractor(countboard.CountField("count")),
	)

	board, err := countboard.New(
		countboard.WithTiles(approve, dispatch, ideas, returns, flaky),
		countboard.WithRefreshInterval(15*time.Second),
		countboard.WithPort(8080),
		countboard.WithTitle("EA Portal"),
		countboard.WithUser("Demo User"),
		countboard.WithQuickLink("Open Suggestions Preview", "https://example.com/preview"),
		countboard.WithStatusCallback(func(r countboard.TileResult) {
			if r.Err != nil {
				slog.Warn("count unavailable", "tile", r.TileID, "error", r.Err)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create countboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   countboard Demo                                     ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Tiles:                                              ║")
	fmt.Println("  ║   • 4 queues, one per tolerated response shape        ║")
	fmt.Println("  ║   • 1 flaky queue failing every other round           ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := board.Start(ctx); err != nil {
		slog.Error("countboard error", "error", err)
		os.Exit(1)
	}
}
