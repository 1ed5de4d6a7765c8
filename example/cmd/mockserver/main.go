// Standalone mock count server for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/countboard serve -c example/config.yaml
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
)

func main() {
	fmt.Println("Mock count server starting on :9999")
	fmt.Println("GET /count/{queue} returns a random pending count")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		mu     sync.Mutex
		counts = make(map[string]int)
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /count/{queue}", func(w http.ResponseWriter, r *http.Request) {
		queue := r.PathValue("queue")

		mu.Lock()
		n, ok := counts[queue]
		if !ok || rand.Intn(4) == 0 {
			n = rand.Intn(8)
			counts[queue] = n
		}
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"summary": map[string]int{"pending": n},
		})
	})

	if err := http.ListenAndServe(":9999", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
