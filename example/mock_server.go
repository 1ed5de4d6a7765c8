package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// queueState tracks the pending count for one mock queue.
type queueState struct {
	pending      int
	nextChangeAt time.Time
}

// StartMockCountServer runs mock count endpoints whose pending counts drift
// every 20-60 seconds. Each queue answers in a different JSON shape:
//
//	/count/approve  {"count": N}
//	/count/dispatch [ ... N items ... ]
//	/count/ideas    {"data": [ ... ]}
//	/count/returns  {"items": [ ... ]}
//	/count/flaky    500 every other request
//
// Call this in a goroutine before creating countboard tiles.
func StartMockCountServer(addr string) {
	var (
		states = make(map[string]*queueState)
		mu     sync.Mutex
		calls  int
	)

	pending := func(queue string) int {
		mu.Lock()
		defer mu.Unlock()

		state, exists := states[queue]
		if !exists {
			state = &queueState{
				pending:      rand.Intn(6),
				nextChangeAt: time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second),
			}
			states[queue] = state
		}

		if time.Now().After(state.nextChangeAt) {
			old := state.pending
			state.pending = max(0, state.pending+rand.Intn(5)-2)
			state.nextChangeAt = time.Now().Add(time.Duration(20+rand.Intn(41)) * time.Second)
			slog.Info("pending changed", "queue", queue, "from", old, "to", state.pending)
		}
		return state.pending
	}

	items := func(n int) []map[string]int {
		out := make([]map[string]int, n)
		for i := range out {
			out[i] = map[string]int{"row": i + 1}
		}
		return out
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /count/{queue}", func(w http.ResponseWriter, r *http.Request) {
		queue := r.PathValue("queue")

		// simulate small latency variance
		time.Sleep(time.Duration(50+rand.Intn(250)) * time.Millisecond)

		var body any
		switch queue {
		case "approve":
			body = map[string]int{"count": pending(queue)}
		case "dispatch":
			body = items(pending(queue))
		case "ideas":
			body = map[string]any{"data": items(pending(queue))}
		case "returns":
			body = map[string]any{"items": items(pending(queue))}
		case "flaky":
			mu.Lock()
			calls++
			fail := calls%2 == 0
			mu.Unlock()
			if fail {
				http.Error(w, "upstream unavailable", http.StatusInternalServerError)
				return
			}
			body = map[string]int{"count": pending(queue)}
		default:
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("failed to write response", "error", err)
		}
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}
