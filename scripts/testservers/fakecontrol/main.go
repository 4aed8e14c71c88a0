// Command fakecontrol runs a stand-in control service for local benchmark
// runs. It serves the node-state and version endpoints over plain HTTP with
// configurable latency and failure injection.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"
)

func main() {
	port := flag.Int("port", 4523, "Listening port")
	nodes := flag.Int("nodes", 3, "Number of nodes to report")
	latency := flag.Duration("latency", 0, "Artificial response delay")
	errorRate := flag.Float64("error-rate", 0, "Fraction of requests to fail with 500 (0 to 1)")
	flag.Parse()

	type node struct {
		UUID string `json:"uuid"`
		Host string `json:"host"`
	}
	state := make([]node, *nodes)
	for i := range state {
		state[i] = node{
			UUID: fmt.Sprintf("%08x-0000-4000-8000-%012d", rand.Uint32(), i),
			Host: fmt.Sprintf("10.0.0.%d", i+1),
		}
	}

	wrap := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if *latency > 0 {
				time.Sleep(*latency)
			}
			if *errorRate > 0 && rand.Float64() < *errorRate {
				http.Error(w, "injected failure", http.StatusInternalServerError)
				return
			}
			h(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/state/nodes", wrap(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(state)
	}))
	mux.HandleFunc("/v1/version", wrap(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"version": "fakecontrol-0.1"})
	}))

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("fake control service listening on %s (%d nodes)", addr, *nodes)
	log.Fatal(http.ListenAndServe(addr, mux))
}
