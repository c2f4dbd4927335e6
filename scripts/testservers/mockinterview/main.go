// Command mockinterview runs a fake conversational interview backend for
// manual load runs: GET /{interview_key}/{session_id} serves a landing page
// and POST /next answers conversation turns with JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

type turnRequest struct {
	SessionID   string `json:"session_id"`
	InterviewID string `json:"interview_id"`
	UserMessage string `json:"user_message"`
}

type turnResponse struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Turn      int    `json:"turn"`
}

type server struct {
	minLatency time.Duration
	maxLatency time.Duration
	errorRate  float64

	mu    sync.Mutex
	rnd   *rand.Rand
	turns map[string]int
}

func main() {
	port := flag.Int("port", 8000, "Listening port")
	minLatency := flag.Duration("min-latency", 50*time.Millisecond, "Minimum simulated response latency")
	maxLatency := flag.Duration("max-latency", 400*time.Millisecond, "Maximum simulated response latency")
	errorRate := flag.Float64("error-rate", 0, "Probability of a 500 response per turn (0..1)")
	flag.Parse()

	s := &server{
		minLatency: *minLatency,
		maxLatency: *maxLatency,
		errorRate:  *errorRate,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		turns:      make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/next", s.handleTurn)
	mux.HandleFunc("/", s.handleLanding)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("mock interview server listening on %s (latency %s-%s, error rate %.2f)",
		addr, s.minLatency, s.maxLatency, s.errorRate)
	log.Fatal(http.ListenAndServe(addr, mux))
}

func (s *server) handleLanding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.sleep()
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, "<html><body>Interview session %s</body></html>", r.URL.Path)
}

func (s *server) handleTurn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload turnRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid turn payload", http.StatusBadRequest)
		return
	}
	if payload.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	s.sleep()
	if s.shouldFail() {
		http.Error(w, "model backend overloaded", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	s.turns[payload.SessionID]++
	turn := s.turns[payload.SessionID]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(turnResponse{
		SessionID: payload.SessionID,
		Question:  fmt.Sprintf("Follow-up question %d for %s", turn, payload.InterviewID),
		Turn:      turn,
	})
}

func (s *server) sleep() {
	if s.maxLatency <= 0 {
		return
	}
	delay := s.minLatency
	if s.maxLatency > s.minLatency {
		s.mu.Lock()
		delay += time.Duration(s.rnd.Int63n(int64(s.maxLatency - s.minLatency)))
		s.mu.Unlock()
	}
	time.Sleep(delay)
}

func (s *server) shouldFail() bool {
	if s.errorRate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64() < s.errorRate
}
