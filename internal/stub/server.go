// Package stub serves a stand-in for the prayer-data endpoint so runs can
// be rehearsed without touching the real service.
package stub

import (
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// PrayerDataPath is the only route the stub answers.
const PrayerDataPath = "/getPrayerData"

// halls maps hall identifiers to the sheet names the real service uses.
var halls = map[string]string{
	"hall-h3-new":     "H3（新生）",
	"hall-h3-peace":   "H3（和平）",
	"hall-h3-english": "H3（英語）",
	"hall-h62":        "H62",
	"hall-h71":        "H71",
	"hall-h82":        "H82",
	"hall-h103":       "H103",
}

// HallName returns the sheet name for a hall identifier.
func HallName(hall string) (string, bool) {
	name, ok := halls[hall]
	return name, ok
}

// Halls returns the known hall identifiers, sorted.
func Halls() []string {
	ids := make([]string, 0, len(halls))
	for id := range halls {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Options configures a stub handler.
type Options struct {
	// Status forces every prayer-data response to this status when non-zero.
	Status int

	// Latency delays every response.
	Latency time.Duration
}

// PrayerData is the success body for GET /getPrayerData.
type PrayerData struct {
	Hall  string       `json:"hall"`
	Sheet string       `json:"sheet"`
	Items []PrayerItem `json:"items"`
}

// PrayerItem is one row of the prayer sheet.
type PrayerItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Item string `json:"item"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Handler is an http.Handler that answers GET /getPrayerData and records
// the request URI of everything it receives.
type Handler struct {
	opts Options
	mux  *http.ServeMux

	mu       sync.Mutex
	requests []string
}

// NewHandler creates a stub handler.
func NewHandler(opts Options) *Handler {
	h := &Handler{opts: opts, mux: http.NewServeMux()}
	h.mux.HandleFunc(PrayerDataPath, h.prayerData)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.requests = append(h.requests, r.Method+" "+r.URL.RequestURI())
	h.mu.Unlock()

	if h.opts.Latency > 0 {
		timer := time.NewTimer(h.opts.Latency)
		select {
		case <-r.Context().Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	h.mux.ServeHTTP(w, r)
}

// Requests returns "METHOD /uri?query" for every request received so far.
func (h *Handler) Requests() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.requests))
	copy(out, h.requests)
	return out
}

// Count returns the number of requests received so far.
func (h *Handler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.requests)
}

func (h *Handler) prayerData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "Method not allowed"})
		return
	}

	if h.opts.Status != 0 && h.opts.Status != http.StatusOK {
		writeJSON(w, h.opts.Status, errorBody{Message: http.StatusText(h.opts.Status)})
		return
	}

	hall := r.URL.Query().Get("hall")
	if hall == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Missing hall parameter"})
		return
	}
	sheet, ok := HallName(hall)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "Invalid hall: " + hall})
		return
	}

	writeJSON(w, http.StatusOK, PrayerData{Hall: hall, Sheet: sheet, Items: []PrayerItem{}})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
