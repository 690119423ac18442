// Package bookertest provides an in-process restful-booker for tests.
package bookertest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wesleyorama2/booker/internal/booker"
)

// Options switch the fake into degraded modes.
type Options struct {
	// Latency is slept before every response.
	Latency time.Duration
	// DropToken makes /auth answer 200 without a token field.
	DropToken bool
	// NonJSONAuth makes /auth answer a plain-text body.
	NonJSONAuth bool
	// FailCreate makes POST /booking answer 500.
	FailCreate bool
	// CreateWithoutID makes POST /booking answer 200 without bookingid.
	CreateWithoutID bool
	// AnonymousDelete lets DELETE succeed without a token.
	AnonymousDelete bool
	// ListKey is the id key used in list items ("bookingid" or "id").
	ListKey string
}

// Server is a fake restful-booker backed by an in-memory map.
type Server struct {
	*httptest.Server

	opts  Options
	creds booker.Credentials

	mu       sync.Mutex
	nextID   int64
	bookings map[int64]booker.Booking
	tokens   map[string]bool

	counts sync.Map // "METHOD route" -> *atomic.Int64

	// DeletesWithToken and DeletesWithoutToken count DELETE requests by
	// whether a token cookie was present.
	DeletesWithToken    atomic.Int64
	DeletesWithoutToken atomic.Int64
}

// NewServer starts a fake with default credentials.
func NewServer(opts Options) *Server {
	s := &Server{
		opts:     opts,
		creds:    booker.DefaultCredentials(),
		bookings: make(map[int64]booker.Booking),
		tokens:   make(map[string]bool),
	}
	if s.opts.ListKey == "" {
		s.opts.ListKey = "bookingid"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", s.handle("GET /ping", s.ping))
	mux.HandleFunc("POST /auth", s.handle("POST /auth", s.auth))
	mux.HandleFunc("GET /booking", s.handle("GET /booking", s.list))
	mux.HandleFunc("POST /booking", s.handle("POST /booking", s.create))
	mux.HandleFunc("GET /booking/{id}", s.handle("GET /booking/{id}", s.get))
	mux.HandleFunc("PUT /booking/{id}", s.handle("PUT /booking/{id}", s.update))
	mux.HandleFunc("PATCH /booking/{id}", s.handle("PATCH /booking/{id}", s.patch))
	mux.HandleFunc("DELETE /booking/{id}", s.handle("DELETE /booking/{id}", s.delete))

	s.Server = httptest.NewServer(mux)
	return s
}

// Count returns how many requests hit route, e.g. "POST /booking".
func (s *Server) Count(route string) int64 {
	if v, ok := s.counts.Load(route); ok {
		return v.(*atomic.Int64).Load()
	}
	return 0
}

// Len returns the number of stored bookings.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// Seed stores a booking directly and returns its id.
func (s *Server) Seed(b booker.Booking) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.bookings[s.nextID] = b
	return s.nextID
}

func (s *Server) handle(route string, h http.HandlerFunc) http.HandlerFunc {
	v, _ := s.counts.LoadOrStore(route, new(atomic.Int64))
	counter := v.(*atomic.Int64)
	return func(w http.ResponseWriter, r *http.Request) {
		counter.Add(1)
		if s.opts.Latency > 0 {
			time.Sleep(s.opts.Latency)
		}
		h(w, r)
	}
}

func (s *Server) ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("Created"))
}

func (s *Server) auth(w http.ResponseWriter, r *http.Request) {
	if s.opts.NonJSONAuth {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("auth service warming up"))
		return
	}

	var creds booker.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds != s.creds || s.opts.DropToken {
		writeJSON(w, http.StatusOK, map[string]string{"reason": "Bad credentials"})
		return
	}

	token := newToken()
	s.mu.Lock()
	s.tokens[token] = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	s.mu.Lock()
	items := make([]map[string]int64, 0, len(s.bookings))
	for id, b := range s.bookings {
		if f := q.Get("firstname"); f != "" && f != b.Firstname {
			continue
		}
		if l := q.Get("lastname"); l != "" && l != b.Lastname {
			continue
		}
		items = append(items, map[string]int64{s.opts.ListKey: id})
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	if s.opts.FailCreate {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}

	var b booker.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil || b.Firstname == "" || b.Lastname == "" {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}

	id := s.Seed(b)
	if s.opts.CreateWithoutID {
		writeJSON(w, http.StatusOK, map[string]interface{}{"booking": b})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookingid": id, "booking": b})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	b, _, ok := s.lookup(r)
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		forbidden(w)
		return
	}
	_, id, ok := s.lookup(r)
	if !ok {
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte("Method Not Allowed"))
		return
	}

	var b booker.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Bad Request"))
		return
	}
	s.mu.Lock()
	s.bookings[id] = b
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		forbidden(w)
		return
	}
	b, id, ok := s.lookup(r)
	if !ok {
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte("Method Not Allowed"))
		return
	}

	// Decode the partial document over the current state.
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("Bad Request"))
		return
	}
	s.mu.Lock()
	s.bookings[id] = b
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	hasToken := s.authorized(r)
	if hasToken {
		s.DeletesWithToken.Add(1)
	} else {
		s.DeletesWithoutToken.Add(1)
	}
	if !hasToken && !s.opts.AnonymousDelete {
		forbidden(w)
		return
	}

	_, id, ok := s.lookup(r)
	if !ok {
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte("Method Not Allowed"))
		return
	}
	s.mu.Lock()
	delete(s.bookings, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte("Created"))
}

func (s *Server) lookup(r *http.Request) (booker.Booking, int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return booker.Booking{}, 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, id, ok
}

func (s *Server) authorized(r *http.Request) bool {
	c, err := r.Cookie(booker.TokenCookie)
	if err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[c.Value]
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("Not Found"))
}

func forbidden(w http.ResponseWriter) {
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte("Forbidden"))
}

func newToken() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}
