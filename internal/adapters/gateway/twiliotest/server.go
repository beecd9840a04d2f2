package twiliotest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
)

// Server is a fake Twilio Messages API. It records every request and
// answers with a new SID unless a failure was scripted for the recipient.
type Server struct {
	mu       sync.Mutex
	ts       *httptest.Server
	URL      string
	requests []Request
	failures map[string]Failure
	seq      int
	closed   bool
}

type Request struct {
	Path     string
	Username string
	Password string
	PostData PostData
}

type PostData struct {
	To   string
	From string
	Body string
}

// Failure is the error response returned for a recipient.
// Raw, when set, is written verbatim instead of a Twilio error body.
type Failure struct {
	Status  int
	Code    int
	Message string
	Raw     string
}

func NewServer() *Server {
	s := &Server{failures: make(map[string]Failure)}
	ts := httptest.NewServer(http.HandlerFunc(s.handle))
	s.ts = ts
	s.URL = ts.URL
	return s
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	v, _ := url.ParseQuery(string(data))
	user, pass, _ := r.BasicAuth()

	req := Request{
		Path:     r.URL.Path,
		Username: user,
		Password: pass,
		PostData: PostData{To: v.Get("To"), From: v.Get("From"), Body: v.Get("Body")},
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	f, failed := s.failures[req.PostData.To]
	s.seq++
	sid := fmt.Sprintf("SM%032x", s.seq)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failed {
		w.WriteHeader(f.Status)
		if f.Raw != "" {
			io.WriteString(w, f.Raw)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    f.Code,
			"message": f.Message,
			"status":  f.Status,
		})
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sid":    sid,
		"status": "queued",
		"to":     req.PostData.To,
		"from":   req.PostData.From,
	})
}

// Fail makes requests addressed to `to` return f.
func (s *Server) Fail(to string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[to] = f
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

func (s *Server) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.ts.Close()
}
