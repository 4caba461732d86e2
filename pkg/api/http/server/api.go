package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"

	"github.com/cipher-x-sudo/midjourney-proxy/pkg/api"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/api/http/common"
	"github.com/cipher-x-sudo/midjourney-proxy/pkg/structs"
)

const (
	wait = 30 * time.Second
)

type Server struct {
	addr       string
	secret     string
	debug      bool
	svc        api.API
	exit       chan os.Signal
	httpserver *http.Server
}

func (s *Server) ServeForever(svc api.API) error {
	s.svc = svc

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.Health).Methods(http.MethodGet)
	router.HandleFunc(common.API_SUBMIT_IMAGINE, s.SubmitOp(s.imagine)).Methods(http.MethodPost)
	router.HandleFunc(common.API_SUBMIT_CHANGE, s.SubmitOp(s.change)).Methods(http.MethodPost)
	router.HandleFunc(common.API_SUBMIT_SIMPLE_CHANGE, s.SubmitOp(s.simpleChange)).Methods(http.MethodPost)
	router.HandleFunc(common.API_SUBMIT_DESCRIBE, s.SubmitOp(s.describe)).Methods(http.MethodPost)
	router.HandleFunc(common.API_SUBMIT_BLEND, s.SubmitOp(s.blend)).Methods(http.MethodPost)
	router.HandleFunc(common.API_SUBMIT_SHORTEN, s.SubmitOp(s.shorten)).Methods(http.MethodPost)
	router.HandleFunc(common.API_TASK_FETCH, s.FetchTask).Methods(http.MethodGet)
	router.HandleFunc(common.API_TASK_LIST, s.ListTasks).Methods(http.MethodGet)
	router.HandleFunc(common.API_TASK_LIST_BY_IDS, s.ListTasksByIDs).Methods(http.MethodPost)
	router.HandleFunc(common.API_ACCOUNT_LIST, s.Accounts).Methods(http.MethodGet)
	router.HandleFunc(common.API_ACCOUNT_FETCH, s.FetchAccount).Methods(http.MethodGet)
	router.HandleFunc(common.API_ACCOUNT_UPDATE, s.UpdateAccount).Methods(http.MethodPatch)

	if s.secret != "" {
		router.Use(secretMiddleware(s.secret))
	}
	if s.debug {
		log.Println("Debug enabled, adding per-request logging middleware")
		router.Use(loggingMiddleware)
	}

	s.httpserver = &http.Server{
		Handler:      router,
		Addr:         s.addr,
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	go func() {
		log.Println("Listening on", s.httpserver.Addr)
		if err := s.httpserver.ListenAndServe(); err != nil {
			log.Println(err)
		}
	}()

	signal.Notify(s.exit, os.Interrupt)
	defer s.Close()
	<-s.exit

	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	s.httpserver.Shutdown(ctx)
	s.svc.Close()
	return nil
}

// SubmitOp wraps one submission endpoint: decode, dispatch, encode the
// result with the status code its return code maps to.
func (s *Server) SubmitOp(fn func(*http.Request) (*structs.SubmitResult, error)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := fn(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(mapCode(res.Code))
		if err := json.NewEncoder(w).Encode(res); err != nil {
			log.Println("encode response:", err)
		}
	}
}

func (s *Server) imagine(r *http.Request) (*structs.SubmitResult, error) {
	req := &structs.ImagineRequest{}
	if err := unmarshalJson(r, req); err != nil {
		return nil, err
	}
	return s.svc.SubmitImagine(r.Context(), req), nil
}

func (s *Server) change(r *http.Request) (*structs.SubmitResult, error) {
	req := &structs.ChangeRequest{}
	if err := unmarshalJson(r, req); err != nil {
		return nil, err
	}
	return s.svc.SubmitChange(r.Context(), req), nil
}

func (s *Server) simpleChange(r *http.Request) (*structs.SubmitResult, error) {
	req := &structs.SimpleChangeRequest{}
	if err := unmarshalJson(r, req); err != nil {
		return nil, err
	}
	return s.svc.SubmitSimpleChange(r.Context(), req), nil
}

func (s *Server) describe(r *http.Request) (*structs.SubmitResult, error) {
	req := &structs.DescribeRequest{}
	if err := unmarshalJson(r, req); err != nil {
		return nil, err
	}
	return s.svc.SubmitDescribe(r.Context(), req), nil
}

func (s *Server) blend(r *http.Request) (*structs.SubmitResult, error) {
	req := &structs.BlendRequest{}
	if err := unmarshalJson(r, req); err != nil {
		return nil, err
	}
	return s.svc.SubmitBlend(r.Context(), req), nil
}

func (s *Server) shorten(r *http.Request) (*structs.SubmitResult, error) {
	req := &structs.ShortenRequest{}
	if err := unmarshalJson(r, req); err != nil {
		return nil, err
	}
	return s.svc.SubmitShorten(r.Context(), req), nil
}

func (s *Server) FetchTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, err := s.svc.Task(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if t == nil {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	writeJson(w, t)
}

func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := &structs.TaskQuery{}
	if err := unmarshalQuery(w, r, q); err != nil {
		return
	}
	items, err := s.svc.ListTasks(r.Context(), q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if s.debug {
		log.Println(r.URL, "returned", len(items), "items")
	}
	writeJson(w, items)
}

func (s *Server) ListTasksByIDs(w http.ResponseWriter, r *http.Request) {
	body := &struct {
		IDs []string `json:"ids"`
	}{}
	if err := unmarshalJson(r, body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	items, err := s.svc.Tasks(r.Context(), body.IDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJson(w, items)
}

func (s *Server) Accounts(w http.ResponseWriter, r *http.Request) {
	writeJson(w, s.svc.Accounts())
}

func (s *Server) FetchAccount(w http.ResponseWriter, r *http.Request) {
	acc := s.svc.Account(mux.Vars(r)["id"])
	if acc == nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	writeJson(w, acc)
}

func (s *Server) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	body := &struct {
		Enabled bool `json:"enabled"`
	}{}
	if err := unmarshalJson(r, body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.svc.SetAccountEnabled(mux.Vars(r)["id"], body.Enabled); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJson(w, map[string]bool{"ok": true})
}

func (s *Server) Close() error {
	s.exit <- os.Interrupt
	return nil
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

func NewServer(addr, secret string, debug bool) *Server {
	return &Server{
		addr:   addr,
		secret: secret,
		debug:  debug,
		exit:   make(chan os.Signal, 1),
	}
}
