package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
	"github.com/TexhubPro/texhub-telegram-bot-builder/record"
	"github.com/TexhubPro/texhub-telegram-bot-builder/runtime"
	"go.uber.org/zap"
)

type Server struct {
	http.Server
	Port       int
	storage    persistence.Storage
	supervisor *runtime.Supervisor
	records    *record.Store
}

func NewServer(httpPort int, storage persistence.Storage, supervisor *runtime.Supervisor, records *record.Store) (*Server, error) {
	s := &Server{
		Server: http.Server{
			Addr:        fmt.Sprintf(":%d", httpPort),
			IdleTimeout: 2 * time.Second,
		},
		Port:       httpPort,
		storage:    storage,
		supervisor: supervisor,
		records:    records,
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)

	router.HandleFunc("/bots", s.HandleCreateBot).Methods(http.MethodPost)
	router.HandleFunc("/bots", s.HandleListBots).Methods(http.MethodGet)
	router.HandleFunc("/bots/{id}", s.HandleGetBot).Methods(http.MethodGet)
	router.HandleFunc("/bots/{id}", s.HandleUpdateBot).Methods(http.MethodPatch)
	router.HandleFunc("/bots/{id}", s.HandleDeleteBot).Methods(http.MethodDelete)

	router.HandleFunc("/bots/{id}/flow", s.HandleSaveFlow).Methods(http.MethodPost)
	router.HandleFunc("/bots/{id}/start", s.HandleStartBot).Methods(http.MethodPost)
	router.HandleFunc("/bots/{id}/stop", s.HandleStopBot).Methods(http.MethodPost)

	router.HandleFunc("/bots/{id}/users", s.HandleListUsers).Methods(http.MethodGet)
	router.HandleFunc("/bots/{id}/chats", s.HandleListChats).Methods(http.MethodGet)
	router.HandleFunc("/bots/{id}/files/excel/{name}", s.HandleDownloadExcel).Methods(http.MethodGet)
	router.HandleFunc("/bots/{id}/files/text/{name}", s.HandleDownloadText).Methods(http.MethodGet)

	router.Use(loggingMiddleware)
	s.Handler = router
	return s, nil
}

func (s *Server) Start() error {
	logger.Info("starting http server on", zap.Int("port", s.Port))
	if err := s.ListenAndServe(); err != nil {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	logger.Info("stopping http server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		logger.Error("error shutting down http server")
	}
	return nil
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.RequestURI)
		next.ServeHTTP(w, r)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondOK(w http.ResponseWriter, message map[string]any) {
	respondWithJSON(w, http.StatusOK, message)
}

func respondOKWithoutBody(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]any{"status": "ok"})
}
