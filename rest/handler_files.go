package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
)

func (s *Server) HandleDownloadExcel(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	path := s.records.ExcelPath(bot.ID, mux.Vars(r)["name"])
	serveRecordFile(w, r, path, "text/csv")
}

func (s *Server) HandleDownloadText(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	path := s.records.TextPath(bot.ID, mux.Vars(r)["name"])
	serveRecordFile(w, r, path, "text/plain")
}

func serveRecordFile(w http.ResponseWriter, r *http.Request, path string, contentType string) {
	if _, err := os.Stat(path); err != nil {
		respondWithError(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, path)
}
