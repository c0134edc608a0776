package rest

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/TexhubPro/texhub-telegram-bot-builder/logger"
	"github.com/TexhubPro/texhub-telegram-bot-builder/model"
	"github.com/TexhubPro/texhub-telegram-bot-builder/persistence"
	"go.uber.org/zap"
)

type botRequest struct {
	Name  *string `json:"name"`
	Token *string `json:"token"`
}

func (s *Server) HandleCreateBot(w http.ResponseWriter, r *http.Request) {
	var req botRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	bot := model.Bot{
		ID:     uuid.New().String(),
		Status: model.BOT_STATUS_STOPPED,
		Flow:   json.RawMessage(`{"nodes":[],"edges":[]}`),
	}
	if req.Name != nil {
		bot.Name = *req.Name
	}
	if req.Token != nil {
		bot.Token = *req.Token
	}
	if err := s.storage.SaveBot(bot); err != nil {
		logger.Error("error creating bot", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error creating bot")
		return
	}
	respondWithJSON(w, http.StatusCreated, bot)
}

func (s *Server) HandleListBots(w http.ResponseWriter, r *http.Request) {
	bots, err := s.storage.ListBots()
	if err != nil {
		logger.Error("error listing bots", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error listing bots")
		return
	}
	respondWithJSON(w, http.StatusOK, bots)
}

func (s *Server) HandleGetBot(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, bot)
}

func (s *Server) HandleUpdateBot(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	var req botRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	if req.Name != nil {
		bot.Name = *req.Name
	}
	if req.Token != nil {
		bot.Token = *req.Token
	}
	if err := s.storage.SaveBot(*bot); err != nil {
		logger.Error("error updating bot", zap.String("bot", bot.ID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error updating bot")
		return
	}
	respondWithJSON(w, http.StatusOK, bot)
}

func (s *Server) HandleDeleteBot(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	if s.supervisor.IsRunning(bot.ID) {
		if err := s.supervisor.Stop(bot.ID); err != nil {
			logger.Error("error stopping bot before delete", zap.String("bot", bot.ID), zap.Error(err))
		}
	}
	if err := s.storage.DeleteBot(bot.ID); err != nil {
		logger.Error("error deleting bot", zap.String("bot", bot.ID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error deleting bot")
		return
	}
	respondOKWithoutBody(w)
}

// HandleSaveFlow stores the request body as the bot's flow verbatim. The
// editor owns the document shape; the server only checks it is JSON.
func (s *Server) HandleSaveFlow(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	defer r.Body.Close()
	if !json.Valid(body) {
		respondWithError(w, http.StatusBadRequest, "flow must be valid json")
		return
	}
	if err := s.supervisor.SaveFlow(bot.ID, body); err != nil {
		logger.Error("error saving flow", zap.String("bot", bot.ID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error saving flow")
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleStartBot(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	if err := s.supervisor.Start(bot.ID); err != nil {
		logger.Error("error starting bot", zap.String("bot", bot.ID), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]any{"status": string(model.BOT_STATUS_RUNNING)})
}

func (s *Server) HandleStopBot(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	if err := s.supervisor.Stop(bot.ID); err != nil {
		logger.Error("error stopping bot", zap.String("bot", bot.ID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error stopping bot")
		return
	}
	respondOK(w, map[string]any{"status": string(model.BOT_STATUS_STOPPED)})
}

func (s *Server) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	users, err := s.storage.ListUsers(bot.ID)
	if err != nil {
		logger.Error("error listing users", zap.String("bot", bot.ID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error listing users")
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

func (s *Server) HandleListChats(w http.ResponseWriter, r *http.Request) {
	bot, ok := s.getBot(w, r)
	if !ok {
		return
	}
	chats, err := s.storage.ListAdminChats(bot.ID)
	if err != nil {
		logger.Error("error listing chats", zap.String("bot", bot.ID), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error listing chats")
		return
	}
	respondWithJSON(w, http.StatusOK, chats)
}

func (s *Server) getBot(w http.ResponseWriter, r *http.Request) (*model.Bot, bool) {
	id := mux.Vars(r)["id"]
	bot, err := s.storage.GetBot(id)
	if err != nil {
		if persistence.IsNotFound(err) {
			respondWithError(w, http.StatusNotFound, "bot not found")
		} else {
			logger.Error("error loading bot", zap.String("bot", id), zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "error loading bot")
		}
		return nil, false
	}
	return bot, true
}
