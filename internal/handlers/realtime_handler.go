package handlers

import (
	"net/http"

	"market-admin/internal/realtime"
	"market-admin/pkg/utils"
)

type RealtimeService interface {
	Status() realtime.Status
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type RealtimeHandler struct {
	Service RealtimeService
}

func NewRealtimeHandler(service RealtimeService) *RealtimeHandler {
	return &RealtimeHandler{Service: service}
}

// Subscribe upgrades to a websocket that streams table changes.
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	h.Service.ServeWS(w, r)
}

func (h *RealtimeHandler) Status(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, h.Service.Status())
}
