package handlers

import (
	"todoboard/internal/dto"
	"todoboard/internal/flash"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const flashCookie = "flash_id"

// putFlash leaves msg for the client's next listing. Failures are logged
// only; the mutation has already succeeded.
func (h *TodoHandler) putFlash(c *gin.Context, msg string) {
	if h.flash == nil {
		return
	}
	id, err := c.Cookie(flashCookie)
	if err != nil || id == "" {
		if id, err = flash.NewID(); err != nil {
			h.log.Warn("flash id", zap.Error(err))
			return
		}
		c.SetCookie(flashCookie, id, 0, "/", "", false, true)
	}
	if err := h.flash.Put(c.Request.Context(), id, flash.Message{Type: flash.TypeSuccess, Text: msg}); err != nil {
		h.log.Warn("flash put", zap.String("requestID", requestID(c)), zap.Error(err))
	}
}

func (h *TodoHandler) popFlash(c *gin.Context) *dto.FlashResponse {
	if h.flash == nil {
		return nil
	}
	id, err := c.Cookie(flashCookie)
	if err != nil || id == "" {
		return nil
	}
	m, ok, err := h.flash.Pop(c.Request.Context(), id)
	if err != nil {
		h.log.Warn("flash pop", zap.String("requestID", requestID(c)), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	return &dto.FlashResponse{Type: m.Type, Text: m.Text}
}
