package chat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linqiu/polychat/backend/internal/middleware"
	chatservice "github.com/linqiu/polychat/backend/internal/service/chat"
	"github.com/linqiu/polychat/backend/pkg/utils"
)

// Handler 聊天服务的HTTP处理器
type Handler struct {
	chatSvc *chatservice.Service
}

// New 创建聊天处理器
func New(chatSvc *chatservice.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册聊天相关的路由。
// 路由器已套上认证中间件，到达这里的请求都携带身份。
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat/history", h.handleHistory)
	r.Post("/chat/send", h.handleSend)
	r.Delete("/chat/messages/{messageID}", h.handleDelete)
}

// handleHistory 按时间升序返回调用者的消息
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	limit := chatservice.DefaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	messages, err := h.chatSvc.History(r.Context(), identity.UserID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, messages)
}

// handleSend 执行从提问到回复的完整流程
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload struct {
		ModelTag string `json:"modelTag"`
		Prompt   string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, err := h.chatSvc.Send(r.Context(), identity.UserID, payload.ModelTag, payload.Prompt)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"content": content,
	})
}

// handleDelete 删除调用者自己的一条消息。
// 删除不属于自己的消息是静默空操作。
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		utils.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	messageID := chi.URLParam(r, "messageID")
	if err := h.chatSvc.Delete(r.Context(), identity.UserID, messageID); err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// respondServiceError maps the dispatcher's failure kinds onto HTTP.
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch chatservice.KindOf(err) {
	case chatservice.KindUnauthenticated:
		status = http.StatusUnauthorized
	case chatservice.KindInvalidArgument:
		status = http.StatusBadRequest
	case chatservice.KindStoreUnavailable:
		status = http.StatusServiceUnavailable
	case chatservice.KindGenerationFailed:
		status = http.StatusBadGateway
	}
	utils.RespondError(w, status, err.Error())
}
