package chat

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linguabridge/backend/internal/language"
	chatservice "github.com/linguabridge/backend/internal/service/chat"
	"github.com/linguabridge/backend/pkg/utils"
)

// Handler 全局聊天的HTTP处理器
type Handler struct {
	client *chatservice.Client
}

// New 创建聊天处理器
func New(client *chatservice.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/chat", func(chatRouter chi.Router) {
		chatRouter.Get("/session", h.handleSession)
		chatRouter.Get("/messages", h.handleMessages)
		chatRouter.Post("/messages", h.handleSend)
		chatRouter.Put("/language", h.handleChangeLanguage)
		chatRouter.Get("/stream", h.handleStream)
	})
}

// handleSession 返回会话身份与连接状态
func (h *Handler) handleSession(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": h.client.SessionID(),
		"state":     h.client.State(),
		"language":  h.client.TargetLanguage(),
		"languages": language.Names(),
	})
}

// handleMessages 返回当前的消息序列
func (h *Handler) handleMessages(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.client.Store().Snapshot())
}

// handleSend 提交一条聊天消息；未就绪或空白输入按约定静默忽略
func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.client.Send(payload.Text)
	utils.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// handleChangeLanguage 切换目标语言并重建连接
func (h *Handler) handleChangeLanguage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Language string `json:"language"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Language == "" {
		utils.RespondError(w, http.StatusBadRequest, "language is required")
		return
	}

	code := language.Resolve(payload.Language)
	if !language.Known(payload.Language) {
		log.Printf("[chat] unknown language %q, falling back to %s", payload.Language, code)
	}

	// 连接生命周期长于本次请求，不能使用请求上下文拨号。
	h.client.Open(context.Background(), code)

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"language": code,
		"state":    h.client.State(),
	})
}

// handleStream 通过SSE推送新到达的消息记录
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	store := h.client.Store()
	updates, cancel := store.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)

	// 先补发快照，再推增量；订阅先于快照建立，避免漏掉中间到达的记录。
	// seen 只用于快照与订阅重叠窗口的去重，窗口结束后即失效，
	// 这样存储里合法的重复ID记录仍会照常推送。
	seen := make(map[string]bool)
	for _, msg := range store.Snapshot() {
		seen[msg.ID] = true
		utils.SendSSEEvent(w, flusher, "message", msg)
	}

	ctx := r.Context()
	log.Printf("[sse] opening chat stream session=%s", h.client.SessionID())

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] closing chat stream session=%s", h.client.SessionID())
			return
		case msg, open := <-updates:
			if !open {
				return
			}
			if seen != nil {
				if seen[msg.ID] {
					// 重叠窗口内的记录快照里已经发过。
					continue
				}
				// 第一条快照之外的记录标志窗口结束。
				seen = nil
			}
			utils.SendSSEEvent(w, flusher, "message", msg)
		case <-ticker.C:
			utils.SendSSEComment(w, flusher, "heartbeat")
		}
	}
}
