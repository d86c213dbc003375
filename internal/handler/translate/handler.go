package translate

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	translatesvc "github.com/linguabridge/backend/internal/service/translate"
	"github.com/linguabridge/backend/pkg/utils"
)

// TranslateService 抽象上游翻译接口，便于测试与替换实现
type TranslateService interface {
	Translate(ctx context.Context, from, to, text string) (string, error)
	Audio(ctx context.Context, text, lang string) (io.ReadCloser, string, error)
	TranslateAudio(ctx context.Context, from, to, filename string, audio io.Reader) (*translatesvc.AudioTranslation, error)
}

// Handler 翻译服务的HTTP处理器
type Handler struct {
	svc TranslateService
}

// New 创建翻译处理器
func New(svc TranslateService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes 注册翻译相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/translate", h.handleTranslate)
	r.Get("/translate/audio", h.handleAudio)
	r.Post("/translate-audio", h.handleTranslateAudio)
}

// handleTranslate 处理文本翻译请求
func (h *Handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		From string `json:"from"`
		To   string `json:"to"`
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "text is required")
		return
	}
	if payload.From == "" || payload.To == "" {
		utils.RespondError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	translated, err := h.svc.Translate(r.Context(), payload.From, payload.To, payload.Text)
	if err != nil {
		log.Printf("[translate] upstream error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "translation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"translatedText": translated})
}

// handleAudio 代理合成语音流
func (h *Handler) handleAudio(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	lang := r.URL.Query().Get("lang")
	if text == "" || lang == "" {
		utils.RespondError(w, http.StatusBadRequest, "text and lang are required")
		return
	}

	body, contentType, err := h.svc.Audio(r.Context(), text, lang)
	if err != nil {
		log.Printf("[translate] audio upstream error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "audio synthesis failed")
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, body); err != nil {
		log.Printf("[translate] audio stream interrupted: %v", err)
	}
}

// handleTranslateAudio 处理录音上传并转发至上游
func (h *Handler) handleTranslateAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB max
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	from := r.FormValue("from")
	to := r.FormValue("to")
	if from == "" || to == "" {
		utils.RespondError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	result, err := h.svc.TranslateAudio(r.Context(), from, to, header.Filename, file)
	if err != nil {
		log.Printf("[translate] audio translate upstream error: %v", err)
		utils.RespondError(w, http.StatusBadGateway, "audio translation failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
