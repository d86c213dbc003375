package utils

import (
	"encoding/json"
	"log"
	"net/http"
)

// RespondJSON 以JSON形式写出网关响应体
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode json response: %v", err)
	}
}

// RespondError 写出统一的错误响应 {"error": message}，
// 前端各页面按该约定展示错误提示。
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, map[string]string{"error": message})
}
