package middleware

import (
	"encoding/json"
	"net/http"
)

// writeErrorJSON は統一エラーフォーマット {"error": message} を書き込む。
// ハンドラー層のエラーレスポンスと同じ形に揃える。
func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
