package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/llm"
)

// =============================================================================
// 📦 通用响应结构
// =============================================================================

// Response 统一 API 响应结构
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// ErrorInfo 错误信息结构
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// API 层错误码
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeInternalError  = "INTERNAL_ERROR"
)

// =============================================================================
// 🎯 响应辅助函数
// =============================================================================

// WriteJSON 写入 JSON 响应
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// 编码失败时响应头已写出，只能放弃
		return
	}
}

// WriteSuccess 写入成功响应
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteAccepted 写入 202 受理响应
func WriteAccepted(w http.ResponseWriter, data interface{}) {
	WriteJSON(w, http.StatusAccepted, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now(),
	})
}

// WriteErrorMessage 写入错误响应
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string, logger *zap.Logger) {
	if logger != nil {
		logger.Error("API error",
			zap.String("code", code),
			zap.String("message", message),
			zap.Int("status", status),
		)
	}

	WriteJSON(w, status, Response{
		Success:   false,
		Error:     &ErrorInfo{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}

// WriteError 写入错误响应, 识别 llm.Error 并保留其错误码与可重试标记
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		status := llmErr.HTTPStatus
		if status == 0 {
			status = mapLLMErrorToHTTPStatus(llmErr.Code)
		}

		if logger != nil {
			logger.Error("API error",
				zap.String("code", string(llmErr.Code)),
				zap.String("message", llmErr.Message),
				zap.Int("status", status),
				zap.Bool("retryable", llmErr.Retryable),
			)
		}

		WriteJSON(w, status, Response{
			Success: false,
			Error: &ErrorInfo{
				Code:      string(llmErr.Code),
				Message:   llmErr.Message,
				Retryable: llmErr.Retryable,
			},
			Timestamp: time.Now(),
		})
		return
	}

	WriteErrorMessage(w, http.StatusInternalServerError, CodeInternalError, err.Error(), logger)
}

// =============================================================================
// 🔄 错误码到 HTTP 状态码映射
// =============================================================================

func mapLLMErrorToHTTPStatus(code llm.ErrorCode) int {
	switch code {
	// 4xx 客户端错误
	case llm.ErrInvalidRequest:
		return http.StatusBadRequest
	case llm.ErrUnauthorized:
		return http.StatusUnauthorized
	case llm.ErrForbidden:
		return http.StatusForbidden
	case llm.ErrRateLimited:
		return http.StatusTooManyRequests
	case llm.ErrQuotaExceeded:
		return http.StatusPaymentRequired

	// 5xx 服务端错误
	case llm.ErrUpstreamTimeout:
		return http.StatusGatewayTimeout
	case llm.ErrModelOverloaded, llm.ErrProviderUnavailable:
		return http.StatusServiceUnavailable
	case llm.ErrUpstreamError:
		return http.StatusBadGateway

	// 默认
	default:
		return http.StatusInternalServerError
	}
}

// =============================================================================
// 🛡️ 请求验证辅助函数
// =============================================================================

// DecodeJSONBody 解码 JSON 请求体
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) error {
	if r.Body == nil {
		WriteErrorMessage(w, http.StatusBadRequest, CodeInvalidRequest, "request body is empty", logger)
		return errors.New("request body is empty")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields() // 严格模式：拒绝未知字段

	if err := decoder.Decode(dst); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, CodeInvalidRequest, "invalid JSON body", logger)
		return err
	}

	return nil
}

// ValidateContentType 验证 Content-Type
func ValidateContentType(w http.ResponseWriter, r *http.Request, logger *zap.Logger) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && contentType != "application/json; charset=utf-8" {
		WriteErrorMessage(w, http.StatusBadRequest, CodeInvalidRequest,
			"Content-Type must be application/json", logger)
		return false
	}
	return true
}
