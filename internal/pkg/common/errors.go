package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Code    string `json:"code"`              // 錯誤代碼
	Message string `json:"message"`           // 錯誤信息
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap 回傳原始錯誤，讓 errors.Is / errors.As 可以穿透
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodePipelineFailure    = "PIPELINE_FAILURE"    // 502
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
)

// 預定義錯誤
var (
	// 客戶端錯誤
	ErrInvalidRequest  = NewError(ErrCodeInvalidRequest, "無效的請求", http.StatusBadRequest, nil)
	ErrNotFound        = NewError(ErrCodeNotFound, "資源不存在", http.StatusNotFound, nil)
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "請求過於頻繁", http.StatusTooManyRequests, nil)

	// 服務器錯誤
	ErrInternalError      = NewError(ErrCodeInternalError, "服務器內部錯誤", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "服務暫時不可用", http.StatusServiceUnavailable, nil)

	// 分析引擎錯誤
	// ErrPipelineStageFailure：分析管線的致命階段（成分、交互作用、總結）失敗，
	// 對外只回傳可安全重試的通用訊息
	ErrPipelineStageFailure = NewError(ErrCodePipelineFailure, "分析暫時無法完成，請稍後再試", http.StatusBadGateway, nil)

	// ErrCacheMiss：快取查無此指紋，屬於正常流程
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheConflict：同一指紋已有寫入者（first writer wins），
	// 呼叫端應重新讀取現有條目而不是回報錯誤
	ErrCacheConflict = errors.New("cache entry already exists")

	// ErrScoreRecordMiss：查無對應的快速分析分數記錄
	ErrScoreRecordMiss = errors.New("no prior score record")
)

// IsPipelineFailure 檢查是否為分析管線的致命錯誤
func IsPipelineFailure(err error) bool {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code == ErrCodePipelineFailure
	}
	return false
}
