package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, catalog, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidAction   = "INVALID_ACTION"
	ErrCodeInvalidSort     = "INVALID_SORT"
	ErrCodeInvalidViewMode = "INVALID_VIEW_MODE"
	ErrCodeInvalidLimit    = "INVALID_LIMIT"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeItemNotFound    = "ITEM_NOT_FOUND"
	ErrCodeRateLimit       = "RATE_LIMIT"
	ErrCodeCSRFFailed      = "CSRF_FAILED"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// NewInvalidActionError は未知の状態遷移要求のエラーを生成する。
func NewInvalidActionError(action string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAction,
		Message:  fmt.Sprintf("無効な操作です: %s", action),
		Category: "validation",
		Action:   "set_category、set_subcategory、toggle_tag、clear_tags、set_search_query、set_sort_by、set_view_mode、reset のいずれかを指定してください。",
	}
}

// NewInvalidSortError は無効な並び順のエラーを生成する。
func NewInvalidSortError(sortBy string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSort,
		Message:  fmt.Sprintf("無効な並び順です: %s", sortBy),
		Category: "validation",
		Action:   "並び順には newest、popular、rating、name のいずれかを指定してください。",
	}
}

// NewInvalidViewModeError は無効な表示モードのエラーを生成する。
func NewInvalidViewModeError(mode string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidViewMode,
		Message:  fmt.Sprintf("無効な表示モードです: %s", mode),
		Category: "validation",
		Action:   "表示モードには grid または list を指定してください。",
	}
}

// NewInvalidLimitError は件数指定が不正な場合のエラーを生成する。
func NewInvalidLimitError(limit string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLimit,
		Message:  fmt.Sprintf("無効な件数指定です: %s", limit),
		Category: "validation",
		Action:   "0以上の整数を指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストの解析に失敗しました: %s", reason),
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewItemNotFoundError は資料未検出エラーを生成する。
func NewItemNotFoundError(itemID string) *APIError {
	return &APIError{
		Code:     ErrCodeItemNotFound,
		Message:  fmt.Sprintf("指定された資料が見つかりません: %s", itemID),
		Category: "catalog",
		Action:   "資料IDを確認してください。",
	}
}

// NewRateLimitError はレート制限超過のエラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimit,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewCSRFError はCSRFトークン検証失敗のエラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFFailed,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "validation",
		Action:   "GET /api/csrf-token でトークンを取得し、X-CSRF-Tokenヘッダーに指定してください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
