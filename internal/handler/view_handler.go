package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/kbase/internal/browse"
	"github.com/hitoshi/kbase/internal/filter"
	"github.com/hitoshi/kbase/internal/middleware"
	"github.com/hitoshi/kbase/internal/model"
)

// maxActionBodySize は状態遷移リクエストのボディの上限バイト数。
const maxActionBodySize = 4 << 10

// ViewServiceInterface はセッション閲覧ハンドラーが必要とするサービスインターフェース。
type ViewServiceInterface interface {
	// View はセッションの現在の状態で閲覧画面を組み立てる。
	View(sessionID string) *browse.View
	// Dispatch はセッションの状態に遷移を適用し、新しい閲覧画面を返す。
	Dispatch(sessionID string, action filter.Action) (*browse.View, error)
}

// ViewHandler はセッションごとの閲覧状態を扱うHTTPハンドラー。
type ViewHandler struct {
	service ViewServiceInterface
}

// NewViewHandler はViewHandlerを生成する。
func NewViewHandler(service ViewServiceInterface) *ViewHandler {
	return &ViewHandler{service: service}
}

// GetView はセッションの現在の絞り込み状態を適用した閲覧画面を返す。
// GET /api/view
func (h *ViewHandler) GetView(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDOrError(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, toViewResponse(h.service.View(sessionID)))
}

// ApplyAction はセッションの絞り込み状態に遷移を適用し、新しい閲覧画面を返す。
// POST /api/view/actions
// リクエストボディ: {"type": "toggle_tag", "value": "SysML"}
func (h *ViewHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDOrError(w, r)
	if !ok {
		return
	}

	var req actionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(err.Error()))
		return
	}

	if req.Type == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidActionError(req.Type))
		return
	}

	view, err := h.service.Dispatch(sessionID, filter.Action{
		Type:  filter.ActionType(req.Type),
		Value: req.Value,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toViewResponse(view))
}

// sessionIDOrError はコンテキストからセッションIDを取り出す。
// セッションミドルウェアを経由していない場合は内部エラーを書き込んで false を返す。
func sessionIDOrError(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID, err := middleware.SessionIDFromContext(r.Context())
	if err != nil {
		slog.Error("session id missing from context", slog.String("path", r.URL.Path))
		middleware.WriteInternalServerError(w)
		return "", false
	}
	return sessionID, true
}
