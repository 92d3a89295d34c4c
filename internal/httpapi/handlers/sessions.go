package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/continuum-ai/continuum/internal/common"
	"github.com/continuum-ai/continuum/internal/session"
)

type createSessionReq struct {
	Title string `json:"title"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.Title == "" {
		req.Title = "New Chat"
	}
	sess := h.Sessions.CreateSession(req.Title, string(h.Privacy.Mode()))
	common.OK(c, sess)
}

func (h *Handler) ListSessions(c *gin.Context) {
	st := h.Sessions.Get()
	common.OK(c, gin.H{
		"sessions":          st.Sessions,
		"active_session_id": st.ActiveSessionID,
		"is_dirty":          st.IsDirty,
		"last_saved_at":     st.LastSavedAt,
		"was_recovered":     st.WasRecovered,
	})
}

func (h *Handler) DeleteSession(c *gin.Context) {
	h.Sessions.DeleteSession(c.Param("id"))
	common.OK(c, nil)
}

type renameSessionReq struct {
	Title string `json:"title"`
}

func (h *Handler) RenameSession(c *gin.Context) {
	var req renameSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	h.Sessions.RenameSession(c.Param("id"), req.Title)
	common.OK(c, nil)
}

type activateSessionReq struct {
	ID string `json:"id"`
}

func (h *Handler) SetActiveSession(c *gin.Context) {
	var req activateSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	h.Sessions.SetActiveSession(req.ID)
	common.OK(c, gin.H{"active_session_id": h.Sessions.Get().ActiveSessionID})
}

type appendMessageReq struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *Handler) AppendMessage(c *gin.Context) {
	var req appendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	role := session.Role(req.Role)
	switch role {
	case session.RoleUser, session.RoleAssistant, session.RoleSystem:
	default:
		common.Fail(c, http.StatusBadRequest, 10010, "unknown role")
		return
	}
	msg, ok := h.Sessions.AppendMessage(c.Param("id"), role, req.Content)
	if !ok {
		common.Fail(c, http.StatusNotFound, 40402, "session not found")
		return
	}
	common.OK(c, msg)
}

type summarizeReq struct {
	KeepRecent int `json:"keep_recent"`
}

func (h *Handler) SummarizeSession(c *gin.Context) {
	var req summarizeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	condensed := h.Sessions.SummarizeSession(c.Param("id"), req.KeepRecent)
	common.OK(c, gin.H{"condensed": condensed})
}

// FilterSessions runs the composable search/filter over the current
// session list.
func (h *Handler) FilterSessions(c *gin.Context) {
	var opts session.FilterOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	sessions, ranges := session.FilterSessions(h.Sessions.Get().Sessions, opts)
	common.OK(c, gin.H{
		"sessions":       sessions,
		"match_ranges":   ranges,
		"active_filters": session.CountActiveFilters(opts),
	})
}

// SessionHealth reports context health for the active session.
func (h *Handler) SessionHealth(c *gin.Context) {
	common.OK(c, h.Sessions.ActiveHealth(h.Cfg.MaxContextLength))
}

// SaveSessions forces an immediate snapshot write.
func (h *Handler) SaveSessions(c *gin.Context) {
	if err := h.Sessions.Save(c.Request.Context()); err != nil {
		common.Fail(c, http.StatusInternalServerError, 20001, "save failed")
		return
	}
	common.OK(c, gin.H{"last_saved_at": h.Sessions.Get().LastSavedAt})
}
