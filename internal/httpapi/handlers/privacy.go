package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/continuum-ai/continuum/internal/common"
	"github.com/continuum-ai/continuum/internal/privacy"
)

func (h *Handler) GetPrivacy(c *gin.Context) {
	st := h.Privacy.Get()
	common.OK(c, gin.H{
		"mode":              st.Mode,
		"derivation_key":    st.DerivationKey,
		"is_dashboard_open": st.IsDashboardOpen,
	})
}

type setModeReq struct {
	Mode string `json:"mode"`
}

func (h *Handler) SetPrivacyMode(c *gin.Context) {
	var req setModeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	mode := privacy.Mode(req.Mode)
	if !mode.Valid() {
		common.Fail(c, http.StatusBadRequest, 10020, "unknown privacy mode")
		return
	}
	h.Privacy.SetMode(mode)
	st := h.Privacy.Get()
	common.OK(c, gin.H{"mode": st.Mode, "derivation_key": st.DerivationKey})
}

func (h *Handler) NetworkLog(c *gin.Context) {
	common.OK(c, gin.H{"entries": h.Privacy.Get().NetworkLog})
}

func (h *Handler) ClearNetworkLog(c *gin.Context) {
	h.Privacy.ClearNetworkLog()
	common.OK(c, nil)
}

func (h *Handler) ToggleDashboard(c *gin.Context) {
	h.Privacy.ToggleDashboard()
	common.OK(c, gin.H{"is_dashboard_open": h.Privacy.Get().IsDashboardOpen})
}
