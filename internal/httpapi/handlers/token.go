package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/continuum-ai/continuum/internal/auth"
	"github.com/continuum-ai/continuum/internal/common"
)

type tokenReq struct {
	AccessToken string `json:"access_token"`
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}

// ExchangeToken trades the configured access token for a bearer JWT.
func (h *Handler) ExchangeToken(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.AccessToken == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "access_token required")
		return
	}
	if !auth.CheckToken(h.TokenHash, req.AccessToken) {
		common.Fail(c, http.StatusUnauthorized, 40102, "bad access token")
		return
	}
	token, err := auth.SignJWT(h.Cfg.APISecret, 24*time.Hour)
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20003, "failed to sign token")
		return
	}
	common.OK(c, gin.H{"token": token})
}
