package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/continuum-ai/continuum/internal/common"
	"github.com/continuum-ai/continuum/internal/download"
)

type startDownloadReq struct {
	ModelID string `json:"model_id"`
	URL     string `json:"url"`
}

func (h *Handler) StartDownload(c *gin.Context) {
	var req startDownloadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.ModelID == "" {
		common.Fail(c, http.StatusBadRequest, 10011, "model_id required")
		return
	}

	url := req.URL
	if url == "" {
		m, ok := h.Catalog.Lookup(req.ModelID)
		if !ok {
			common.Fail(c, http.StatusNotFound, 40403, "model not in catalog")
			return
		}
		url = m.URL
	}

	if h.Downloads.IsModelDownloading(req.ModelID) {
		common.Fail(c, http.StatusConflict, 10012, "model already downloading")
		return
	}

	id, err := h.Manager.Start(c.Request.Context(), req.ModelID, url)
	if err != nil {
		if errors.Is(err, download.ErrBusy) {
			common.OK(c, gin.H{"queued": true, "queue": h.Downloads.Get().Queue})
			return
		}
		common.Fail(c, http.StatusBadGateway, 20010, err.Error())
		return
	}
	common.OK(c, gin.H{"download_id": id})
}

func (h *Handler) ListDownloads(c *gin.Context) {
	st := h.Downloads.Get()
	common.OK(c, gin.H{
		"downloads": st.Downloads,
		"order":     st.Order,
		"queue":     st.Queue,
	})
}

func (h *Handler) PauseDownload(c *gin.Context) {
	if err := h.Manager.Pause(c.Param("id")); err != nil {
		common.Fail(c, http.StatusNotFound, 40404, "download not running")
		return
	}
	common.OK(c, nil)
}

func (h *Handler) ResumeDownload(c *gin.Context) {
	id, err := h.Manager.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, download.ErrNotFound):
			common.Fail(c, http.StatusNotFound, 40404, "download not found")
		case errors.Is(err, download.ErrNotPaused):
			common.Fail(c, http.StatusConflict, 10013, "download not paused")
		default:
			common.Fail(c, http.StatusBadGateway, 20010, err.Error())
		}
		return
	}
	common.OK(c, gin.H{"download_id": id})
}

func (h *Handler) CancelDownload(c *gin.Context) {
	if err := h.Manager.Cancel(c.Param("id")); err != nil {
		common.Fail(c, http.StatusNotFound, 40404, "download not found")
		return
	}
	common.OK(c, nil)
}

func (h *Handler) ClearFinishedDownloads(c *gin.Context) {
	h.Downloads.ClearFinished()
	common.OK(c, nil)
}

type queueModelReq struct {
	ModelID string `json:"model_id"`
}

func (h *Handler) QueueModel(c *gin.Context) {
	var req queueModelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	if req.ModelID == "" {
		common.Fail(c, http.StatusBadRequest, 10011, "model_id required")
		return
	}
	h.Downloads.QueueModel(req.ModelID)
	common.OK(c, gin.H{"queue": h.Downloads.Get().Queue})
}

// CheckStorage reports free space against ?required_mb=N.
func (h *Handler) CheckStorage(c *gin.Context) {
	requiredMB, err := strconv.ParseUint(c.DefaultQuery("required_mb", "0"), 10, 64)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10014, "invalid required_mb")
		return
	}
	common.OK(c, h.Manager.CheckStorage(requiredMB))
}
