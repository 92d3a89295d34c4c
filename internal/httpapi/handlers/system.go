package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/continuum-ai/continuum/internal/common"
	"github.com/continuum-ai/continuum/internal/verify"
)

func (h *Handler) SystemInfo(c *gin.Context) {
	info, err := h.Hardware.System()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20020, "hardware probe failed")
		return
	}
	gpu, err := h.Hardware.GPU()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 20020, "hardware probe failed")
		return
	}
	common.OK(c, gin.H{"system": info, "gpu": gpu})
}

func (h *Handler) ListModels(c *gin.Context) {
	common.OK(c, gin.H{"models": h.Catalog.List()})
}

type verifyModelReq struct {
	ModelID string `json:"model_id"`
}

// VerifyModel checksums an installed model file against its catalog
// hash. A corrupt file is quarantined and unflagged.
func (h *Handler) VerifyModel(c *gin.Context) {
	var req verifyModelReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}
	m, ok := h.Catalog.Lookup(req.ModelID)
	if !ok {
		common.Fail(c, http.StatusNotFound, 40403, "model not in catalog")
		return
	}

	path := h.Manager.ModelPath(req.ModelID)
	res, err := verify.Integrity(path, m.SHA256)
	if err != nil {
		var verr *verify.Error
		if errors.As(err, &verr) && verr.Kind == verify.KindFileNotFound {
			common.Fail(c, http.StatusNotFound, 40405, "model file not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 20021, err.Error())
		return
	}

	if !res.Verified {
		quarantined, qerr := verify.Quarantine(path, filepath.Join(h.Manager.ModelsDir(), "quarantine"))
		if qerr == nil {
			h.Catalog.SetInstalled(req.ModelID, false)
		}
		common.OK(c, gin.H{"result": res, "quarantined": qerr == nil, "quarantine_path": quarantined})
		return
	}

	h.Catalog.SetInstalled(req.ModelID, true)
	common.OK(c, gin.H{"result": res})
}
