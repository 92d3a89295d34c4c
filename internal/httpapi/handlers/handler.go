package handlers

import (
	"github.com/continuum-ai/continuum/internal/catalog"
	"github.com/continuum-ai/continuum/internal/config"
	"github.com/continuum-ai/continuum/internal/download"
	"github.com/continuum-ai/continuum/internal/hardware"
	"github.com/continuum-ai/continuum/internal/privacy"
	"github.com/continuum-ai/continuum/internal/session"
)

// Handler carries the wired stores every route pulls from. The UI shell
// is the only intended client.
type Handler struct {
	Cfg       config.Config
	TokenHash string // bcrypt hash of the configured access token

	Sessions  *session.Store
	Downloads *download.Store
	Manager   *download.Manager
	Privacy   *privacy.Store
	Hardware  *hardware.Detector
	Catalog   *catalog.Store
}

func NewHandler(cfg config.Config, tokenHash string,
	sessions *session.Store, downloads *download.Store, manager *download.Manager,
	priv *privacy.Store, hw *hardware.Detector, cat *catalog.Store) *Handler {
	return &Handler{
		Cfg:       cfg,
		TokenHash: tokenHash,
		Sessions:  sessions,
		Downloads: downloads,
		Manager:   manager,
		Privacy:   priv,
		Hardware:  hw,
		Catalog:   cat,
	}
}
