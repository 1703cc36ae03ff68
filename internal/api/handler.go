package api

import (
	"time"

	"github.com/sirupsen/logrus"

	"ibis-route-manager/internal/export"
	"ibis-route-manager/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	exporter *export.Exporter
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, exporter *export.Exporter, log logrus.FieldLogger) *Handler {
	return &Handler{
		store:    s,
		exporter: exporter,
		log:      log,
		now:      time.Now,
	}
}
