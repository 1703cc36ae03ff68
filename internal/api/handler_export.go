package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ibis-route-manager/internal/export"
)

const (
	exportStatusOK        = "ok"
	exportStatusCancelled = "cancelled"
	exportStatusError     = "error"
)

type exportRequest struct {
	// Directory is the destination the operator picked. Empty means the
	// picker was dismissed.
	Directory string `json:"directory"`
}

type exportResponse struct {
	Success    bool               `json:"success"`
	Status     string             `json:"status"`
	Path       string             `json:"path,omitempty"`
	Message    string             `json:"message,omitempty"`
	Collisions []export.Collision `json:"collisions,omitempty"`
}

// ExportData handles POST /api/export.
func (h *Handler) ExportData(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Directory == "" {
		c.JSON(http.StatusOK, exportResponse{Success: false, Status: exportStatusCancelled, Message: "Cancelled"})
		return
	}

	routes, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, exportResponse{Status: exportStatusError, Message: err.Error()})
		return
	}

	result, err := h.exporter.Export(routes, req.Directory)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, exportResponse{Status: exportStatusError, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, exportResponse{
		Success:    true,
		Status:     exportStatusOK,
		Path:       req.Directory,
		Collisions: result.Collisions,
	})
}
