package api

import (
	"encoding/hex"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ibis-route-manager/internal/ibis"
	"ibis-route-manager/internal/store"
)

type telegram struct {
	Content string `json:"content"`
	Frame   string `json:"frame"`
}

func newTelegram(content string) telegram {
	return telegram{Content: content, Frame: hex.EncodeToString(ibis.Encode(content))}
}

// GetTelegrams handles GET /api/routes/:id/telegrams, previewing the IBIS
// frames the controller sends for the route.
func (h *Handler) GetTelegrams(c *gin.Context) {
	route, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
		} else {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve route"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"line":        newTelegram(ibis.Line(route.IbisLineCmd)),
		"destination": newTelegram(ibis.Destination(route.IbisDestinationCmd)),
	})
}
