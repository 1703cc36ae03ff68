package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ibis-route-manager/internal/model"
	"ibis-route-manager/internal/parse"
	"ibis-route-manager/internal/store"
)

// commandValue accepts an IBIS command as a JSON number or as the text the
// operator typed; unparseable text becomes 0.
type commandValue int

func (v *commandValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = 0
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = commandValue(parse.Command(s))
		return nil
	}

	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	// Out of range numbers are treated like unparseable text.
	if f <= math.MinInt64 || f >= math.MaxInt64 {
		*v = 0
		return nil
	}
	*v = commandValue(int64(f))
	return nil
}

type routeRequest struct {
	ID                 string          `json:"id"`
	Type               model.RouteType `json:"type"`
	Name               string          `json:"name"`
	IbisLineCmd        commandValue    `json:"ibisLineCmd"`
	IbisDestinationCmd commandValue    `json:"ibisDestinationCmd"`
	AlfaSignText       string          `json:"alfaSignText"`
	AlfaSignBinFile    string          `json:"alfaSignBinFile"`
}

func (r routeRequest) toRoute() model.Route {
	return model.Route{
		ID:                 r.ID,
		Type:               r.Type,
		Name:               r.Name,
		IbisLineCmd:        int(r.IbisLineCmd),
		IbisDestinationCmd: int(r.IbisDestinationCmd),
		AlfaSignText:       r.AlfaSignText,
		AlfaSignBinFile:    r.AlfaSignBinFile,
	}
}

// ListRoutes handles GET /api/routes.
func (h *Handler) ListRoutes(c *gin.Context) {
	routes, err := h.store.ListAll(c.Request.Context())
	if err != nil {
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve routes"})
		return
	}
	c.JSON(http.StatusOK, routes)
}

// AddRoute handles POST /api/routes. A missing id is derived from the
// current time in milliseconds.
func (h *Handler) AddRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = strconv.FormatInt(h.now().UnixMilli(), 10)
	}

	ctx := c.Request.Context()
	if err := h.store.Add(ctx, req.toRoute()); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateID):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, store.ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add route"})
		}
		return
	}

	route, err := h.store.Get(ctx, req.ID)
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read back route"})
		return
	}
	c.JSON(http.StatusCreated, route)
}

// UpdateRoute handles PUT /api/routes/:id. Unknown ids are accepted and
// change nothing.
func (h *Handler) UpdateRoute(c *gin.Context) {
	var req routeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	req.ID = c.Param("id")

	if err := h.store.Update(c.Request.Context(), req.toRoute()); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update route"})
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteRoute handles DELETE /api/routes/:id.
func (h *Handler) DeleteRoute(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete route"})
		return
	}
	c.Status(http.StatusNoContent)
}
