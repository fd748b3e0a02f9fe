package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/services"
	"github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/response"
)

type ItemHandler struct {
	items *services.ItemService
}

func NewItemHandler(items *services.ItemService) *ItemHandler {
	return &ItemHandler{items: items}
}

// GET /api/items
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.items.ListRecent(requestContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Total: len(items),
		Limit: services.RecentItemsLimit,
	})
}

// POST /api/items
func (h *ItemHandler) Create(c *gin.Context) {
	var body services.CreateItemInput
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.items.Create(requestContext(c), body)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}

// POST /api/items/:id/process
func (h *ItemHandler) Process(c *gin.Context) {
	itemID, ok := parseIDParam(c, "id")
	if !ok {
		response.Error(c, errors.NewBadRequest("item id must be a positive integer"))
		return
	}

	user := middleware.CurrentUser(c)
	h.items.RequestProcessing(requestContext(c), itemID, user.ID)
	response.Status(c, http.StatusOK, "queued")
}
