package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-lostfound/internal/logger"
	"github.com/gcbaptista/go-lostfound/model"
	"github.com/gcbaptista/go-lostfound/store"
)

// CreateItemHandler stores a new record and returns it together with its best
// matches among records of the opposite type.
// Request Body: model.NewItem
func (api *API) CreateItemHandler(c *gin.Context) {
	var in model.NewItem
	if result := ValidateJSONBinding(c, &in); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	item, err := api.records.Create(c.Request.Context(), in)
	if err != nil {
		SendServiceError(c, "create item", err)
		return
	}

	response := gin.H{"item": item}
	set, err := api.matcher.FindMatches(c.Request.Context(), item, api.settings.DefaultTopK)
	if err != nil {
		// The record is stored either way; report the matching failure alongside it.
		logger.FromContext(c.Request.Context()).Warn("matching after submit failed",
			zap.String("id", item.ID), zap.Error(err))
		response["match_error"] = err.Error()
	} else {
		response["matches"] = set
	}

	c.JSON(http.StatusCreated, response)
}

// ListItemsHandler lists records in insertion order.
// Query: type (lost|found, optional), q (case-insensitive substring, optional)
func (api *API) ListItemsHandler(c *gin.Context) {
	itemType, result := ValidateItemType(c.Query("type"), false)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	items, err := api.records.List(c.Request.Context(), store.Filter{Type: itemType, Search: c.Query("q")})
	if err != nil {
		SendServiceError(c, "list items", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// GetItemHandler returns one record.
func (api *API) GetItemHandler(c *gin.Context) {
	item, ok := api.loadItem(c, "itemId")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItemHandler removes one record.
func (api *API) DeleteItemHandler(c *gin.Context) {
	itemID := c.Param("itemId")
	if result := ValidateItemID("itemId", itemID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.records.Delete(c.Request.Context(), itemID); err != nil {
		SendServiceError(c, "delete item", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item '" + itemID + "' deleted"})
}

// loadItem validates the path parameter and fetches the record it names.
// On failure the error response has already been sent.
func (api *API) loadItem(c *gin.Context, param string) (model.Item, bool) {
	itemID := c.Param(param)
	if result := ValidateItemID(param, itemID); result.HasErrors() {
		SendValidationError(c, result)
		return model.Item{}, false
	}

	item, err := api.records.Get(c.Request.Context(), itemID)
	if err != nil {
		SendServiceError(c, "get item", err)
		return model.Item{}, false
	}
	return item, true
}
