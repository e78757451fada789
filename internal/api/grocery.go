package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sproutchef/internal/grocery"
)

// GetGroceries lists the current user's grocery items, optionally filtered
// by ?checked= and ?category=.
func (h *Handler) GetGroceries(c *gin.Context) {
	f := grocery.Filter{UserID: h.DefaultUserID, Category: c.Query("category")}
	if v := c.Query("checked"); v != "" {
		checked, err := strconv.ParseBool(v)
		if err != nil {
			c.String(http.StatusBadRequest, "checked must be true or false")
			return
		}
		f.Checked = &checked
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	items, err := h.Groceries.Find(ctx, f)
	if err != nil {
		storeError(c, "list grocery items", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// AddGrocery adds an item to the current user's list.
func (h *Handler) AddGrocery(c *gin.Context) {
	var req grocery.NewItem
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid item: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	item, err := h.Groceries.Create(ctx, h.DefaultUserID, req)
	if err != nil {
		storeError(c, "create grocery item", err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateGrocery changes the name, category or checked state of an item.
func (h *Handler) UpdateGrocery(c *gin.Context) {
	var patch grocery.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid item: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if !h.ownsGrocery(ctx, c) {
		return
	}
	item, err := h.Groceries.Update(ctx, c.Param("id"), patch)
	if err != nil {
		storeError(c, "update grocery item", err)
		return
	}
	if item == nil {
		c.String(http.StatusNotFound, "Item not found")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteGrocery removes an item.
func (h *Handler) DeleteGrocery(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if !h.ownsGrocery(ctx, c) {
		return
	}
	deleted, err := h.Groceries.Delete(ctx, c.Param("id"))
	if err != nil {
		storeError(c, "delete grocery item", err)
		return
	}
	if !deleted {
		c.String(http.StatusNotFound, "Item not found")
		return
	}
	c.Status(http.StatusNoContent)
}

// ownsGrocery answers 404 unless the item in the path belongs to the current user.
func (h *Handler) ownsGrocery(ctx context.Context, c *gin.Context) bool {
	item, err := h.Groceries.FindByID(ctx, c.Param("id"))
	if err != nil {
		storeError(c, "load grocery item", err)
		return false
	}
	if item == nil || item.UserID.String() != h.DefaultUserID {
		c.String(http.StatusNotFound, "Item not found")
		return false
	}
	return true
}
