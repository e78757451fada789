package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sproutchef/internal/impact"
	"sproutchef/internal/user"
)

// GetProfile returns the current user's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	u := h.currentUser(ctx, c)
	if u == nil {
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateProfile applies a partial update to the current user's profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var patch user.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("invalid profile: %s", err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.Update(ctx, h.DefaultUserID, patch)
	if err != nil {
		storeError(c, "update profile", err)
		return
	}
	if u == nil {
		c.String(http.StatusNotFound, "User not found")
		return
	}
	c.JSON(http.StatusOK, u)
}

type impactResponse struct {
	*impact.Impact
	Level int `json:"level"`
}

// GetImpact returns the current user's gamification stats.
func (h *Handler) GetImpact(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	i, err := h.Impacts.FindOrCreate(ctx, h.DefaultUserID)
	if err != nil {
		storeError(c, "load impact", err)
		return
	}
	c.JSON(http.StatusOK, impactResponse{Impact: i, Level: i.Level()})
}

// LogMeal records a meal for the current user.
func (h *Handler) LogMeal(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	i, err := h.Impacts.RecordMeal(ctx, h.DefaultUserID, h.Now())
	if err != nil {
		storeError(c, "record meal", err)
		return
	}
	c.JSON(http.StatusOK, impactResponse{Impact: i, Level: i.Level()})
}

// dietContext describes the user's diet for prompts.
func dietContext(u *user.User) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The user follows a %s diet.", u.DietLevel)
	if tags := u.DietLevel.ForbiddenTags(); len(tags) > 0 {
		fmt.Fprintf(&sb, " Never use ingredients tagged: %s.", strings.Join(tags, ", "))
	}
	if len(u.ForbiddenTags) > 0 {
		fmt.Fprintf(&sb, " The user also avoids: %s.", strings.Join(u.ForbiddenTags, ", "))
	}
	if len(u.Allergies) > 0 {
		fmt.Fprintf(&sb, " The user is allergic to: %s.", strings.Join(u.Allergies, ", "))
	}
	if len(u.PreferredCuisines) > 0 {
		fmt.Fprintf(&sb, " Preferred cuisines: %s.", strings.Join(u.PreferredCuisines, ", "))
	}
	if len(u.CookingStyles) > 0 {
		fmt.Fprintf(&sb, " Preferred cooking styles: %s.", strings.Join(u.CookingStyles, ", "))
	}
	return sb.String()
}
