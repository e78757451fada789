package api

import "github.com/gin-gonic/gin"

// Register mounts the handlers on r. llmLimit guards the routes that call a
// language model.
func (h *Handler) Register(r gin.IRouter, llmLimit gin.HandlerFunc) {
	r.GET("/profile", h.GetProfile)
	r.PUT("/profile", h.UpdateProfile)

	r.GET("/impact", h.GetImpact)
	r.POST("/impact/meals", h.LogMeal)

	r.GET("/recipes", h.GetRecipes)
	r.GET("/recipes/:id", h.GetRecipe)
	r.POST("/recipes/:id/image", h.UploadRecipeImage)
	r.POST("/recipes/simplify", llmLimit, h.SimplifyRecipe)
	r.POST("/recipes/veganize", llmLimit, h.VeganizeRecipe)

	r.POST("/ocr", llmLimit, h.OCR)
	r.POST("/ingredients/extract", llmLimit, h.ExtractIngredients)
	r.POST("/ask", llmLimit, h.Ask)

	r.GET("/grocery", h.GetGroceries)
	r.POST("/grocery", h.AddGrocery)
	r.PATCH("/grocery/:id", h.UpdateGrocery)
	r.DELETE("/grocery/:id", h.DeleteGrocery)
}
