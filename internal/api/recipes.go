package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"sproutchef/internal/docstore"
	"sproutchef/internal/platform/gemini"
	"sproutchef/internal/recipe"
	"sproutchef/internal/user"
)

type promptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

const recipeFormat = `Respond ONLY with a JSON object of the form:
{"title": "...", "tags": ["..."], "duration": "...", "ingredients": [{"name": "...", "amount": "...", "unit": "..."}], "steps": ["..."]%s}`

func simplifyPrompt(u *user.User, prompt string) string {
	return fmt.Sprintf(`You are a vegetarian cooking assistant. %s
Turn the following request or recipe into a simple recipe with at most 8 ingredients and short steps.
Request: %s
%s`, dietContext(u), prompt, fmt.Sprintf(recipeFormat, ""))
}

func veganizePrompt(u *user.User, prompt string) string {
	return fmt.Sprintf(`You are a plant-based cooking assistant. %s
Rewrite the following recipe so it fits the user's diet. Replace every ingredient the user cannot eat
and list each replacement in "substitutions", keyed by the original ingredient.
Recipe: %s
%s`, dietContext(u), prompt, fmt.Sprintf(recipeFormat, `, "substitutions": {"original": "replacement"}`))
}

// SimplifyRecipe generates a simplified recipe from a prompt and stores it.
func (h *Handler) SimplifyRecipe(c *gin.Context) {
	h.generateRecipe(c, recipe.Simplified, simplifyPrompt)
}

// VeganizeRecipe rewrites a recipe to fit the user's diet and stores it.
func (h *Handler) VeganizeRecipe(c *gin.Context) {
	h.generateRecipe(c, recipe.Veganized, veganizePrompt)
}

func (h *Handler) generateRecipe(c *gin.Context, kind recipe.Kind, build func(*user.User, string) string) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.String(http.StatusBadRequest, "prompt is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), llmTimeout)
	defer cancel()

	u := h.currentUser(ctx, c)
	if u == nil {
		return
	}

	answer, err := h.Generator.Generate(ctx, build(u, req.Prompt))
	if err != nil {
		llmError(c, "generate recipe", err)
		return
	}

	var r recipe.Recipe
	if err := decodeAnswer(answer, &r); err != nil {
		llmError(c, "parse recipe", err)
		return
	}
	if r.Title == "" {
		llmError(c, "parse recipe", errors.New("recipe has no title"))
		return
	}
	r.UserID = docstore.Ref(u.ID)
	r.Prompt = req.Prompt
	r.Type = kind
	if kind != recipe.Veganized {
		r.Substitutions = nil
	}

	saved, err := h.Recipes.Create(ctx, &r)
	if err != nil {
		storeError(c, "save recipe", err)
		return
	}
	log.Printf("[%s] saved %s recipe %s", requestID(c), kind, saved.ID)
	c.JSON(http.StatusCreated, saved)
}

// GetRecipes lists the current user's recipes, optionally filtered by
// ?type= and ?tag=.
func (h *Handler) GetRecipes(c *gin.Context) {
	kind := recipe.Kind(strings.ToLower(c.Query("type")))
	if kind != "" && kind != recipe.Simplified && kind != recipe.Veganized {
		c.String(http.StatusBadRequest, "type must be simplified or veganized")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	recipes, err := h.Recipes.Find(ctx, recipe.Filter{
		UserID: h.DefaultUserID,
		Type:   kind,
		Tag:    c.Query("tag"),
	})
	if err != nil {
		storeError(c, "list recipes", err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// GetRecipe returns a single recipe by id.
func (h *Handler) GetRecipe(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	r := h.ownRecipe(ctx, c)
	if r == nil {
		return
	}
	c.JSON(http.StatusOK, r)
}

// UploadRecipeImage stores a preview image for a recipe.
func (h *Handler) UploadRecipeImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("get form err: %s", err.Error()))
		return
	}

	imageData, extension, _, err := readImage(file)
	if errors.Is(err, errInvalidImageType) {
		c.String(http.StatusBadRequest, "Invalid file type. Only JPEG, JPG, and PNG images are allowed.")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	if h.ownRecipe(ctx, c) == nil {
		return
	}

	imageHash := gemini.GenerateImageHash(imageData)
	imagePath, err := saveImage(h.ImagesDir, imageData, imageHash, extension)
	if errors.Is(err, errUndecodableImage) {
		c.String(http.StatusBadRequest, "could not read image")
		return
	}
	if err != nil {
		log.Printf("[%s] failed to save image: %v", requestID(c), err)
		c.String(http.StatusInternalServerError, "failed to save image")
		return
	}

	image := "/images/" + filepath.Base(imagePath)
	r, err := h.Recipes.Update(ctx, c.Param("id"), recipe.Patch{Image: &image})
	if err != nil {
		storeError(c, "update recipe", err)
		return
	}
	if r == nil {
		c.String(http.StatusNotFound, "Recipe not found")
		return
	}
	c.JSON(http.StatusOK, r)
}

// ownRecipe loads the recipe in the path. It answers 404 unless the recipe
// belongs to the current user.
func (h *Handler) ownRecipe(ctx context.Context, c *gin.Context) *recipe.Recipe {
	r, err := h.Recipes.FindByID(ctx, c.Param("id"))
	if err != nil {
		storeError(c, "load recipe", err)
		return nil
	}
	if r == nil || r.UserID.String() != h.DefaultUserID {
		c.String(http.StatusNotFound, "Recipe not found")
		return nil
	}
	return r
}
