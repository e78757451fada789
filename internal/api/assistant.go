package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"sproutchef/internal/diet"
)

// OCR reads the text in an uploaded image, such as a recipe card or a label.
func (h *Handler) OCR(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, fmt.Sprintf("get form err: %s", err.Error()))
		return
	}

	imageData, _, format, err := readImage(file)
	if errors.Is(err, errInvalidImageType) {
		c.String(http.StatusBadRequest, "Invalid file type. Only JPEG, JPG, and PNG images are allowed.")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), llmTimeout)
	defer cancel()

	text, err := h.Recognizer.Recognize(ctx, imageData, format)
	if err != nil {
		llmError(c, "recognize text", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

type extractRequest struct {
	Text string `json:"text" binding:"required"`
}

// CheckedIngredient is an extracted ingredient with its diet verdict.
type CheckedIngredient struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
	diet.Verdict
}

func extractPrompt(text string) string {
	return fmt.Sprintf(`Extract every ingredient from the following text.
Tag each ingredient with the categories it belongs to, using only these tags where they apply: %s.
Respond ONLY with a JSON array of the form [{"name": "...", "tags": ["..."]}].
Text: %s`, strings.Join(tagVocabulary(), ", "), text)
}

func tagVocabulary() []string {
	return []string{
		diet.TagMeat, diet.TagPoultry, diet.TagFish, diet.TagSeafood,
		diet.TagDairy, diet.TagEgg, diet.TagHoney, diet.TagGelatin,
		"nuts", "gluten", "soy",
	}
}

// ExtractIngredients pulls the ingredients out of free text and judges each
// one against the current user's diet.
func (h *Handler) ExtractIngredients(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		c.String(http.StatusBadRequest, "text is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), llmTimeout)
	defer cancel()

	u := h.currentUser(ctx, c)
	if u == nil {
		return
	}

	answer, err := h.Generator.Generate(ctx, extractPrompt(req.Text))
	if err != nil {
		llmError(c, "extract ingredients", err)
		return
	}

	var extracted []struct {
		Name string   `json:"name"`
		Tags []string `json:"tags"`
	}
	if err := decodeAnswer(answer, &extracted); err != nil {
		llmError(c, "parse ingredients", err)
		return
	}

	profile := u.Profile()
	out := make([]CheckedIngredient, 0, len(extracted))
	for _, e := range extracted {
		if strings.TrimSpace(e.Name) == "" {
			continue
		}
		// The name itself may be an allergen, e.g. "peanuts".
		tags := append([]string{strings.ToLower(strings.TrimSpace(e.Name))}, e.Tags...)
		ing := CheckedIngredient{
			Name:    strings.TrimSpace(e.Name),
			Tags:    e.Tags,
			Verdict: diet.Check(profile, tags),
		}
		if ing.Tags == nil {
			ing.Tags = []string{}
		}
		out = append(out, ing)
	}
	c.JSON(http.StatusOK, out)
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

// Ask answers a free-text cooking question with the user's diet as context.
func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		c.String(http.StatusBadRequest, "question is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), llmTimeout)
	defer cancel()

	u := h.currentUser(ctx, c)
	if u == nil {
		return
	}

	prompt := fmt.Sprintf(`You are %s, a friendly vegetarian cooking assistant. %s
Answer the question briefly and never suggest food the user cannot eat.
Question: %s`, u.SproutName, dietContext(u), req.Question)

	answer, err := h.Generator.Generate(ctx, prompt)
	if err != nil {
		llmError(c, "answer question", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": strings.TrimSpace(answer)})
}
