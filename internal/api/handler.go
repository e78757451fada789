package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sproutchef/internal/grocery"
	"sproutchef/internal/impact"
	"sproutchef/internal/recipe"
	"sproutchef/internal/user"
)

// Timeouts for calls made while serving a request.
const (
	llmTimeout   = 45 * time.Second
	storeTimeout = 5 * time.Second
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recognizer reads the text in an image.
type Recognizer interface {
	Recognize(ctx context.Context, imageData []byte, format string) (string, error)
}

// UserStore defines the user operations the handlers need.
type UserStore interface {
	FindByID(ctx context.Context, id string) (*user.User, error)
	Update(ctx context.Context, id string, p user.Patch) (*user.User, error)
}

// ImpactStore defines the impact operations the handlers need.
type ImpactStore interface {
	FindOrCreate(ctx context.Context, userID string) (*impact.Impact, error)
	RecordMeal(ctx context.Context, userID string, now time.Time) (*impact.Impact, error)
}

// RecipeStore defines the recipe operations the handlers need.
type RecipeStore interface {
	Create(ctx context.Context, r *recipe.Recipe) (*recipe.Recipe, error)
	FindByID(ctx context.Context, id string) (*recipe.Recipe, error)
	Find(ctx context.Context, f recipe.Filter) ([]*recipe.Recipe, error)
	Update(ctx context.Context, id string, p recipe.Patch) (*recipe.Recipe, error)
}

// GroceryStore defines the grocery operations the handlers need.
type GroceryStore interface {
	Create(ctx context.Context, userID string, n grocery.NewItem) (*grocery.Item, error)
	FindByID(ctx context.Context, id string) (*grocery.Item, error)
	Find(ctx context.Context, f grocery.Filter) ([]*grocery.Item, error)
	Update(ctx context.Context, id string, p grocery.Patch) (*grocery.Item, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Options holds the collaborators of a Handler.
type Options struct {
	Generator  Generator
	Recognizer Recognizer
	Users      UserStore
	Impacts    ImpactStore
	Recipes    RecipeStore
	Groceries  GroceryStore

	// DefaultUserID is the user every request acts for.
	DefaultUserID string
	// ImagesDir receives uploaded recipe previews.
	ImagesDir string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler handles HTTP requests.
type Handler struct {
	Options
}

// NewHandler creates a new Handler.
func NewHandler(opts Options) *Handler {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ImagesDir == "" {
		opts.ImagesDir = "images"
	}
	return &Handler{Options: opts}
}

// currentUser loads the default user. It writes the error response and
// returns nil if the user cannot be loaded.
func (h *Handler) currentUser(ctx context.Context, c *gin.Context) *user.User {
	u, err := h.Users.FindByID(ctx, h.DefaultUserID)
	if err != nil {
		storeError(c, "load user", err)
		return nil
	}
	if u == nil {
		c.String(http.StatusNotFound, "User not found")
		return nil
	}
	return u
}

// storeError logs a storage fault and answers without exposing it.
func storeError(c *gin.Context, op string, err error) {
	log.Printf("[%s] failed to %s: %v", requestID(c), op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		c.String(http.StatusRequestTimeout, "Database operation timed out")
		return
	}
	c.String(http.StatusInternalServerError, "database error")
}

// llmError logs a generation fault and answers without exposing it.
func llmError(c *gin.Context, op string, err error) {
	log.Printf("[%s] failed to %s: %v", requestID(c), op, err)
	if errors.Is(err, context.DeadlineExceeded) {
		c.String(http.StatusRequestTimeout, "Assistant call timed out after 45 seconds")
		return
	}
	c.String(http.StatusBadGateway, "assistant error")
}
