package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
	"go.uber.org/zap"
)

// ShoppingListFilename is the attachment name of the downloaded report.
const ShoppingListFilename = "shopping_list.txt"

// recipeRelation is a user to recipe relation set such as favorites or the
// shopping cart.
type recipeRelation interface {
	Remove(ctx context.Context, subject, object uuid.UUID) error
}

type RecipeHandler struct {
	recipes   service.IRecipeService
	shopping  service.IShoppingListService
	favorites *service.RelationSet[models.Favorite]
	cart      *service.RelationSet[models.ShoppingCartItem]
	pageSize  int
	logger    *zap.Logger
}

func NewRecipeHandler(
	recipes service.IRecipeService,
	shopping service.IShoppingListService,
	favorites *service.RelationSet[models.Favorite],
	cart *service.RelationSet[models.ShoppingCartItem],
	pageSize int,
	logger *zap.Logger,
) *RecipeHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeHandler{
		recipes:   recipes,
		shopping:  shopping,
		favorites: favorites,
		cart:      cart,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// RegisterRoutes mounts the recipe routes. requireAuth guards every write;
// writeLimit is applied to recipe creation and modification only.
func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, requireAuth gin.HandlerFunc, writeLimit ...gin.HandlerFunc) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/download_shopping_cart", requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id", h.GetRecipe)

		write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
			chain := make([]gin.HandlerFunc, 0, len(writeLimit)+2)
			chain = append(chain, requireAuth)
			chain = append(chain, writeLimit...)
			return append(chain, handler)
		}
		recipes.POST("", write(h.CreateRecipe)...)
		recipes.PATCH("/:id", write(h.UpdateRecipe)...)
		recipes.DELETE("/:id", write(h.DeleteRecipe)...)

		recipes.POST("/:id/favorite", requireAuth, h.AddFavorite)
		recipes.DELETE("/:id/favorite", requireAuth, h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", requireAuth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", requireAuth, h.RemoveFromCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, ok := pageQuery(c, h.pageSize)
	if !ok {
		return
	}
	filter := types.RecipeFilter{
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      flagQuery(c, "is_favorited"),
		IsInShoppingCart: flagQuery(c, "is_in_shopping_cart"),
		Query:            c.Query("q"),
	}
	if raw := c.Query("author"); raw != "" {
		author, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, APIError{Code: "invalid_query", Message: "author must be a uuid", Field: "author"})
			return
		}
		filter.AuthorID = &author
	}

	result, err := h.recipes.ListRecipes(c.Request.Context(), filter, page, middleware.Viewer(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.recipes.GetRecipe(c.Request.Context(), id, middleware.Viewer(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var input types.RecipeInput
	if !bindJSON(c, &input) {
		return
	}
	view, err := h.recipes.CreateRecipe(c.Request.Context(), userID, &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	var input types.RecipeInput
	if !bindJSON(c, &input) {
		return
	}
	view, err := h.recipes.UpdateRecipe(c.Request.Context(), userID, id, &input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	if err := h.recipes.DeleteRecipe(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addRelation(c, func(ctx context.Context, user, recipe uuid.UUID) error {
		_, err := h.favorites.Add(ctx, user, recipe)
		return err
	})
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeRelation(c, h.favorites)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addRelation(c, func(ctx context.Context, user, recipe uuid.UUID) error {
		_, err := h.cart.Add(ctx, user, recipe)
		return err
	})
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeRelation(c, h.cart)
}

// DownloadShoppingCart answers the consolidated shopping list as a text
// attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	report, err := h.shopping.Report(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ShoppingListFilename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}

func (h *RecipeHandler) addRelation(c *gin.Context, add func(ctx context.Context, user, recipe uuid.UUID) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	ctx := c.Request.Context()
	if err := add(ctx, userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	brief, err := h.recipes.BriefRecipe(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, brief)
}

func (h *RecipeHandler) removeRelation(c *gin.Context, set recipeRelation) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID, _ := middleware.UserID(c)
	if err := set.Remove(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
