package handlers

import (
	"io"

	"recipebox/internal/apperrors"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/query"
	"recipebox/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// imageField is the multipart field carrying an uploaded recipe image.
const imageField = "image"

// RecipeHandler handles HTTP requests for recipes.
type RecipeHandler struct {
	service *services.RecipeService
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(service *services.RecipeService) *RecipeHandler {
	return &RecipeHandler{
		service: service,
	}
}

// RegisterRoutes mounts the recipe routes at router. The router must already require auth.
func (h *RecipeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleList)
	router.Post("/", h.HandleCreate)
	router.Get("/:id", h.HandleGet)
	router.Put("/:id", h.HandleReplace)
	router.Patch("/:id", h.HandleUpdate)
	router.Delete("/:id", h.HandleDelete)
	router.Post("/:id/upload-image", h.HandleUploadImage)
}

// RecipeResponse is the list and write view of a recipe: associations as ids.
type RecipeResponse struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	TimeMinutes int     `json:"time_minutes"`
	Price       string  `json:"price"`
	Link        string  `json:"link"`
	Tags        []uint  `json:"tags"`
	Ingredients []uint  `json:"ingredients"`
	Image       *string `json:"image"`
}

// RecipeDetailResponse nests tag and ingredient records.
type RecipeDetailResponse struct {
	ID            uint            `json:"id"`
	Title         string          `json:"title"`
	TimeMinutes   int             `json:"time_minutes"`
	Price         string          `json:"price"`
	Link          string          `json:"link"`
	Tags          []LabelResponse `json:"tags"`
	Ingredients   []LabelResponse `json:"ingredients"`
	Image         *string         `json:"image"`
	ImageBlurHash string          `json:"image_blurhash,omitempty"`
}

// RecipeImageResponse is returned by the upload endpoint.
type RecipeImageResponse struct {
	ID    uint   `json:"id"`
	Image string `json:"image"`
}

func (h *RecipeHandler) imageURL(r *models.Recipe) *string {
	if r.Image == "" {
		return nil
	}
	url := h.service.ImageURL(r.Image)
	return &url
}

func (h *RecipeHandler) toResponse(r *models.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.StringFixed(2),
		Link:        r.Link,
		Tags:        r.TagIDs(),
		Ingredients: r.IngredientIDs(),
		Image:       h.imageURL(r),
	}
}

func (h *RecipeHandler) toDetailResponse(r *models.Recipe) RecipeDetailResponse {
	tags := make([]LabelResponse, 0, len(r.Tags))
	for _, t := range r.Tags {
		tags = append(tags, LabelResponse{ID: t.ID, Name: t.Name})
	}
	ingredients := make([]LabelResponse, 0, len(r.Ingredients))
	for _, i := range r.Ingredients {
		ingredients = append(ingredients, LabelResponse{ID: i.ID, Name: i.Name})
	}
	return RecipeDetailResponse{
		ID:            r.ID,
		Title:         r.Title,
		TimeMinutes:   r.TimeMinutes,
		Price:         r.Price.StringFixed(2),
		Link:          r.Link,
		Tags:          tags,
		Ingredients:   ingredients,
		Image:         h.imageURL(r),
		ImageBlurHash: r.ImageBlurHash,
	}
}

// HandleList returns the caller's recipes, optionally filtered by
// ?tags=1,2 and ?ingredients=3 (any-of within each parameter).
func (h *RecipeHandler) HandleList(c *fiber.Ctx) error {
	tagIDs, err := query.ParseIDs("tags", c.Query("tags"))
	if err != nil {
		return err
	}
	ingredientIDs, err := query.ParseIDs("ingredients", c.Query("ingredients"))
	if err != nil {
		return err
	}

	recipes, err := h.service.List(c.UserContext(), query.RecipeFilter{
		OwnerID:       middleware.CurrentUser(c).ID,
		TagIDs:        tagIDs,
		IngredientIDs: ingredientIDs,
	})
	if err != nil {
		return err
	}

	out := make([]RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, h.toResponse(&recipes[i]))
	}
	return c.JSON(out)
}

// HandleGet returns one of the caller's recipes with nested associations.
func (h *RecipeHandler) HandleGet(c *fiber.Ctx) error {
	id, err := paramID(c, "recipe")
	if err != nil {
		return err
	}
	recipe, err := h.service.Get(c.UserContext(), middleware.CurrentUser(c).ID, id)
	if err != nil {
		return err
	}
	return c.JSON(h.toDetailResponse(recipe))
}

// HandleCreate creates a recipe owned by the caller.
func (h *RecipeHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.RecipeInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	recipe, err := h.service.Create(c.UserContext(), middleware.CurrentUser(c).ID, req)
	if err != nil {
		return err
	}

	log.Info().Uint("recipe_id", recipe.ID).Uint("user_id", recipe.UserID).Msg("recipe created")
	return c.Status(fiber.StatusCreated).JSON(h.toResponse(recipe))
}

// HandleReplace is PUT: every field is replaced, absent associations are cleared.
func (h *RecipeHandler) HandleReplace(c *fiber.Ctx) error {
	return h.update(c, false)
}

// HandleUpdate is PATCH: only supplied fields change.
func (h *RecipeHandler) HandleUpdate(c *fiber.Ctx) error {
	return h.update(c, true)
}

func (h *RecipeHandler) update(c *fiber.Ctx, partial bool) error {
	id, err := paramID(c, "recipe")
	if err != nil {
		return err
	}
	var req services.RecipeInput
	if err := parseBody(c, &req); err != nil {
		return err
	}

	recipe, err := h.service.Update(c.UserContext(), middleware.CurrentUser(c).ID, id, req, partial)
	if err != nil {
		return err
	}
	return c.JSON(h.toResponse(recipe))
}

// HandleDelete removes one of the caller's recipes.
func (h *RecipeHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, "recipe")
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleUploadImage stores a multipart image for one of the caller's recipes.
func (h *RecipeHandler) HandleUploadImage(c *fiber.Ctx) error {
	id, err := paramID(c, "recipe")
	if err != nil {
		return err
	}

	header, err := c.FormFile(imageField)
	if err != nil {
		return apperrors.FieldError(imageField, "no file was submitted")
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.Internal("could not read upload", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return apperrors.Internal("could not read upload", err)
	}
	if len(data) == 0 {
		return apperrors.FieldError(imageField, "the submitted file is empty")
	}

	recipe, err := h.service.AttachImage(c.UserContext(), middleware.CurrentUser(c).ID, id, data)
	if err != nil {
		return err
	}
	return c.JSON(RecipeImageResponse{ID: recipe.ID, Image: h.service.ImageURL(recipe.Image)})
}
