package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"recipebox/internal/apperrors"
	"recipebox/internal/metrics"
	"recipebox/internal/models"
	"recipebox/internal/query"
	"recipebox/internal/repositories"
	"recipebox/internal/storage"
	"recipebox/internal/validation"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Recipe event types.
const (
	EventRecipeCreated       = "recipe.created"
	EventRecipeUpdated       = "recipe.updated"
	EventRecipeDeleted       = "recipe.deleted"
	EventRecipeImageAttached = "recipe.image_attached"
)

// maxPrice is the exclusive upper bound of a decimal(5,2) price.
var maxPrice = decimal.NewFromInt(1000)

// EventPublisher delivers recipe lifecycle events. It may be nil.
type EventPublisher interface {
	Publish(eventType string, payload any) error
}

// RecipeEvent is the payload of every recipe event.
type RecipeEvent struct {
	RecipeID   uint      `json:"recipe_id"`
	OwnerID    uint      `json:"owner_id"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RecipeInput carries create and update payloads. A nil field was not supplied;
// for tags and ingredients an empty, non-nil slice means "no associations".
type RecipeInput struct {
	Title       *string          `json:"title" validate:"omitnil,min=1,max=255"`
	TimeMinutes *int             `json:"time_minutes" validate:"omitnil,gte=0"`
	Price       *decimal.Decimal `json:"price" validate:"-"`
	Link        *string          `json:"link" validate:"omitnil,max=600"`
	Tags        []uint           `json:"tags"`
	Ingredients []uint           `json:"ingredients"`
}

// RecipeService handles business logic related to recipes.
type RecipeService struct {
	recipes     repositories.RecipeRepository
	tags        repositories.LabelRepository[models.Tag]
	ingredients repositories.LabelRepository[models.Ingredient]
	images      storage.ImageStore
	events      EventPublisher
	validate    *validation.Validator
}

// NewRecipeService creates a new RecipeService. events may be nil.
func NewRecipeService(
	recipes repositories.RecipeRepository,
	tags repositories.LabelRepository[models.Tag],
	ingredients repositories.LabelRepository[models.Ingredient],
	images storage.ImageStore,
	events EventPublisher,
) *RecipeService {
	return &RecipeService{
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		images:      images,
		events:      events,
		validate:    validation.New(),
	}
}

// List returns the owner's recipes matching filter, newest first.
func (s *RecipeService) List(ctx context.Context, filter query.RecipeFilter) ([]models.Recipe, error) {
	return s.recipes.List(ctx, filter)
}

// Get returns one of the owner's recipes. Other owners' recipes are NotFound.
func (s *RecipeService) Get(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	return s.recipes.GetOwned(ctx, ownerID, id)
}

// Create validates in and stores a recipe owned by ownerID.
func (s *RecipeService) Create(ctx context.Context, ownerID uint, in RecipeInput) (*models.Recipe, error) {
	if err := s.check(&in, true); err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		UserID:      ownerID,
		Title:       *in.Title,
		TimeMinutes: *in.TimeMinutes,
		Price:       *in.Price,
	}
	if in.Link != nil {
		recipe.Link = *in.Link
	}

	var err error
	if recipe.Tags, err = s.resolveTags(ctx, ownerID, in.Tags); err != nil {
		return nil, err
	}
	if recipe.Ingredients, err = s.resolveIngredients(ctx, ownerID, in.Ingredients); err != nil {
		return nil, err
	}

	if err := s.recipes.Create(ctx, recipe); err != nil {
		return nil, err
	}

	s.publish(EventRecipeCreated, recipe)
	return recipe, nil
}

// Update changes one of the owner's recipes.
//
// A partial update touches only supplied fields and keeps unsupplied
// associations. A full update requires title, time_minutes and price, resets
// an absent link, and replaces both association sets with exactly what was
// supplied, clearing absent ones.
func (s *RecipeService) Update(ctx context.Context, ownerID, id uint, in RecipeInput, partial bool) (*models.Recipe, error) {
	recipe, err := s.recipes.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.check(&in, !partial); err != nil {
		return nil, err
	}

	if in.Title != nil {
		recipe.Title = *in.Title
	}
	if in.TimeMinutes != nil {
		recipe.TimeMinutes = *in.TimeMinutes
	}
	if in.Price != nil {
		recipe.Price = *in.Price
	}
	if in.Link != nil {
		recipe.Link = *in.Link
	} else if !partial {
		recipe.Link = ""
	}

	replace := repositories.AssociationSet{
		Tags:        !partial || in.Tags != nil,
		Ingredients: !partial || in.Ingredients != nil,
	}
	if replace.Tags {
		if recipe.Tags, err = s.resolveTags(ctx, ownerID, in.Tags); err != nil {
			return nil, err
		}
	}
	if replace.Ingredients {
		if recipe.Ingredients, err = s.resolveIngredients(ctx, ownerID, in.Ingredients); err != nil {
			return nil, err
		}
	}

	if err := s.recipes.Update(ctx, recipe, replace); err != nil {
		return nil, err
	}

	s.publish(EventRecipeUpdated, recipe)
	return recipe, nil
}

// Delete removes one of the owner's recipes and releases its image.
func (s *RecipeService) Delete(ctx context.Context, ownerID, id uint) error {
	recipe, err := s.recipes.DeleteOwned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if recipe.Image != "" {
		s.releaseImage(ctx, recipe.Image)
	}
	s.publish(EventRecipeDeleted, recipe)
	return nil
}

// AttachImage validates data as a raster image, stores it under a fresh name
// and points the recipe at it. The file is written before the record changes,
// so a failed update never leaves the recipe referencing a missing file; the
// previous image is released only after the record is updated.
func (s *RecipeService) AttachImage(ctx context.Context, ownerID, id uint, data []byte) (*models.Recipe, error) {
	recipe, err := s.recipes.GetOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	info, err := storage.Inspect(data)
	if err != nil {
		if errors.Is(err, storage.ErrNotImage) {
			return nil, apperrors.FieldError("image", "upload a valid image; the file is either not an image or corrupted")
		}
		return nil, err
	}

	name := storage.NewImageName(info.Ext())
	if err := s.images.Save(ctx, name, data, info.ContentType()); err != nil {
		return nil, apperrors.Internal("could not store image", err)
	}

	previous := recipe.Image
	recipe.Image = name
	recipe.ImageBlurHash = info.BlurHash
	if err := s.recipes.Update(ctx, recipe, repositories.AssociationSet{}); err != nil {
		s.releaseImage(ctx, name)
		return nil, err
	}
	if previous != "" {
		s.releaseImage(ctx, previous)
	}

	metrics.RecordRecipeImage(info.Format)
	log.Info().Uint("recipe_id", recipe.ID).Str("image", name).Str("format", info.Format).Msg("recipe image attached")
	s.publish(EventRecipeImageAttached, recipe)
	return recipe, nil
}

// ImageURL maps a stored image name to its public URL; empty stays empty.
func (s *RecipeService) ImageURL(name string) string {
	if name == "" {
		return ""
	}
	return s.images.URL(name)
}

// check normalizes and validates in. When full is set, title, time_minutes
// and price must be present.
func (s *RecipeService) check(in *RecipeInput, full bool) error {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Link != nil {
		link := strings.TrimSpace(*in.Link)
		in.Link = &link
	}

	fields := map[string]string{}
	if err := s.validate.Validate(in); err != nil {
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			return err
		}
		if details, ok := appErr.Details.(map[string]string); ok {
			for k, v := range details {
				fields[k] = v
			}
		}
	}

	if full {
		if in.Title == nil {
			fields["title"] = "is required"
		}
		if in.TimeMinutes == nil {
			fields["time_minutes"] = "is required"
		}
		if in.Price == nil {
			fields["price"] = "is required"
		}
	}
	if in.Price != nil {
		if msg := checkPrice(*in.Price); msg != "" {
			fields["price"] = msg
		}
	}

	if len(fields) > 0 {
		return apperrors.Validation("validation failed", fields)
	}
	return nil
}

func checkPrice(p decimal.Decimal) string {
	switch {
	case p.IsNegative():
		return "must be greater than or equal to 0"
	case !p.Round(2).Equal(p):
		return "must have no more than 2 decimal places"
	case p.GreaterThanOrEqual(maxPrice):
		return "must be less than 1000"
	}
	return ""
}

func (s *RecipeService) resolveTags(ctx context.Context, ownerID uint, ids []uint) ([]models.Tag, error) {
	ids = uniqueIDs(ids)
	found, err := s.tags.FindOwned(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if missing, ok := firstMissing(ids, len(found), func(i int) uint { return found[i].ID }); ok {
		return nil, apperrors.FieldError("tags", fmt.Sprintf("invalid id %d: object does not exist", missing))
	}
	return found, nil
}

func (s *RecipeService) resolveIngredients(ctx context.Context, ownerID uint, ids []uint) ([]models.Ingredient, error) {
	ids = uniqueIDs(ids)
	found, err := s.ingredients.FindOwned(ctx, ownerID, ids)
	if err != nil {
		return nil, err
	}
	if missing, ok := firstMissing(ids, len(found), func(i int) uint { return found[i].ID }); ok {
		return nil, apperrors.FieldError("ingredients", fmt.Sprintf("invalid id %d: object does not exist", missing))
	}
	return found, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// firstMissing reports the first requested id absent from the n found records.
func firstMissing(requested []uint, n int, foundID func(int) uint) (uint, bool) {
	have := make(map[uint]struct{}, n)
	for i := 0; i < n; i++ {
		have[foundID(i)] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := have[id]; !ok {
			return id, true
		}
	}
	return 0, false
}

func (s *RecipeService) releaseImage(ctx context.Context, name string) {
	if err := s.images.Delete(ctx, name); err != nil {
		log.Warn().Err(err).Str("image", name).Msg("failed to release recipe image")
	}
}

func (s *RecipeService) publish(eventType string, recipe *models.Recipe) {
	if s.events == nil {
		return
	}
	event := RecipeEvent{
		RecipeID:   recipe.ID,
		OwnerID:    recipe.UserID,
		Title:      recipe.Title,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.events.Publish(eventType, event); err != nil {
		log.Warn().Err(err).Str("event", eventType).Uint("recipe_id", recipe.ID).Msg("failed to publish recipe event")
	}
}
