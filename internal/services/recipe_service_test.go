package services_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"strings"
	"testing"

	"recipebox/internal/apperrors"
	"recipebox/internal/models"
	"recipebox/internal/query"
	"recipebox/internal/repositories"
	"recipebox/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recipeFixture struct {
	recipes     *MockRecipeRepository
	tags        *MockLabelRepository[models.Tag]
	ingredients *MockLabelRepository[models.Ingredient]
	images      *MockImageStore
	events      *MockPublisher
	service     *services.RecipeService
}

func newRecipeFixture() *recipeFixture {
	f := &recipeFixture{
		recipes:     new(MockRecipeRepository),
		tags:        new(MockLabelRepository[models.Tag]),
		ingredients: new(MockLabelRepository[models.Ingredient]),
		images:      new(MockImageStore),
		events:      new(MockPublisher),
	}
	f.service = services.NewRecipeService(f.recipes, f.tags, f.ingredients, f.images, f.events)
	return f
}

func ptr[T any](v T) *T { return &v }

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func tag(id, owner uint, name string) models.Tag {
	t := models.Tag{Label: models.Label{Name: name, UserID: owner}}
	t.ID = id
	return t
}

func ingredient(id, owner uint, name string) models.Ingredient {
	i := models.Ingredient{Label: models.Label{Name: name, UserID: owner}}
	i.ID = id
	return i
}

func ownedRecipe(id, owner uint) *models.Recipe {
	r := &models.Recipe{
		UserID:      owner,
		Title:       "Cake",
		TimeMinutes: 10,
		Price:       decimal.RequireFromString("5.00"),
		Link:        "https://example.com",
		Tags:        []models.Tag{tag(1, owner, "Sweet")},
		Ingredients: []models.Ingredient{ingredient(2, owner, "Flour")},
	}
	r.ID = id
	return r
}

func pngData(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestRecipeService_Create(t *testing.T) {
	f := newRecipeFixture()
	ctx := context.Background()

	f.tags.On("FindOwned", uint(1), []uint{3}).Return([]models.Tag{tag(3, 1, "Vegan")}, nil).Once()
	f.ingredients.On("FindOwned", uint(1), []uint{}).Return([]models.Ingredient{}, nil).Once()
	f.recipes.On("Create", mock.AnythingOfType("*models.Recipe")).Return(nil).Once()
	f.events.On("Publish", services.EventRecipeCreated, mock.AnythingOfType("services.RecipeEvent")).Return(nil).Once()

	recipe, err := f.service.Create(ctx, 1, services.RecipeInput{
		Title:       ptr(" Cake "),
		TimeMinutes: ptr(10),
		Price:       price("5.00"),
		Tags:        []uint{3, 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "Cake", recipe.Title)
	assert.Equal(t, uint(1), recipe.UserID)
	assert.Equal(t, "5.00", recipe.Price.StringFixed(2))
	assert.Equal(t, []uint{3}, recipe.TagIDs())
	assert.Empty(t, recipe.Ingredients)
	f.recipes.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestRecipeService_Create_Validation(t *testing.T) {
	cases := map[string]struct {
		in    services.RecipeInput
		field string
	}{
		"missing title":     {services.RecipeInput{TimeMinutes: ptr(1), Price: price("1")}, "title"},
		"blank title":       {services.RecipeInput{Title: ptr("  "), TimeMinutes: ptr(1), Price: price("1")}, "title"},
		"long title":        {services.RecipeInput{Title: ptr(strings.Repeat("t", 256)), TimeMinutes: ptr(1), Price: price("1")}, "title"},
		"negative minutes":  {services.RecipeInput{Title: ptr("x"), TimeMinutes: ptr(-1), Price: price("1")}, "time_minutes"},
		"missing minutes":   {services.RecipeInput{Title: ptr("x"), Price: price("1")}, "time_minutes"},
		"negative price":    {services.RecipeInput{Title: ptr("x"), TimeMinutes: ptr(1), Price: price("-0.01")}, "price"},
		"too precise price": {services.RecipeInput{Title: ptr("x"), TimeMinutes: ptr(1), Price: price("1.005")}, "price"},
		"too large price":   {services.RecipeInput{Title: ptr("x"), TimeMinutes: ptr(1), Price: price("1000")}, "price"},
		"missing price":     {services.RecipeInput{Title: ptr("x"), TimeMinutes: ptr(1)}, "price"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f := newRecipeFixture()
			_, err := f.service.Create(context.Background(), 1, tc.in)

			var appErr *apperrors.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperrors.CodeValidation, appErr.Code)
			assert.Contains(t, appErr.Details, tc.field)
			f.recipes.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestRecipeService_Create_RejectsForeignTag(t *testing.T) {
	f := newRecipeFixture()

	// Tag 8 belongs to another user, so the owner-scoped lookup does not return it.
	f.tags.On("FindOwned", uint(1), []uint{3, 8}).Return([]models.Tag{tag(3, 1, "Vegan")}, nil).Once()

	_, err := f.service.Create(context.Background(), 1, services.RecipeInput{
		Title: ptr("Cake"), TimeMinutes: ptr(10), Price: price("5"), Tags: []uint{3, 8},
	})
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, map[string]string{"tags": "invalid id 8: object does not exist"}, appErr.Details)
	f.recipes.AssertNotCalled(t, "Create", mock.Anything)
}

func TestRecipeService_List(t *testing.T) {
	f := newRecipeFixture()
	filter := query.RecipeFilter{OwnerID: 1, TagIDs: []uint{1, 2}}
	f.recipes.On("List", filter).Return([]models.Recipe{*ownedRecipe(4, 1)}, nil).Once()

	got, err := f.service.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	f.recipes.AssertExpectations(t)
}

func TestRecipeService_PartialUpdateKeepsAssociations(t *testing.T) {
	f := newRecipeFixture()
	recipe := ownedRecipe(4, 1)

	f.recipes.On("GetOwned", uint(1), uint(4)).Return(recipe, nil).Once()
	f.tags.On("FindOwned", uint(1), []uint{5}).Return([]models.Tag{tag(5, 1, "Curry")}, nil).Once()
	f.recipes.On("Update", recipe, repositories.AssociationSet{Tags: true}).Return(nil).Once()
	f.events.On("Publish", services.EventRecipeUpdated, mock.Anything).Return(nil).Once()

	got, err := f.service.Update(context.Background(), 1, 4, services.RecipeInput{
		Title: ptr("Chicken tikka"),
		Tags:  []uint{5},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, "Chicken tikka", got.Title)
	assert.Equal(t, 10, got.TimeMinutes)
	assert.Equal(t, "https://example.com", got.Link)
	assert.Equal(t, []uint{5}, got.TagIDs())
	assert.Equal(t, []uint{2}, got.IngredientIDs())
	f.recipes.AssertExpectations(t)
	f.ingredients.AssertNotCalled(t, "FindOwned", mock.Anything, mock.Anything)
}

func TestRecipeService_FullUpdateClearsUnsuppliedAssociations(t *testing.T) {
	f := newRecipeFixture()
	recipe := ownedRecipe(4, 1)

	f.recipes.On("GetOwned", uint(1), uint(4)).Return(recipe, nil).Once()
	f.tags.On("FindOwned", uint(1), []uint{}).Return([]models.Tag{}, nil).Once()
	f.ingredients.On("FindOwned", uint(1), []uint{}).Return([]models.Ingredient{}, nil).Once()
	f.recipes.On("Update", recipe, repositories.AssociationSet{Tags: true, Ingredients: true}).Return(nil).Once()
	f.events.On("Publish", services.EventRecipeUpdated, mock.Anything).Return(nil).Once()

	got, err := f.service.Update(context.Background(), 1, 4, services.RecipeInput{
		Title:       ptr("Spaghetti"),
		TimeMinutes: ptr(25),
		Price:       price("5.00"),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "Spaghetti", got.Title)
	assert.Equal(t, 25, got.TimeMinutes)
	assert.Empty(t, got.Link)
	assert.Empty(t, got.Tags)
	assert.Empty(t, got.Ingredients)
	f.recipes.AssertExpectations(t)
}

func TestRecipeService_FullUpdateRequiresFields(t *testing.T) {
	f := newRecipeFixture()
	f.recipes.On("GetOwned", uint(1), uint(4)).Return(ownedRecipe(4, 1), nil).Once()

	_, err := f.service.Update(context.Background(), 1, 4, services.RecipeInput{Title: ptr("x")}, false)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details, "time_minutes")
	assert.Contains(t, appErr.Details, "price")
	f.recipes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRecipeService_UpdateForeignRecipeIsNotFound(t *testing.T) {
	f := newRecipeFixture()
	f.recipes.On("GetOwned", uint(2), uint(4)).Return(nil, apperrors.NotFound("recipe")).Once()

	_, err := f.service.Update(context.Background(), 2, 4, services.RecipeInput{Title: ptr("x")}, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRecipeService_AttachImage(t *testing.T) {
	f := newRecipeFixture()
	recipe := ownedRecipe(4, 1)
	recipe.Image = "uploads/recipe/old.png"
	data := pngData(t)

	var saved string
	f.recipes.On("GetOwned", uint(1), uint(4)).Return(recipe, nil).Once()
	f.images.On("Save", mock.AnythingOfType("string"), data, "image/png").
		Run(func(args mock.Arguments) { saved = args.String(0) }).
		Return(nil).Once()
	f.recipes.On("Update", recipe, repositories.AssociationSet{}).Return(nil).Once()
	f.images.On("Delete", "uploads/recipe/old.png").Return(nil).Once()
	f.events.On("Publish", services.EventRecipeImageAttached, mock.Anything).Return(nil).Once()

	got, err := f.service.AttachImage(context.Background(), 1, 4, data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved, "uploads/recipe/"))
	assert.True(t, strings.HasSuffix(saved, ".png"))
	assert.Equal(t, saved, got.Image)
	assert.NotEmpty(t, got.ImageBlurHash)
	assert.Equal(t, "/media/"+saved, f.service.ImageURL(got.Image))
	f.images.AssertExpectations(t)
	f.recipes.AssertExpectations(t)
}

func TestRecipeService_AttachImage_RejectsNonImage(t *testing.T) {
	f := newRecipeFixture()
	recipe := ownedRecipe(4, 1)
	recipe.Image = "uploads/recipe/old.png"
	f.recipes.On("GetOwned", uint(1), uint(4)).Return(recipe, nil).Once()

	_, err := f.service.AttachImage(context.Background(), 1, 4, []byte("notimage"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, "uploads/recipe/old.png", recipe.Image)
	f.images.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	f.recipes.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRecipeService_AttachImage_ReleasesFileWhenRecordUpdateFails(t *testing.T) {
	f := newRecipeFixture()
	recipe := ownedRecipe(4, 1)
	data := pngData(t)

	var saved string
	f.recipes.On("GetOwned", uint(1), uint(4)).Return(recipe, nil).Once()
	f.images.On("Save", mock.AnythingOfType("string"), data, "image/png").
		Run(func(args mock.Arguments) { saved = args.String(0) }).
		Return(nil).Once()
	f.recipes.On("Update", recipe, repositories.AssociationSet{}).Return(errors.New("db down")).Once()
	f.images.On("Delete", mock.AnythingOfType("string")).Return(nil).Once()

	_, err := f.service.AttachImage(context.Background(), 1, 4, data)
	assert.ErrorContains(t, err, "db down")
	f.images.AssertCalled(t, "Delete", saved)
	f.events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRecipeService_DeleteReleasesImage(t *testing.T) {
	f := newRecipeFixture()
	recipe := ownedRecipe(4, 1)
	recipe.Image = "uploads/recipe/a.jpg"

	f.recipes.On("DeleteOwned", uint(1), uint(4)).Return(recipe, nil).Once()
	f.images.On("Delete", "uploads/recipe/a.jpg").Return(nil).Once()
	f.events.On("Publish", services.EventRecipeDeleted, mock.Anything).Return(nil).Once()

	require.NoError(t, f.service.Delete(context.Background(), 1, 4))
	f.images.AssertExpectations(t)
}

func TestRecipeService_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newRecipeFixture()
	f.tags.On("FindOwned", uint(1), []uint{}).Return([]models.Tag{}, nil).Once()
	f.ingredients.On("FindOwned", uint(1), []uint{}).Return([]models.Ingredient{}, nil).Once()
	f.recipes.On("Create", mock.Anything).Return(nil).Once()
	f.events.On("Publish", services.EventRecipeCreated, mock.Anything).Return(errors.New("broker down")).Once()

	_, err := f.service.Create(context.Background(), 1, services.RecipeInput{
		Title: ptr("Cake"), TimeMinutes: ptr(10), Price: price("5"),
	})
	assert.NoError(t, err)
}
