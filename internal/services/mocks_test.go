package services_test

import (
	"context"

	"recipebox/internal/models"
	"recipebox/internal/query"
	"recipebox/internal/repositories"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

// MockTokenRepository is a mock implementation of repositories.TokenRepository
type MockTokenRepository struct {
	mock.Mock
}

func (m *MockTokenRepository) Replace(ctx context.Context, token *models.Token) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockTokenRepository) GetByKey(ctx context.Context, key string) (*models.Token, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Token), args.Error(1)
}

// MockLabelRepository is a mock implementation of repositories.LabelRepository
type MockLabelRepository[T any] struct {
	mock.Mock
}

func (m *MockLabelRepository[T]) ListByOwner(ctx context.Context, ownerID uint) ([]T, error) {
	args := m.Called(ownerID)
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockLabelRepository[T]) FindOwned(ctx context.Context, ownerID uint, ids []uint) ([]T, error) {
	args := m.Called(ownerID, ids)
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockLabelRepository[T]) Create(ctx context.Context, item *T) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockLabelRepository[T]) DeleteOwned(ctx context.Context, ownerID, id uint) error {
	args := m.Called(ownerID, id)
	return args.Error(0)
}

// MockRecipeRepository is a mock implementation of repositories.RecipeRepository
type MockRecipeRepository struct {
	mock.Mock
}

func (m *MockRecipeRepository) List(ctx context.Context, filter query.RecipeFilter) ([]models.Recipe, error) {
	args := m.Called(filter)
	return args.Get(0).([]models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) GetOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	args := m.Called(ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

func (m *MockRecipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	args := m.Called(recipe)
	return args.Error(0)
}

func (m *MockRecipeRepository) Update(ctx context.Context, recipe *models.Recipe, replace repositories.AssociationSet) error {
	args := m.Called(recipe, replace)
	return args.Error(0)
}

func (m *MockRecipeRepository) DeleteOwned(ctx context.Context, ownerID, id uint) (*models.Recipe, error) {
	args := m.Called(ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

// MockImageStore is a mock implementation of storage.ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, name string, data []byte, contentType string) error {
	args := m.Called(name, data, contentType)
	return args.Error(0)
}

func (m *MockImageStore) Delete(ctx context.Context, name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockImageStore) URL(name string) string {
	return "/media/" + name
}

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(eventType string, payload any) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}
