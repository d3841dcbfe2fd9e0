package handlers

import (
	"recipebox/internal/middleware"
	"recipebox/internal/repositories"
	"recipebox/internal/services"

	"github.com/gofiber/fiber/v2"
)

// LabelHandler serves one owner-scoped label collection (tags or ingredients).
type LabelHandler[T any, PT repositories.LabelPtr[T]] struct {
	service  *services.LabelService[T, PT]
	resource string
}

// NewLabelHandler creates a LabelHandler. resource names the label in 404 messages.
func NewLabelHandler[T any, PT repositories.LabelPtr[T]](service *services.LabelService[T, PT], resource string) *LabelHandler[T, PT] {
	return &LabelHandler[T, PT]{service: service, resource: resource}
}

// RegisterRoutes mounts the collection at router. The router must already require auth.
func (h *LabelHandler[T, PT]) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleList)
	router.Post("/", h.HandleCreate)
	router.Delete("/:id", h.HandleDelete)
}

// LabelResponse is the public view of a tag or ingredient.
type LabelResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// LabelRequest is the create payload for a tag or ingredient.
type LabelRequest struct {
	Name string `json:"name"`
}

func toLabelResponse[T any, PT repositories.LabelPtr[T]](item *T) LabelResponse {
	base := PT(item).Base()
	return LabelResponse{ID: base.ID, Name: base.Name}
}

// HandleList returns the caller's labels.
func (h *LabelHandler[T, PT]) HandleList(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}

	out := make([]LabelResponse, 0, len(items))
	for i := range items {
		out = append(out, toLabelResponse[T, PT](&items[i]))
	}
	return c.JSON(out)
}

// HandleCreate creates a label owned by the caller.
func (h *LabelHandler[T, PT]) HandleCreate(c *fiber.Ctx) error {
	var req LabelRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	item, err := h.service.Create(c.UserContext(), middleware.CurrentUser(c).ID, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toLabelResponse[T, PT](item))
}

// HandleDelete removes one of the caller's labels.
func (h *LabelHandler[T, PT]) HandleDelete(c *fiber.Ctx) error {
	id, err := paramID(c, h.resource)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
