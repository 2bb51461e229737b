package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-service/internal/api/dto"
	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/service"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

// ContactsHandler exposes contact CRUD for the authenticated user.
type ContactsHandler struct {
	contacts *service.ContactService
}

// NewContactsHandler constructs handler.
func NewContactsHandler(contactService *service.ContactService) *ContactsHandler {
	return &ContactsHandler{contacts: contactService}
}

// List handles GET /contacts.
func (h *ContactsHandler) List(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthenticated("could not validate credentials")
	}

	skip := c.QueryInt("skip", 0)
	limit := c.QueryInt("limit", 100)

	contacts, err := h.contacts.List(c.UserContext(), user, skip, limit)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactListResponse(contacts))
}

// Get handles GET /contacts/:id.
func (h *ContactsHandler) Get(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthenticated("could not validate credentials")
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}

	contact, err := h.contacts.Get(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactResponse(contact))
}

// Create handles POST /contacts.
func (h *ContactsHandler) Create(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthenticated("could not validate credentials")
	}
	contact, err := parseContact(c)
	if err != nil {
		return err
	}

	created, err := h.contacts.Create(c.UserContext(), user, contact)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewContactResponse(created))
}

// Update handles PUT /contacts/:id.
func (h *ContactsHandler) Update(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthenticated("could not validate credentials")
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}
	contact, err := parseContact(c)
	if err != nil {
		return err
	}

	updated, err := h.contacts.Update(c.UserContext(), user, id, contact)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactResponse(updated))
}

// Delete handles DELETE /contacts/:id and returns the removed contact.
func (h *ContactsHandler) Delete(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthenticated("could not validate credentials")
	}
	id, err := contactID(c)
	if err != nil {
		return err
	}

	deleted, err := h.contacts.Delete(c.UserContext(), user, id)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewContactResponse(deleted))
}

func contactID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.NewError(http.StatusBadRequest, "invalid contact id")
	}
	return id, nil
}

func parseContact(c *fiber.Ctx) (*domain.Contact, error) {
	var req dto.ContactRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Surname == "" || req.Email == "" || req.Phone == "" {
		return nil, fiber.NewError(http.StatusBadRequest, "name, surname, email, phone required")
	}
	contact, err := req.ToDomain()
	if err != nil {
		return nil, fiber.NewError(http.StatusBadRequest, "birthday must be YYYY-MM-DD")
	}
	return contact, nil
}
