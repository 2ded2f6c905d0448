package contact

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/abduss/contactbook/internal/auth"
	"github.com/abduss/contactbook/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RegisterRoutes mounts contact endpoints onto an authenticated router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/contacts", handler.createContact)
	group.GET("/contacts", handler.listContacts)
	group.GET("/contacts/search", handler.searchContacts)
	group.GET("/contacts/birthdays", handler.upcomingBirthdays)
	group.GET("/contacts/:contactID", handler.getContact)
	group.PUT("/contacts/:contactID", handler.updateContact)
	group.DELETE("/contacts/:contactID", handler.deleteContact)

	group.PUT("/contacts/:contactID/avatar", handler.uploadAvatar)
	group.GET("/contacts/:contactID/avatar", handler.downloadAvatar)
	group.GET("/contacts/:contactID/avatar/url", handler.avatarURL)
	group.DELETE("/contacts/:contactID/avatar", handler.deleteAvatar)
}

type httpHandler struct {
	service *Service
}

type contactRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phone_number"`
	Birthday    string  `json:"birthday"`
	Note        *string `json:"note"`
}

type contactResponse struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Birthday    string    `json:"birthday"`
	Note        *string   `json:"note"`
	HasAvatar   bool      `json:"has_avatar"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(c Contact) contactResponse {
	return contactResponse{
		ID:          c.ID.String(),
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		Birthday:    c.Birthday.Format(DateLayout),
		Note:        c.Note,
		HasAvatar:   c.HasAvatar(),
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func toResponses(contacts []Contact) []contactResponse {
	out := make([]contactResponse, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, toResponse(c))
	}
	return out
}

func (h *httpHandler) createContact(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	fields, ok := bindFields(c)
	if !ok {
		return
	}

	contact, err := h.service.Create(c.Request.Context(), userID, fields)
	if err != nil {
		writeError(c, err, "failed to create contact")
		return
	}
	c.JSON(http.StatusCreated, toResponse(contact))
}

func (h *httpHandler) listContacts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	skip, skipErr := intQuery(c, "skip", 0)
	limit, limitErr := intQuery(c, "limit", DefaultLimit)
	if verr := validation.Merge(skipErr, limitErr); verr != nil {
		writeError(c, verr, "")
		return
	}

	contacts, err := h.service.List(c.Request.Context(), userID, skip, limit)
	if err != nil {
		writeError(c, err, "failed to list contacts")
		return
	}
	c.JSON(http.StatusOK, toResponses(contacts))
}

func (h *httpHandler) searchContacts(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	contacts, err := h.service.Search(c.Request.Context(), userID, c.Query("query"))
	if err != nil {
		writeError(c, err, "failed to search contacts")
		return
	}
	c.JSON(http.StatusOK, toResponses(contacts))
}

func (h *httpHandler) upcomingBirthdays(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	contacts, err := h.service.UpcomingBirthdays(c.Request.Context(), userID, h.service.Today())
	if err != nil {
		writeError(c, err, "failed to list birthdays")
		return
	}
	c.JSON(http.StatusOK, toResponses(contacts))
}

func (h *httpHandler) getContact(c *gin.Context) {
	userID, contactID, ok := requireContact(c)
	if !ok {
		return
	}

	contact, err := h.service.Get(c.Request.Context(), userID, contactID)
	if err != nil {
		writeError(c, err, "failed to get contact")
		return
	}
	c.JSON(http.StatusOK, toResponse(contact))
}

func (h *httpHandler) updateContact(c *gin.Context) {
	userID, contactID, ok := requireContact(c)
	if !ok {
		return
	}

	fields, ok := bindFields(c)
	if !ok {
		return
	}

	contact, err := h.service.Update(c.Request.Context(), userID, contactID, fields)
	if err != nil {
		writeError(c, err, "failed to update contact")
		return
	}
	c.JSON(http.StatusOK, toResponse(contact))
}

func (h *httpHandler) deleteContact(c *gin.Context) {
	userID, contactID, ok := requireContact(c)
	if !ok {
		return
	}

	contact, err := h.service.Delete(c.Request.Context(), userID, contactID)
	if err != nil {
		writeError(c, err, "failed to delete contact")
		return
	}
	c.JSON(http.StatusOK, toResponse(contact))
}

func (h *httpHandler) uploadAvatar(c *gin.Context) {
	userID, contactID, ok := requireContact(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, validation.NewError("file", "required", "is required"), "")
		return
	}

	contact, err := h.service.SetAvatar(c.Request.Context(), userID, contactID, fileHeader)
	if err != nil {
		writeError(c, err, "failed to upload avatar")
		return
	}
	c.JSON(http.StatusOK, toResponse(contact))
}

func (h *httpHandler) downloadAvatar(c *gin.Context) {
	userID, contactID, ok := requireContact(c)
	if !ok {
		return
	}

	contact, reader, err := h.service.Avatar(c.Request.Context(), userID, contactID)
	if err != nil {
		writeError(c, err, "failed to download avatar")
		return
	}
	defer reader.Close()

	contentType := "application/octet-stream"
	if contact.AvatarContentType != nil {
		contentType = *contact.AvatarContentType
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		_ = c.Error(err)
	}
}

func (h *httpHandler) avatarURL(c *gin.Context) {
	userID, contactID, ok := requireContact(c)
	if !ok {
		return
	}

	u, expiresAt, err := h.service.AvatarURL(c.Request.Context(), userID, contactID)
	if err != nil {
		writeError(c, err, "failed to presign avatar")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u, "expires_at": expiresAt.UTC()})
}

func (h *httpHandler) deleteAvatar(c *gin.Context) {
	userID, contactID, ok := requireContact(c)
	if !ok {
		return
	}

	if err := h.service.DeleteAvatar(c.Request.Context(), userID, contactID); err != nil {
		writeError(c, err, "failed to delete avatar")
		return
	}
	c.Status(http.StatusNoContent)
}

func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, _, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

func requireContact(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	contactID, err := uuid.Parse(c.Param("contactID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contact id"})
		return uuid.Nil, uuid.Nil, false
	}
	return userID, contactID, true
}

// bindFields decodes the request body. Only the birthday format is checked
// here; field rules belong to the service.
func bindFields(c *gin.Context) (Fields, bool) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return Fields{}, false
	}

	fields := Fields{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Note:        req.Note,
	}
	if req.Birthday != "" {
		birthday, err := time.Parse(DateLayout, req.Birthday)
		if err != nil {
			writeError(c, validation.NewError("birthday", "date", "must be a date in YYYY-MM-DD format"), "")
			return Fields{}, false
		}
		fields.Birthday = birthday
	}
	return fields, true
}

func intQuery(c *gin.Context, name string, fallback int) (int, *validation.Error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.NewError(name, "int", "must be an integer")
	}
	return n, nil
}

func writeError(c *gin.Context, err error, fallback string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, ErrContactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "contact not found"})
	case errors.Is(err, ErrAvatarNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "avatar not found"})
	case errors.Is(err, ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
	case errors.Is(err, ErrAvatarTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar too large"})
	case errors.Is(err, ErrAvatarType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar must be an image"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
