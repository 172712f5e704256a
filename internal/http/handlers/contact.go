package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/http/response"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/services"
)

type ContactHandler struct {
	log            *logger.Logger
	contactService services.ContactService
}

func NewContactHandler(log *logger.Logger, contactService services.ContactService) *ContactHandler {
	handlerLog := log.With("handler", "ContactHandler")
	return &ContactHandler{log: handlerLog, contactService: contactService}
}

// contactRequest is the shared create/update body. Birthday travels as
// a YYYY-MM-DD string and is parsed here so the service layer only sees
// real dates.
type contactRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Birthday    string `json:"birthday"`
	Notes       string `json:"notes"`
	Address     struct {
		Country    string `json:"country"`
		PostalCode string `json:"postal_code"`
		City       string `json:"city"`
		Street     string `json:"street"`
		House      string `json:"house"`
		Apartment  string `json:"apartment"`
	} `json:"address"`
}

func (req *contactRequest) toInput() (services.ContactInput, error) {
	input := services.ContactInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Notes:       req.Notes,
		Address: types.ContactAddress{
			Country:    req.Address.Country,
			PostalCode: req.Address.PostalCode,
			City:       req.Address.City,
			Street:     req.Address.Street,
			House:      req.Address.House,
			Apartment:  req.Address.Apartment,
		},
	}
	if req.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", req.Birthday)
		if err != nil {
			return input, errors.New("birthday must be YYYY-MM-DD")
		}
		input.Birthday = birthday
	}
	return input, nil
}

func contactIDParam(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid contact id")
	}
	return id, nil
}

// POST /api/contacts
func (ch *ContactHandler) Create(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	contact, err := ch.contactService.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, ch.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contact": contact})
}

// GET /api/contacts?skip=0&limit=20&name=...&surname=...&email=...
func (ch *ContactHandler) List(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	contacts, err := ch.contactService.List(c.Request.Context(), services.ContactListQuery{
		Skip:      skip,
		Limit:     limit,
		FirstName: c.Query("name"),
		LastName:  c.Query("surname"),
		Email:     c.Query("email"),
	})
	if err != nil {
		response.Error(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"contacts": contacts})
}

// GET /api/contacts/:id
func (ch *ContactHandler) Get(c *gin.Context) {
	id, err := contactIDParam(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	contact, err := ch.contactService.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"contact": contact})
}

// PUT /api/contacts/:id
func (ch *ContactHandler) Update(c *gin.Context) {
	id, err := contactIDParam(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	contact, err := ch.contactService.Update(c.Request.Context(), id, input)
	if err != nil {
		response.Error(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"contact": contact})
}

// DELETE /api/contacts/:id
func (ch *ContactHandler) Delete(c *gin.Context) {
	id, err := contactIDParam(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	if err := ch.contactService.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, ch.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/contacts/birthdays?days=7
func (ch *ContactHandler) UpcomingBirthdays(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("days must be an integer"))
		return
	}

	contacts, err := ch.contactService.UpcomingBirthdays(c.Request.Context(), days)
	if err != nil {
		response.Error(c, ch.log, err)
		return
	}
	response.RespondOK(c, gin.H{"contacts": contacts})
}
