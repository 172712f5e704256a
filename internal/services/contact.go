package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/rolodex-backend/internal/data/dberr"
	contactrepo "github.com/yungbote/rolodex-backend/internal/data/repos/contact"
	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/pkg/dbctx"
	"github.com/yungbote/rolodex-backend/internal/platform/apierr"
	"github.com/yungbote/rolodex-backend/internal/platform/ctxutil"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

const (
	defaultListLimit          = 20
	maxListLimit              = 100
	defaultBirthdayWindowDays = 7
	maxBirthdayWindowDays     = 365
)

type ContactInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	Birthday    time.Time
	Notes       string
	Address     types.ContactAddress
}

type ContactListQuery struct {
	Skip      int
	Limit     int
	FirstName string
	LastName  string
	Email     string
}

// ContactService is the owner-scoped address book. Every operation
// resolves the owner from the request context; a contact belonging to
// someone else is indistinguishable from a missing one.
type ContactService interface {
	Create(ctx context.Context, input ContactInput) (*types.Contact, error)
	List(ctx context.Context, q ContactListQuery) ([]*types.Contact, error)
	Get(ctx context.Context, contactID uuid.UUID) (*types.Contact, error)
	Update(ctx context.Context, contactID uuid.UUID, input ContactInput) (*types.Contact, error)
	Delete(ctx context.Context, contactID uuid.UUID) error
	UpcomingBirthdays(ctx context.Context, days int) ([]*types.Contact, error)
}

type contactService struct {
	db          *gorm.DB
	log         *logger.Logger
	contactRepo contactrepo.ContactRepo
}

func NewContactService(db *gorm.DB, log *logger.Logger, contactRepo contactrepo.ContactRepo) ContactService {
	serviceLog := log.With("service", "ContactService")
	return &contactService{
		db:          db,
		log:         serviceLog,
		contactRepo: contactRepo,
	}
}

func ownerFromContext(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized(apierr.CodeUnauthorized, errors.New("no user in request context"))
	}
	return rd.UserID, nil
}

func clampSkip(skip int) int {
	if skip < 0 {
		return 0
	}
	return skip
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func clampBirthdayDays(days int) int {
	if days <= 0 {
		return defaultBirthdayWindowDays
	}
	if days > maxBirthdayWindowDays {
		return maxBirthdayWindowDays
	}
	return days
}

func runeLenBetween(s string, min, max int) bool {
	n := utf8.RuneCountInString(s)
	return n >= min && n <= max
}

// validateContactInput trims all fields in place and checks the field
// constraints. The address block is optional as a whole; once any of
// its fields is set the block is validated.
func validateContactInput(input *ContactInput) error {
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Email = normalizeEmail(input.Email)
	input.PhoneNumber = strings.TrimSpace(input.PhoneNumber)

	if !runeLenBetween(input.FirstName, 2, 150) {
		return apierr.Invalid(errors.New("first_name must be between 2 and 150 characters"))
	}
	if !runeLenBetween(input.LastName, 2, 150) {
		return apierr.Invalid(errors.New("last_name must be between 2 and 150 characters"))
	}
	if !runeLenBetween(input.Email, 5, 150) {
		return apierr.Invalid(errors.New("email must be between 5 and 150 characters"))
	}
	if !runeLenBetween(input.PhoneNumber, 3, 20) {
		return apierr.Invalid(errors.New("phone_number must be between 3 and 20 characters"))
	}
	if input.Birthday.IsZero() {
		return apierr.Invalid(errors.New("birthday is required"))
	}

	addr := &input.Address
	addr.Country = strings.TrimSpace(addr.Country)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.City = strings.TrimSpace(addr.City)
	addr.Street = strings.TrimSpace(addr.Street)
	addr.House = strings.TrimSpace(addr.House)
	addr.Apartment = strings.TrimSpace(addr.Apartment)
	if *addr == (types.ContactAddress{}) {
		return nil
	}
	if !runeLenBetween(addr.Country, 2, 50) {
		return apierr.Invalid(errors.New("address country must be between 2 and 50 characters"))
	}
	if !runeLenBetween(addr.City, 2, 50) {
		return apierr.Invalid(errors.New("address city must be between 2 and 50 characters"))
	}
	if !runeLenBetween(addr.Street, 2, 50) {
		return apierr.Invalid(errors.New("address street must be between 2 and 50 characters"))
	}
	if !runeLenBetween(addr.House, 1, 4) {
		return apierr.Invalid(errors.New("address house must be between 1 and 4 characters"))
	}
	if addr.Apartment != "" && !runeLenBetween(addr.Apartment, 1, 4) {
		return apierr.Invalid(errors.New("address apartment must be at most 4 characters"))
	}
	if addr.PostalCode != "" && !runeLenBetween(addr.PostalCode, 1, 10) {
		return apierr.Invalid(errors.New("address postal_code must be at most 10 characters"))
	}
	return nil
}

func (cs *contactService) Create(ctx context.Context, input ContactInput) (*types.Contact, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateContactInput(&input); err != nil {
		return nil, err
	}

	contact := &types.Contact{
		OwnerID:     ownerID,
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		Email:       input.Email,
		PhoneNumber: input.PhoneNumber,
		Birthday:    datatypes.Date(input.Birthday),
		Notes:       input.Notes,
		Address:     input.Address,
	}
	created, err := cs.contactRepo.Create(dbctx.New(ctx), contact)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("create contact: %w", err))
	}
	return created, nil
}

func (cs *contactService) List(ctx context.Context, q ContactListQuery) ([]*types.Contact, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	contacts, err := cs.contactRepo.List(dbctx.New(ctx), ownerID, contactrepo.ListQuery{
		Skip:      clampSkip(q.Skip),
		Limit:     clampLimit(q.Limit),
		FirstName: strings.TrimSpace(q.FirstName),
		LastName:  strings.TrimSpace(q.LastName),
		Email:     strings.TrimSpace(q.Email),
	})
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("list contacts: %w", err))
	}
	return contacts, nil
}

func (cs *contactService) Get(ctx context.Context, contactID uuid.UUID) (*types.Contact, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	contact, err := cs.contactRepo.GetByID(dbctx.New(ctx), ownerID, contactID)
	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, apierr.NotFound(errors.New("contact not found"))
		}
		return nil, apierr.Internal(fmt.Errorf("fetch contact: %w", err))
	}
	return contact, nil
}

func (cs *contactService) Update(ctx context.Context, contactID uuid.UUID, input ContactInput) (*types.Contact, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateContactInput(&input); err != nil {
		return nil, err
	}

	var out *types.Contact
	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}

		existing, err := cs.contactRepo.GetByID(inner, ownerID, contactID)
		if err != nil {
			if dberr.IsNotFound(err) {
				return apierr.NotFound(errors.New("contact not found"))
			}
			return fmt.Errorf("fetch contact: %w", err)
		}

		existing.FirstName = input.FirstName
		existing.LastName = input.LastName
		existing.Email = input.Email
		existing.PhoneNumber = input.PhoneNumber
		existing.Birthday = datatypes.Date(input.Birthday)
		existing.Notes = input.Notes
		existing.Address = input.Address

		updated, err := cs.contactRepo.Update(inner, existing)
		if err != nil {
			return fmt.Errorf("update contact: %w", err)
		}
		out = updated
		return nil
	}); err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		return nil, apierr.Internal(err)
	}
	return out, nil
}

func (cs *contactService) Delete(ctx context.Context, contactID uuid.UUID) error {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return err
	}

	if err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := cs.contactRepo.GetByID(inner, ownerID, contactID); err != nil {
			if dberr.IsNotFound(err) {
				return apierr.NotFound(errors.New("contact not found"))
			}
			return fmt.Errorf("fetch contact: %w", err)
		}
		return cs.contactRepo.SoftDeleteByID(inner, ownerID, contactID)
	}); err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return ae
		}
		return apierr.Internal(err)
	}
	return nil
}

func (cs *contactService) UpcomingBirthdays(ctx context.Context, days int) ([]*types.Contact, error) {
	ownerID, err := ownerFromContext(ctx)
	if err != nil {
		return nil, err
	}

	contacts, err := cs.contactRepo.UpcomingBirthdays(dbctx.New(ctx), ownerID, clampBirthdayDays(days), time.Now())
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("upcoming birthdays: %w", err))
	}
	return contacts, nil
}
