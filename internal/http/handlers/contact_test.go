package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/platform/apierr"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
	"github.com/yungbote/rolodex-backend/internal/services"
)

type stubContactService struct {
	services.ContactService
	create    func(ctx context.Context, input services.ContactInput) (*types.Contact, error)
	list      func(ctx context.Context, q services.ContactListQuery) ([]*types.Contact, error)
	get       func(ctx context.Context, id uuid.UUID) (*types.Contact, error)
	update    func(ctx context.Context, id uuid.UUID, input services.ContactInput) (*types.Contact, error)
	remove    func(ctx context.Context, id uuid.UUID) error
	birthdays func(ctx context.Context, days int) ([]*types.Contact, error)
}

func (s *stubContactService) Create(ctx context.Context, input services.ContactInput) (*types.Contact, error) {
	return s.create(ctx, input)
}

func (s *stubContactService) List(ctx context.Context, q services.ContactListQuery) ([]*types.Contact, error) {
	return s.list(ctx, q)
}

func (s *stubContactService) Get(ctx context.Context, id uuid.UUID) (*types.Contact, error) {
	return s.get(ctx, id)
}

func (s *stubContactService) Update(ctx context.Context, id uuid.UUID, input services.ContactInput) (*types.Contact, error) {
	return s.update(ctx, id, input)
}

func (s *stubContactService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.remove(ctx, id)
}

func (s *stubContactService) UpcomingBirthdays(ctx context.Context, days int) ([]*types.Contact, error) {
	return s.birthdays(ctx, days)
}

func newContactRouter(t *testing.T, stub *stubContactService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	ch := NewContactHandler(log, stub)

	r := gin.New()
	r.POST("/api/contacts", ch.Create)
	r.GET("/api/contacts", ch.List)
	r.GET("/api/contacts/birthdays", ch.UpcomingBirthdays)
	r.GET("/api/contacts/:id", ch.Get)
	r.PUT("/api/contacts/:id", ch.Update)
	r.DELETE("/api/contacts/:id", ch.Delete)
	return r
}

func TestCreateContactParsesBody(t *testing.T) {
	t.Parallel()

	contactID := uuid.New()
	r := newContactRouter(t, &stubContactService{
		create: func(_ context.Context, input services.ContactInput) (*types.Contact, error) {
			if input.FirstName != "Ann" || input.Email != "ann.morris@example.com" {
				t.Fatalf("unexpected input: %+v", input)
			}
			wantBirthday := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
			if !input.Birthday.Equal(wantBirthday) {
				t.Fatalf("unexpected birthday: got=%s want=%s", input.Birthday, wantBirthday)
			}
			if input.Address.City != "Kyiv" {
				t.Fatalf("unexpected address: %+v", input.Address)
			}
			return &types.Contact{ID: contactID, FirstName: input.FirstName, LastName: input.LastName}, nil
		},
	})

	rec := postJSON(t, r, "/api/contacts", `{
		"first_name": "Ann",
		"last_name": "Morris",
		"email": "ann.morris@example.com",
		"phone_number": "+380501234567",
		"birthday": "1990-04-12",
		"address": {"country": "UA", "city": "Kyiv", "street": "Khreshchatyk", "house": "12"}
	}`)

	if rec.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var body struct {
		Contact struct {
			ID string `json:"id"`
		} `json:"contact"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Contact.ID != contactID.String() {
		t.Fatalf("unexpected contact id: got=%q want=%q", body.Contact.ID, contactID.String())
	}
}

func TestCreateContactRejectsBadBirthday(t *testing.T) {
	t.Parallel()

	r := newContactRouter(t, &stubContactService{
		create: func(_ context.Context, _ services.ContactInput) (*types.Contact, error) {
			t.Fatal("Create should not be called")
			return nil, nil
		},
	})

	rec := postJSON(t, r, "/api/contacts", `{
		"first_name": "Ann",
		"last_name": "Morris",
		"email": "ann.morris@example.com",
		"phone_number": "+380501234567",
		"birthday": "12/04/1990"
	}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if code := errCode(t, rec); code != "invalid_request" {
		t.Fatalf("unexpected error code: got=%q want=%q", code, "invalid_request")
	}
}

func TestListContactsForwardsQuery(t *testing.T) {
	t.Parallel()

	r := newContactRouter(t, &stubContactService{
		list: func(_ context.Context, q services.ContactListQuery) ([]*types.Contact, error) {
			if q.Skip != 40 || q.Limit != 20 {
				t.Fatalf("unexpected paging: %+v", q)
			}
			if q.FirstName != "ann" || q.LastName != "morris" || q.Email != "ann@" {
				t.Fatalf("unexpected filters: %+v", q)
			}
			return []*types.Contact{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts?skip=40&limit=20&name=ann&surname=morris&email=ann%40", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body struct {
		Contacts []json.RawMessage `json:"contacts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Contacts) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(body.Contacts))
	}
}

func TestGetContactRejectsBadID(t *testing.T) {
	t.Parallel()

	r := newContactRouter(t, &stubContactService{
		get: func(_ context.Context, _ uuid.UUID) (*types.Contact, error) {
			t.Fatal("Get should not be called")
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetContactMapsNotFound(t *testing.T) {
	t.Parallel()

	r := newContactRouter(t, &stubContactService{
		get: func(_ context.Context, _ uuid.UUID) (*types.Contact, error) {
			return nil, apierr.NotFound(errors.New("contact not found"))
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
	if code := errCode(t, rec); code != "not_found" {
		t.Fatalf("unexpected error code: got=%q want=%q", code, "not_found")
	}
}

func TestDeleteContactRespondsNoContent(t *testing.T) {
	t.Parallel()

	contactID := uuid.New()
	r := newContactRouter(t, &stubContactService{
		remove: func(_ context.Context, id uuid.UUID) error {
			if id != contactID {
				t.Fatalf("unexpected id: got=%s want=%s", id, contactID)
			}
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/contacts/"+contactID.String(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusNoContent)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}

func TestUpcomingBirthdaysParsesDays(t *testing.T) {
	t.Parallel()

	r := newContactRouter(t, &stubContactService{
		birthdays: func(_ context.Context, days int) ([]*types.Contact, error) {
			if days != 30 {
				t.Fatalf("unexpected days: got=%d want=%d", days, 30)
			}
			return []*types.Contact{{ID: uuid.New(), FirstName: "Ann"}}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/birthdays?days=30", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var body struct {
		Contacts []struct {
			FirstName string `json:"first_name"`
		} `json:"contacts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Contacts) != 1 || body.Contacts[0].FirstName != "Ann" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUpcomingBirthdaysDefaultsToSevenDays(t *testing.T) {
	t.Parallel()

	r := newContactRouter(t, &stubContactService{
		birthdays: func(_ context.Context, days int) ([]*types.Contact, error) {
			if days != 7 {
				t.Fatalf("unexpected days: got=%d want=%d", days, 7)
			}
			return nil, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/birthdays", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
}
