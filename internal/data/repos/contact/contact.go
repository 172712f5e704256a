package contact

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/rolodex-backend/internal/domain"
	"github.com/yungbote/rolodex-backend/internal/pkg/dbctx"
	"github.com/yungbote/rolodex-backend/internal/platform/logger"
)

// ListQuery carries pagination plus optional case-insensitive
// substring filters.
type ListQuery struct {
	Skip      int
	Limit     int
	FirstName string
	LastName  string
	Email     string
}

// ContactRepo scopes every read and write to the owning user inside
// the query itself, so another user's contact is indistinguishable
// from a missing one.
type ContactRepo interface {
	Create(dbc dbctx.Context, contact *types.Contact) (*types.Contact, error)
	GetByID(dbc dbctx.Context, ownerID, contactID uuid.UUID) (*types.Contact, error)
	List(dbc dbctx.Context, ownerID uuid.UUID, q ListQuery) ([]*types.Contact, error)
	Update(dbc dbctx.Context, contact *types.Contact) (*types.Contact, error)
	SoftDeleteByID(dbc dbctx.Context, ownerID, contactID uuid.UUID) error
	UpcomingBirthdays(dbc dbctx.Context, ownerID uuid.UUID, days int, now time.Time) ([]*types.Contact, error)
}

type contactRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactRepo(db *gorm.DB, baseLog *logger.Logger) ContactRepo {
	repoLog := baseLog.With("repo", "ContactRepo")
	return &contactRepo{db: db, log: repoLog}
}

func (cr *contactRepo) Create(dbc dbctx.Context, contact *types.Contact) (*types.Contact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(dbc.Ctx).Create(contact).Error; err != nil {
		return nil, err
	}

	return contact, nil
}

func (cr *contactRepo) GetByID(dbc dbctx.Context, ownerID, contactID uuid.UUID) (*types.Contact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = cr.db
	}

	var result types.Contact
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND owner_id = ?", contactID, ownerID).
		First(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (cr *contactRepo) List(dbc dbctx.Context, ownerID uuid.UUID, q ListQuery) ([]*types.Contact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = cr.db
	}

	query := transaction.WithContext(dbc.Ctx).
		Where("owner_id = ?", ownerID)

	if q.FirstName != "" {
		query = query.Where("lower(first_name) LIKE lower(?)", "%"+q.FirstName+"%")
	}
	if q.LastName != "" {
		query = query.Where("lower(last_name) LIKE lower(?)", "%"+q.LastName+"%")
	}
	if q.Email != "" {
		query = query.Where("lower(email) LIKE lower(?)", "%"+q.Email+"%")
	}

	var results []*types.Contact
	if err := query.
		Order("created_at DESC").
		Offset(q.Skip).
		Limit(q.Limit).
		Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}

func (cr *contactRepo) Update(dbc dbctx.Context, contact *types.Contact) (*types.Contact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = cr.db
	}

	if err := transaction.WithContext(dbc.Ctx).Save(contact).Error; err != nil {
		return nil, err
	}

	return contact, nil
}

func (cr *contactRepo) SoftDeleteByID(dbc dbctx.Context, ownerID, contactID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = cr.db
	}

	return transaction.WithContext(dbc.Ctx).
		Where("id = ? AND owner_id = ?", contactID, ownerID).
		Delete(&types.Contact{}).Error
}

func (cr *contactRepo) UpcomingBirthdays(dbc dbctx.Context, ownerID uuid.UUID, days int, now time.Time) ([]*types.Contact, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = cr.db
	}

	keys := BirthdayKeys(now, days)
	expr := monthDayExpr(transaction.Dialector.Name())

	var results []*types.Contact
	if err := transaction.WithContext(dbc.Ctx).
		Where("owner_id = ?", ownerID).
		Where(expr+" IN ?", keys).
		Find(&results).Error; err != nil {
		return nil, err
	}

	// Sort by distance from now rather than by raw month/day, so a
	// window crossing New Year lists late December before early January.
	rank := make(map[int]int, len(keys))
	for i, k := range keys {
		rank[k] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return rank[birthdayKey(results[i])] < rank[birthdayKey(results[j])]
	})

	return results, nil
}

func birthdayKey(c *types.Contact) int {
	d := time.Time(c.Birthday)
	return int(d.Month())*100 + d.Day()
}

// BirthdayKeys lists month*100+day for each date from now through
// now+days inclusive, so a window crossing New Year still matches.
func BirthdayKeys(now time.Time, days int) []int {
	keys := make([]int, 0, days+1)
	for i := 0; i <= days; i++ {
		d := now.AddDate(0, 0, i)
		keys = append(keys, int(d.Month())*100+d.Day())
	}
	return keys
}

// monthDayExpr extracts month*100+day from the birthday column in the
// dialect at hand.
func monthDayExpr(dialect string) string {
	if dialect == "sqlite" {
		return "(CAST(strftime('%m', birthday) AS INTEGER) * 100 + CAST(strftime('%d', birthday) AS INTEGER))"
	}
	return "(EXTRACT(MONTH FROM birthday)::int * 100 + EXTRACT(DAY FROM birthday)::int)"
}
