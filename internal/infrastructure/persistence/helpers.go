package persistence

import (
	"strings"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// versioned is satisfied by every aggregate embedding shared.BaseAggregateRoot
type versioned interface {
	IsNew() bool
	GetVersion() int
	PersistedVersion() int
	IncrementVersion()
	MarkPersisted()
}

// saveVersioned inserts a new aggregate, or updates an existing one guarded
// by the version it was loaded at. The version is bumped once per save unless
// the aggregate already bumped it. Zero rows updated means another writer got
// there first and yields shared.ErrConcurrencyConflict.
func saveVersioned(db *gorm.DB, agg versioned, build func() any, scopes ...func(*gorm.DB) *gorm.DB) error {
	if agg.IsNew() {
		if err := db.Omit(clause.Associations).Create(build()).Error; err != nil {
			return translateError(err)
		}
		agg.MarkPersisted()
		return nil
	}

	if agg.GetVersion() == agg.PersistedVersion() {
		agg.IncrementVersion()
	}
	model := build()
	result := db.Model(model).
		Scopes(scopes...).
		Where("version = ?", agg.PersistedVersion()).
		Select("*").
		Omit("created_at", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	agg.MarkPersisted()
	return nil
}

// tenantScope restricts a query to one tenant
func tenantScope(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("tenant_id = ?", tenantID)
	}
}

// findPage counts the rows matched by where and loads one ordered page of
// them into dest. Sort fields outside the whitelist fall back to defaultSort.
// The load scopes (preloads) apply to the page query only.
func findPage(db *gorm.DB, model any, where func(*gorm.DB) *gorm.DB, filter shared.Filter, sortFields map[string]bool, defaultSort string, dest any, load ...func(*gorm.DB) *gorm.DB) (int64, error) {
	filter = filter.Normalize()

	var total int64
	if err := db.Model(model).Scopes(where).Count(&total).Error; err != nil {
		return 0, translateError(err)
	}
	if total == 0 {
		return 0, nil
	}

	order := ValidateSortField(filter.OrderBy, sortFields, defaultSort) + " " + ValidateSortOrder(filter.OrderDir)
	if err := db.Model(model).
		Scopes(where).
		Scopes(load...).
		Order(order).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(dest).Error; err != nil {
		return 0, translateError(err)
	}
	return total, nil
}

// likePattern builds a case-insensitive LIKE pattern; callers compare
// against LOWER(column) so the query runs on both postgres and sqlite.
func likePattern(search string) string {
	s := strings.ToLower(strings.TrimSpace(search))
	s = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
	return "%" + s + "%"
}

// first loads one row or returns shared.ErrNotFound
func first(db *gorm.DB, dest any) error {
	return translateError(db.First(dest).Error)
}

// saveWithChildren saves an aggregate and rewrites its child rows in one
// transaction, nested as a savepoint when the caller already holds one.
func saveWithChildren(db *gorm.DB, agg versioned, build func() any, children func(tx *gorm.DB) error, scopes ...func(*gorm.DB) *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, agg, build, scopes...); err != nil {
			return err
		}
		return children(tx)
	})
}

// replaceRows deletes the children of parentID and inserts rows in their place
func replaceRows(tx *gorm.DB, model any, foreignKey string, parentID uuid.UUID, rows any, n int) error {
	if err := tx.Where(foreignKey+" = ?", parentID).Delete(model).Error; err != nil {
		return translateError(err)
	}
	if n == 0 {
		return nil
	}
	return translateError(tx.Create(rows).Error)
}

// orderedBy preloads children in their stored order
func orderedBy(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(column + " ASC")
	}
}
