// Package store persists roles and organizations through GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nebari-dev/authz/internal/apperror"
	"github.com/nebari-dev/authz/internal/models"
)

// likeEscape is portable across SQLite, PostgreSQL and MySQL string literals.
const likeEscape = "!"

// Store is the persistence contract shared by the entity tables. T is the
// GORM model; every entity has an integer id and a case-insensitively unique
// name column backed by a folded key column.
type Store[T any] struct {
	db         *gorm.DB
	label      string // entity name used in messages, e.g. "Role"
	nameColumn string
	keyColumn  string // folded name, see models.NameKey
}

// NewRoleStore returns the store for the role table.
func NewRoleStore(db *gorm.DB) *Store[models.Role] {
	return &Store[models.Role]{db: db, label: "Role", nameColumn: "name", keyColumn: "nameKey"}
}

// NewOrganizationStore returns the store for the organization table.
func NewOrganizationStore(db *gorm.DB) *Store[models.Organization] {
	return &Store[models.Organization]{db: db, label: "Organization", nameColumn: "organizationName", keyColumn: "organizationNameKey"}
}

// FindByID returns the entity with the given id or a NotFound error.
func (s *Store[T]) FindByID(ctx context.Context, id int64) (*T, error) {
	var entity T
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(fmt.Sprintf("id: %d %q doesn't exists.", id, s.label))
		}
		return nil, fmt.Errorf("find %s %d: %w", strings.ToLower(s.label), id, err)
	}
	return &entity, nil
}

// FindByName returns the entity whose name equals name ignoring case, or nil.
func (s *Store[T]) FindByName(ctx context.Context, name string) (*T, error) {
	var entity T
	err := s.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: s.keyColumn}, Value: models.NameKey(name)}).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s by name: %w", strings.ToLower(s.label), err)
	}
	return &entity, nil
}

// Search returns entities whose name contains keyword ignoring case, ordered
// by name. An empty keyword matches everything.
func (s *Store[T]) Search(ctx context.Context, keyword string) ([]T, error) {
	query := s.db.WithContext(ctx)
	if keyword != "" {
		pattern := "%" + escapeLike(models.NameKey(keyword)) + "%"
		query = query.Where("? LIKE ? ESCAPE '"+likeEscape+"'", clause.Column{Name: s.keyColumn}, pattern)
	}

	entities := []T{}
	err := query.Order(clause.OrderByColumn{Column: clause.Column{Name: s.nameColumn}}).Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", strings.ToLower(s.label), err)
	}
	return entities, nil
}

// All returns every row ordered by id.
func (s *Store[T]) All(ctx context.Context) ([]T, error) {
	entities := []T{}
	if err := s.db.WithContext(ctx).Order("id").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", strings.ToLower(s.label), err)
	}
	return entities, nil
}

// Create inserts the entity, assigning its id and timestamps.
func (s *Store[T]) Create(ctx context.Context, entity *T) error {
	if err := s.checkLengths(ctx, entity, nil); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		return s.translate(err)
	}
	return nil
}

// Update merges fields (keyed by column name) into the entity. A nil value
// clears a nullable column. The entity is reloaded afterwards.
func (s *Store[T]) Update(ctx context.Context, entity *T, fields map[string]any) error {
	if err := s.checkLengths(ctx, nil, fields); err != nil {
		return err
	}
	if name, ok := fields[s.nameColumn].(string); ok {
		fields[s.keyColumn] = models.NameKey(name)
	}
	if err := s.db.WithContext(ctx).Model(entity).Updates(fields).Error; err != nil {
		return s.translate(err)
	}
	if err := s.db.WithContext(ctx).First(entity).Error; err != nil {
		return fmt.Errorf("reload %s: %w", strings.ToLower(s.label), err)
	}
	return nil
}

// Delete removes the entity permanently.
func (s *Store[T]) Delete(ctx context.Context, entity *T) error {
	if err := s.db.WithContext(ctx).Delete(entity).Error; err != nil {
		return fmt.Errorf("delete %s: %w", strings.ToLower(s.label), err)
	}
	return nil
}

func (s *Store[T]) translate(err error) error {
	if IsUniqueViolation(err) {
		return apperror.Conflict(fmt.Sprintf("%s with the same %s already exists.", s.label, s.nameColumn), err)
	}
	if IsValueTooLong(err) {
		return apperror.BadRequest(fmt.Sprintf("%s value is too long.", s.label), err)
	}
	return fmt.Errorf("write %s: %w", strings.ToLower(s.label), err)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}
