package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/nebari-dev/authz/internal/apperror"
)

// checkLengths rejects string values longer than their column's declared
// size. Values come from entity, or from fields (keyed by column) when
// entity is nil.
func (s *Store[T]) checkLengths(ctx context.Context, entity *T, fields map[string]any) error {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(new(T)); err != nil {
		return fmt.Errorf("parse %s schema: %w", strings.ToLower(s.label), err)
	}

	for _, field := range stmt.Schema.Fields {
		if field.DataType != schema.String || field.Size <= 0 {
			continue
		}

		var value any
		if entity != nil {
			value, _ = field.ValueOf(ctx, reflect.ValueOf(entity).Elem())
		} else {
			var ok bool
			if value, ok = fields[field.DBName]; !ok {
				continue
			}
		}

		text, ok := stringValue(value)
		if !ok {
			continue
		}
		if utf8.RuneCountInString(text) > field.Size {
			return apperror.BadRequest(fmt.Sprintf("%q length must be less than or equal to %d characters long", jsonName(field), field.Size))
		}
	}
	return nil
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	default:
		return "", false
	}
}

func jsonName(field *schema.Field) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}
	return name
}
