package models

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"gorm.io/gorm/schema"

	"transactx/internal/money"
)

func init() {
	schema.RegisterSerializer("money", MoneySerializer{})
}

// MoneySerializer persists money.Money fields as integer minor units. The
// field currency comes from the `currency:XXX` gorm tag and defaults to NGN.
type MoneySerializer struct{}

func (MoneySerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue interface{}) error {
	cast, err := castFor(field)
	if err != nil {
		return err
	}

	var stored int64
	switch v := dbValue.(type) {
	case nil:
	case int64:
		stored = v
	case int32:
		stored = int64(v)
	case int:
		stored = int64(v)
	case []byte:
		if stored, err = strconv.ParseInt(string(v), 10, 64); err != nil {
			return fmt.Errorf("%w: column %s: %v", money.ErrInvalidAmount, field.DBName, err)
		}
	case string:
		if stored, err = strconv.ParseInt(v, 10, 64); err != nil {
			return fmt.Errorf("%w: column %s: %v", money.ErrInvalidAmount, field.DBName, err)
		}
	default:
		return fmt.Errorf("%w: column %s: unsupported type %T", money.ErrInvalidAmount, field.DBName, dbValue)
	}

	field.ReflectValueOf(ctx, dst).Set(reflect.ValueOf(cast.Load(stored)))
	return nil
}

func (MoneySerializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue interface{}) (interface{}, error) {
	cast, err := castFor(field)
	if err != nil {
		return nil, err
	}
	// An unset Money carries no currency; treat it as the field's.
	if m, ok := fieldValue.(money.Money); ok && m.Currency().IsZero() {
		fieldValue = cast.Load(m.Minor())
	}
	return cast.Store(fieldValue)
}

func castFor(field *schema.Field) (money.Cast, error) {
	code := field.TagSettings["CURRENCY"]
	if code == "" {
		return money.NewCast(money.DefaultCurrency), nil
	}
	cur, err := money.ParseCurrency(code)
	if err != nil {
		return money.Cast{}, fmt.Errorf("column %s: %w", field.DBName, err)
	}
	return money.NewCast(cur), nil
}
