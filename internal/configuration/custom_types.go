package configuration

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
)

// DecimalHookFunc returns a mapstructure decode hook that decodes string and
// numeric config values into decimal.Decimal. Weights are decoded from
// strings whenever exactness matters; float config values are accepted for
// convenience.
func DecimalHookFunc() mapstructure.DecodeHookFuncType {
	decimalType := reflect.TypeOf(decimal.Decimal{})

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != decimalType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			value, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("cannot parse %q as decimal: %w", v, err)
			}
			return value, nil
		case float64:
			return decimal.NewFromFloat(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		}

		return data, nil
	}
}
