// Package catalog turns listing query parameters into a filtered, ordered catalog query.
package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Predicate narrows a query
type Predicate func(db *gorm.DB) *gorm.DB

// Builder turns a non-empty parameter value into a predicate
type Builder func(value string) (Predicate, error)

// Rule binds a query parameter (and optional aliases) to a predicate builder.
// The first non-empty value among Param and Aliases wins. Values are passed on untrimmed.
type Rule struct {
	Param   string
	Aliases []string
	Build   Builder
}

func (r Rule) lookup(params url.Values) string {
	for _, name := range append([]string{r.Param}, r.Aliases...) {
		if v := params.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// ParamError a query parameter the caller got wrong
type ParamError struct {
	Param   string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

// Spec describes how one catalog kind can be filtered and ordered
type Spec struct {
	Rules []Rule
	// Orderings allow-list for the ordering parameter, empty means the kind does not support it
	Orderings []string
}

const defaultOrder = "created_at DESC, id DESC"

// Scopes returns the predicates selected by params, in rule order.
func (s Spec) Scopes(params url.Values) ([]func(*gorm.DB) *gorm.DB, error) {
	var scopes []func(*gorm.DB) *gorm.DB
	for _, rule := range s.Rules {
		v := rule.lookup(params)
		if v == "" {
			continue
		}
		pred, err := rule.Build(v)
		if err != nil {
			return nil, &ParamError{Param: rule.Param, Message: err.Error()}
		}
		scopes = append(scopes, pred)
	}
	return scopes, nil
}

// OrderBy returns the order clause for the ordering parameter,
// falling back to newest first for missing or unknown values.
func (s Spec) OrderBy(params url.Values) string {
	ordering := strings.TrimSpace(params.Get("ordering"))
	for _, allowed := range s.Orderings {
		if ordering != allowed {
			continue
		}
		if strings.HasPrefix(ordering, "-") {
			return strings.TrimPrefix(ordering, "-") + " DESC, id DESC"
		}
		return ordering + " ASC, id DESC"
	}
	return defaultOrder
}

// Apply narrows db with every predicate selected by params and orders the result.
func (s Spec) Apply(db *gorm.DB, params url.Values) (*gorm.DB, error) {
	scopes, err := s.Scopes(params)
	if err != nil {
		return nil, err
	}
	return db.Scopes(scopes...).Order(s.OrderBy(params)), nil
}

// Exact compares a numeric column for equality
func Exact(column string) Builder {
	return func(value string) (Predicate, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("a valid number is required")
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(column+" = ?", f)
		}, nil
	}
}

// IExact case-insensitive equality on a text column.
// sqlite's LOWER only folds ASCII, so non-ASCII letters match case-sensitively there.
func IExact(column string) Builder {
	return func(value string) (Predicate, error) {
		return func(db *gorm.DB) *gorm.DB {
			if isPostgres(db) {
				return db.Where(column+` ILIKE ? ESCAPE '\'`, likeEscaper.Replace(value))
			}
			return db.Where("LOWER("+column+") = ?", strings.ToLower(value))
		}, nil
	}
}

func isPostgres(db *gorm.DB) bool {
	return strings.EqualFold(db.Dialector.Name(), "postgres")
}

// PriceFrom inclusive lower bound
func PriceFrom(column string) Builder {
	return priceBound(column, ">=")
}

// PriceTo inclusive upper bound
func PriceTo(column string) Builder {
	return priceBound(column, "<=")
}

func priceBound(column, op string) Builder {
	return func(value string) (Predicate, error) {
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("a valid number is required")
		}
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(column+" "+op+" ?", d)
		}, nil
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains case-insensitive substring match against any of the columns
func Contains(columns ...string) Builder {
	return func(value string) (Predicate, error) {
		return func(db *gorm.DB) *gorm.DB {
			pattern := "%" + likeEscaper.Replace(value) + "%"
			conds := make([]string, 0, len(columns))
			args := make([]interface{}, 0, len(columns))
			for _, col := range columns {
				if isPostgres(db) {
					conds = append(conds, col+` ILIKE ? ESCAPE '\'`)
					args = append(args, pattern)
				} else {
					conds = append(conds, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
					args = append(args, strings.ToLower(pattern))
				}
			}
			return db.Where("("+strings.Join(conds, " OR ")+")", args...)
		}, nil
	}
}
