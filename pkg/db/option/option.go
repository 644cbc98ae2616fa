package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption mutates a gorm query before execution.
type QueryOption func(*gorm.DB) *gorm.DB

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(c Condition) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(fmt.Sprintf("%s %s ?", c.Field, c.Operator), c.Value)
	}
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	// Allow whitelists sortable columns; an empty map allows created_at only.
	Allow map[string]bool
}

func WithSortBy(s QuerySortBy) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		sortBy := s.SortBy
		if sortBy == "" {
			sortBy = "created_at"
		}
		allow := s.Allow
		if len(allow) == 0 {
			allow = map[string]bool{"created_at": true}
		}
		if !allow[sortBy] {
			return tx
		}
		order := "ASC"
		if strings.EqualFold(s.OrderBy, "desc") {
			order = "DESC"
		}
		return tx.Order(fmt.Sprintf("%s %s", sortBy, order))
	}
}

func WithLimit(limit int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return tx
		}
		return tx.Limit(limit)
	}
}

// WithLockingUpdate adds FOR UPDATE row locking to the query.
func WithLockingUpdate() QueryOption {
	return LockingUpdate
}

// LockingUpdate is usable directly as a gorm scope: tx.Scopes(option.LockingUpdate).
// sqlite serializes writers on its own and rejects the FOR UPDATE syntax.
func LockingUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector != nil && tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
