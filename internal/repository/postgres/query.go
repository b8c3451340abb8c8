package postgres

import (
	"fmt"
	"strings"

	"github.com/flexprice/contractflow/internal/types"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"
)

// queryBuilder assembles a WHERE clause with ? placeholders. Slices passed to
// IN (?) are expanded by sqlx.In, the final query is rebound by the caller.
type queryBuilder struct {
	clauses []string
	args    []interface{}
}

func newQueryBuilder(tenantID string) *queryBuilder {
	b := &queryBuilder{}
	b.add("tenant_id = ?", tenantID)
	b.add("status = ?", types.StatusPublished)
	return b
}

func (b *queryBuilder) add(clause string, args ...interface{}) *queryBuilder {
	b.clauses = append(b.clauses, clause)
	b.args = append(b.args, args...)
	return b
}

func (b *queryBuilder) in(column string, values interface{}, n int) *queryBuilder {
	if n == 0 {
		return b
	}
	return b.add(column+" IN (?)", values)
}

func (b *queryBuilder) where() string {
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

// build expands slice arguments and returns the query with ? placeholders
func (b *queryBuilder) build(prefix, suffix string) (string, []interface{}, error) {
	return sqlx.In(prefix+b.where()+suffix, b.args...)
}

// orderAndPage renders ORDER BY, LIMIT and OFFSET. Sort columns outside
// allowed fall back to the first allowed column.
func orderAndPage(filter *types.QueryFilter, allowed []string, tiebreak string) string {
	sort := filter.GetSort()
	if !lo.Contains(allowed, sort) {
		sort = allowed[0]
	}
	order := "DESC"
	if filter.GetOrder() == types.OrderAsc {
		order = "ASC"
	}

	clause := fmt.Sprintf(" ORDER BY %s %s", sort, order)
	if tiebreak != "" && tiebreak != sort {
		clause += ", " + tiebreak + " " + order
	}
	if !filter.IsUnlimited() {
		clause += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.GetLimit(), filter.GetOffset())
	}
	return clause
}
