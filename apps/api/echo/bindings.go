package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/kumbukumbu/core"
	"github.com/trezcool/kumbukumbu/core/school"
)

var (
	orderingParam = "ordering"
	searchParam   = "search"
	upsertParam   = "upsert"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the `ordering` query param ("name,-age"); fields outside allowed are dropped.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	ord.Orderings = core.ParseOrdering(ctx.QueryParam(orderingParam), allowed...)
}

func bindFilter(ctx echo.Context) *school.QueryFilter {
	return &school.QueryFilter{Search: ctx.QueryParam(searchParam)}
}

func bindUpsert(ctx echo.Context) bool {
	switch ctx.QueryParam(upsertParam) {
	case "1", "true", "yes":
		return true
	}
	return false
}
