package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/shopspring/decimal"
	"github.com/warp/budget-engine/client"
	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/wire"
)

// pager is the part of generic.EntityList the commands drive. It does not
// depend on the row type.
type pager interface {
	Refresh(ctx context.Context) error
	GetPage(ctx context.Context, page, rowsPerPage int, extra *generic.Extra) error
	ApplyFilters(ctx context.Context, partial generic.Filter) error
	Pagination() generic.Pagination
	TotalEntityCount() int
	Status() generic.StatusInfo
	Filter() generic.Filter
}

// entityView binds one entity list to its table layout.
type entityView struct {
	name    string
	columns []table.Column
	list    pager
	rows    func() []table.Row
}

func newView[T any](name string, list *generic.EntityList[T], columns []table.Column, row func(T) table.Row) entityView {
	return entityView{
		name:    name,
		columns: columns,
		list:    list,
		rows: func() []table.Row {
			data := list.Data()
			out := make([]table.Row, len(data))
			for i, v := range data {
				out[i] = row(v)
			}
			return out
		},
	}
}

// pageCount returns the number of pages for the committed total, at least 1.
func (v entityView) pageCount() int {
	rows := v.list.Pagination().RowsPerPage
	total := v.list.TotalEntityCount()
	if rows <= 0 || total == 0 {
		return 1
	}
	return (total + rows - 1) / rows
}

// entityNames lists the accepted <entity> arguments.
func entityNames() []string {
	names := make([]string, 0, len(viewBuilders))
	for name := range viewBuilders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func viewFor(s *client.Store, name string) (entityView, error) {
	build, ok := viewBuilders[name]
	if !ok {
		return entityView{}, fmt.Errorf("unknown entity %q (want one of %v)", name, entityNames())
	}
	return build(s), nil
}

var viewBuilders = map[string]func(*client.Store) entityView{
	"categories": func(s *client.Store) entityView {
		return newView("categories", s.Categories, []table.Column{
			{Title: "Name", Width: 20},
			{Title: "Description", Width: 40},
		}, func(c wire.CategoryDTO) table.Row {
			return table.Row{c.Name, c.Description}
		})
	},
	"payment-methods": func(s *client.Store) entityView {
		return newView("payment-methods", s.PaymentMethods, []table.Column{
			{Title: "Name", Width: 20},
			{Title: "Provider", Width: 14},
			{Title: "Description", Width: 30},
		}, func(p wire.PaymentMethodDTO) table.Row {
			return table.Row{p.Name, p.Provider, p.Description}
		})
	},
	"transactions": func(s *client.Store) entityView {
		return newView("transactions", s.Transactions, []table.Column{
			{Title: "Date", Width: 10},
			{Title: "Receiver", Width: 22},
			{Title: "Amount", Width: 14},
			{Title: "Category", Width: 18},
			{Title: "Information", Width: 24},
		}, func(t wire.TransactionDTO) table.Row {
			return table.Row{t.ProcessedAt, t.Receiver, formatMoney(t.Amount, t.Currency), t.CategoryID, t.Information}
		})
	},
	"budgets": func(s *client.Store) entityView {
		return newView("budgets", s.Budgets, []table.Column{
			{Title: "Label", Width: 18},
			{Title: "Amount", Width: 14},
			{Title: "Start", Width: 10},
			{Title: "End", Width: 10},
			{Title: "Categories", Width: 4},
		}, func(b wire.BudgetDTO) table.Row {
			return table.Row{b.Label, formatMoney(b.Amount, b.Currency), b.Start, b.End, strconv.Itoa(len(b.CategoryIDs))}
		})
	},
	"recurring-payments": func(s *client.Store) entityView {
		return newView("recurring-payments", s.RecurringPayments, []table.Column{
			{Title: "Receiver", Width: 20},
			{Title: "Amount", Width: 14},
			{Title: "Day", Width: 4},
			{Title: "Next", Width: 10},
			{Title: "Paused", Width: 6},
		}, func(r wire.RecurringPaymentDTO) table.Row {
			paused := ""
			if r.Paused {
				paused = "yes"
			}
			return table.Row{r.Receiver, formatMoney(r.Amount, r.Currency), strconv.Itoa(r.ExecuteAt), r.NextExecution, paused}
		})
	},
}

func formatMoney(v decimal.Decimal, currency string) string {
	if currency == "" {
		currency = string(generic.DefaultCurrency)
	}
	return v.StringFixed(2) + " " + currency
}
