package main

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/wire"
)

// categoryView serves n categories from memory, 5 rows per page.
func categoryView(n int) (entityView, *generic.EntityList[wire.CategoryDTO]) {
	all := make([]wire.CategoryDTO, n)
	for i := range all {
		all[i] = wire.CategoryDTO{ID: fmt.Sprintf("cat-%02d", i), Name: fmt.Sprintf("Category %02d", i)}
	}
	fetch := generic.FetchFunc[wire.CategoryDTO](func(_ context.Context, q generic.Query) (generic.Page[wire.CategoryDTO], error) {
		var matched []wire.CategoryDTO
		for _, c := range all {
			if generic.ContainsFold(q.Search, c.Name) {
				matched = append(matched, c)
			}
		}
		return generic.NewPage(generic.Window(matched, q), len(matched)), nil
	})

	list := generic.NewEntityList[wire.CategoryDTO](fetch, generic.WithRowsPerPage(5))
	view := newView("categories", list, []table.Column{{Title: "Name", Width: 20}}, func(c wire.CategoryDTO) table.Row {
		return table.Row{c.Name}
	})
	return view, list
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to the model. When msg started a list operation, the
// operation is run and its result fed back.
func step(t *testing.T, m browseModel, msg tea.Msg) browseModel {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(browseModel)
	if cmd == nil || !m.loading {
		return m
	}
	if loaded, ok := cmd().(loadedMsg); ok {
		next, _ = m.Update(loaded)
		m = next.(browseModel)
	}
	return m
}

func TestBrowseModel_Paging(t *testing.T) {
	// GIVEN: 12 categories, 5 per page
	view, list := categoryView(12)
	m := newBrowseModel(context.Background(), view)

	// WHEN: The model initializes
	msg := m.Init()()
	next, _ := m.Update(msg)
	m = next.(browseModel)

	// THEN: The first page is shown
	assert.Len(t, m.table.Rows(), 5)
	assert.Equal(t, 3, view.pageCount())
	assert.Contains(t, m.View(), "page 1/3")
	assert.Contains(t, m.View(), "12 total")

	// WHEN: Moving forward twice
	m = step(t, m, keyMsg("n"))
	m = step(t, m, keyMsg("n"))

	// THEN: The last page has two rows
	assert.Equal(t, 2, list.Pagination().CurrentPage)
	assert.Len(t, m.table.Rows(), 2)

	// Next on the last page is a no-op
	_, cmd := m.Update(keyMsg("n"))
	assert.Nil(t, cmd)

	m = step(t, m, keyMsg("p"))
	assert.Equal(t, 1, list.Pagination().CurrentPage)
	assert.False(t, m.loading)
}

func TestBrowseModel_PreviousOnFirstPage(t *testing.T) {
	view, _ := categoryView(3)
	m := newBrowseModel(context.Background(), view)

	_, cmd := m.Update(keyMsg("p"))
	assert.Nil(t, cmd)
}

func TestBrowseModel_Search(t *testing.T) {
	view, list := categoryView(12)
	m := newBrowseModel(context.Background(), view)
	next, _ := m.Update(m.Init()())
	m = next.(browseModel)

	// GIVEN: Search mode is opened and a keyword typed
	m = step(t, m, keyMsg("/"))
	require.True(t, m.searching)
	m = step(t, m, keyMsg("Category 1"))

	// WHEN: Enter applies it
	m = step(t, m, keyMsg("enter"))

	// THEN: Only categories 10 and 11 match
	assert.False(t, m.searching)
	assert.Equal(t, 2, list.TotalEntityCount())
	assert.Equal(t, "Category 1", list.Filter().Search())
	assert.Contains(t, m.View(), "search: Category 1")
}

func TestBrowseModel_EscapeKeepsFilter(t *testing.T) {
	view, list := categoryView(12)
	m := newBrowseModel(context.Background(), view)

	m = step(t, m, keyMsg("/"))
	m = step(t, m, keyMsg("zzz"))
	m = step(t, m, keyMsg("esc"))

	assert.False(t, m.searching)
	assert.Equal(t, "", list.Filter().Search())
}

func TestBrowseModel_IgnoresStaleResponses(t *testing.T) {
	view, _ := categoryView(3)
	m := newBrowseModel(context.Background(), view)
	m.loading = true

	next, _ := m.Update(loadedMsg{err: generic.ErrStaleResponse})

	assert.True(t, next.(browseModel).loading)
}

func TestBrowseModel_ShowsErrors(t *testing.T) {
	view, _ := categoryView(3)
	m := newBrowseModel(context.Background(), view)

	next, _ := m.Update(loadedMsg{err: fmt.Errorf("network down")})

	assert.Contains(t, next.(browseModel).View(), "error: network down")
}

func TestBrowseModel_Quit(t *testing.T) {
	view, _ := categoryView(3)
	m := newBrowseModel(context.Background(), view)

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

// =============================================================================
// VIEWS
// =============================================================================

func TestViewFor(t *testing.T) {
	assert.Equal(t, []string{
		"budgets", "categories", "payment-methods", "recurring-payments", "transactions",
	}, entityNames())

	_, err := viewFor(nil, "accounts")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "transactions"))
}

func TestPageCount_EmptyList(t *testing.T) {
	view, _ := categoryView(0)
	assert.Equal(t, 1, view.pageCount())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "-12.99 EUR", formatMoney(decimal.RequireFromString("-12.99"), "EUR"))
	assert.Equal(t, "950.00 EUR", formatMoney(decimal.NewFromInt(950), ""))
}

func TestRenderTable(t *testing.T) {
	out := renderTable([]table.Column{{Title: "Name"}, {Title: "Amount"}}, []table.Row{{"Gym", "-29.90 EUR"}})
	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Gym")
	assert.Contains(t, out, "-29.90 EUR")
}
