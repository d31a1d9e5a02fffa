package client

import (
	"context"

	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/wire"
	"golang.org/x/sync/errgroup"
)

// Store owns one entity list per resource. It is an explicit handle: create
// one per screen or session and pass it where it is needed.
type Store struct {
	Categories        *generic.EntityList[wire.CategoryDTO]
	PaymentMethods    *generic.EntityList[wire.PaymentMethodDTO]
	Transactions      *generic.EntityList[wire.TransactionDTO]
	Budgets           *generic.EntityList[wire.BudgetDTO]
	RecurringPayments *generic.EntityList[wire.RecurringPaymentDTO]

	CategoryAPI         *Resource[wire.CategoryDTO]
	PaymentMethodAPI    *Resource[wire.PaymentMethodDTO]
	TransactionAPI      *Resource[wire.TransactionDTO]
	BudgetAPI           *Resource[wire.BudgetDTO]
	RecurringPaymentAPI *Resource[wire.RecurringPaymentDTO]
}

// NewStore wires every list to its REST collection. opts apply to all lists.
func NewStore(c *Client, opts ...generic.ListOption) *Store {
	s := &Store{
		CategoryAPI:         NewResource[wire.CategoryDTO](c, "/api/categories"),
		PaymentMethodAPI:    NewResource[wire.PaymentMethodDTO](c, "/api/payment-methods"),
		TransactionAPI:      NewResource[wire.TransactionDTO](c, "/api/transactions"),
		BudgetAPI:           NewResource[wire.BudgetDTO](c, "/api/budgets"),
		RecurringPaymentAPI: NewResource[wire.RecurringPaymentDTO](c, "/api/recurring-payments"),
	}

	named := func(name string) []generic.ListOption {
		return append([]generic.ListOption{generic.WithLogger(c.log), generic.WithName(name)}, opts...)
	}
	s.Categories = generic.NewEntityList[wire.CategoryDTO](s.CategoryAPI, named("categories")...)
	s.PaymentMethods = generic.NewEntityList[wire.PaymentMethodDTO](s.PaymentMethodAPI, named("payment_methods")...)
	s.Transactions = generic.NewEntityList[wire.TransactionDTO](s.TransactionAPI, named("transactions")...)
	s.Budgets = generic.NewEntityList[wire.BudgetDTO](s.BudgetAPI, named("budgets")...)
	s.RecurringPayments = generic.NewEntityList[wire.RecurringPaymentDTO](s.RecurringPaymentAPI, named("recurring_payments")...)
	return s
}

// RefreshAll refreshes every list concurrently and returns the first error.
// A failing list does not cancel the others; lists that succeed keep their
// new data.
func (s *Store) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.Categories.Refresh(ctx) })
	g.Go(func() error { return s.PaymentMethods.Refresh(ctx) })
	g.Go(func() error { return s.Transactions.Refresh(ctx) })
	g.Go(func() error { return s.Budgets.Refresh(ctx) })
	g.Go(func() error { return s.RecurringPayments.Refresh(ctx) })
	return g.Wait()
}

// Clear resets every list to its initial state.
func (s *Store) Clear() {
	s.Categories.Clear()
	s.PaymentMethods.Clear()
	s.Transactions.Clear()
	s.Budgets.Clear()
	s.RecurringPayments.Clear()
}
