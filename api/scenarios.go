/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario creates categories, payment
	methods, transactions, budgets and recurring payments that exercise
	specific screens.

AVAILABLE SCENARIOS:

	starter:       A handful of categories and last month's transactions
	household:     Monthly budgets plus rent, streaming and gym subscriptions
	long-history:  A year of transactions, for pagination and search

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create categories and payment methods
 3. Add transactions relative to today
 4. Optionally add budgets and recurring payments

All dates are derived from the handler clock, so a scenario loaded today
always shows "this month" data.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "household"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: seedXxx(ctx, s, now)
 3. Add case to Seed

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
  - cmd/server/main.go: --seed flag
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/generic"
	"github.com/warp/budget-engine/store/sqlite"
	"github.com/warp/budget-engine/wire"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []wire.ScenarioDTO{
	{
		ID:          "starter",
		Name:        "Starter",
		Description: "Groceries, transport and salary for the current and previous month",
	},
	{
		ID:          "household",
		Name:        "Household",
		Description: "Monthly budgets with rent, streaming and gym subscriptions",
	},
	{
		ID:          "long-history",
		Name:        "Long History",
		Description: "A year of daily transactions for pagination and search",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	for _, s := range scenarios {
		if s.ID == h.scenario() {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req wire.LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !knownScenario(req.ScenarioID) {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.setScenario("")
	if err := Seed(r.Context(), h.Store, req.ScenarioID, h.clock()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.setScenario(req.ScenarioID)
	h.log.Info("scenario loaded", "scenario", req.ScenarioID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

func knownScenario(id string) bool {
	for _, s := range scenarios {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Seed resets the store and loads the named scenario with dates relative
// to now.
func Seed(ctx context.Context, s *sqlite.Store, scenarioID string, now time.Time) error {
	if err := s.Reset(ctx); err != nil {
		return err
	}

	switch scenarioID {
	case "starter":
		return seedStarter(ctx, s, now)
	case "household":
		return seedHousehold(ctx, s, now)
	case "long-history":
		return seedLongHistory(ctx, s, now)
	default:
		return generic.Invalid("scenario_id", "unknown scenario "+scenarioID)
	}
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// Fixed IDs so the scenarios are easy to reference from curl.
const (
	catGroceries     = "cat-groceries"
	catTransport     = "cat-transport"
	catSalary        = "cat-salary"
	catHousing       = "cat-housing"
	catEntertainment = "cat-entertainment"
	catHealth        = "cat-health"

	pmCard    = "pm-card"
	pmAccount = "pm-account"
)

func seedBase(ctx context.Context, s *sqlite.Store, now time.Time) error {
	created := now.UTC().AddDate(-1, 0, 0)

	categories := []budget.Category{
		{ID: catGroceries, Name: "Groceries", Description: "Supermarket and bakery"},
		{ID: catTransport, Name: "Transport", Description: "Train, fuel, bike repairs"},
		{ID: catSalary, Name: "Salary", Description: "Monthly income"},
		{ID: catHousing, Name: "Housing", Description: "Rent and utilities"},
		{ID: catEntertainment, Name: "Entertainment", Description: "Streaming, cinema, concerts"},
		{ID: catHealth, Name: "Health", Description: "Gym and pharmacy"},
	}
	for _, c := range categories {
		c.CreatedAt = created
		if err := s.Categories().Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save category %s: %w", c.ID, err)
		}
	}

	methods := []budget.PaymentMethod{
		{ID: pmCard, Name: "Credit Card", Provider: "Visa", Description: "Everyday spending"},
		{ID: pmAccount, Name: "Checking Account", Provider: "Bank", Description: "Salary and direct debits"},
	}
	for _, m := range methods {
		m.CreatedAt = created
		if err := s.PaymentMethods().Save(ctx, m); err != nil {
			return fmt.Errorf("failed to save payment method %s: %w", m.ID, err)
		}
	}
	return nil
}

type txSeed struct {
	receiver string
	info     string
	amount   string
	category string
	method   string
	day      time.Time
}

func saveTransactions(ctx context.Context, s *sqlite.Store, now time.Time, seeds []txSeed) error {
	for _, t := range seeds {
		amount, err := generic.NewAmountFromString(t.amount, generic.DefaultCurrency)
		if err != nil {
			return err
		}
		tx := budget.Transaction{
			ID:              generic.NewID(),
			Receiver:        t.receiver,
			Information:     t.info,
			Amount:          amount,
			CategoryID:      t.category,
			PaymentMethodID: t.method,
			ProcessedAt:     generic.DateOf(t.day),
			CreatedAt:       now.UTC(),
		}
		if err := s.Transactions().Save(ctx, tx); err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", t.receiver, err)
		}
	}
	return nil
}

func seedStarter(ctx context.Context, s *sqlite.Store, now time.Time) error {
	if err := seedBase(ctx, s, now); err != nil {
		return err
	}

	this := generic.StartOfMonth(now.Year(), now.Month())
	last := generic.AddMonths(this, -1)

	return saveTransactions(ctx, s, now, []txSeed{
		{"ACME Corp", "Salary", "3200.00", catSalary, pmAccount, last},
		{"Fresh Market", "Weekly shopping", "-84.20", catGroceries, pmCard, last.AddDate(0, 0, 2)},
		{"City Transit", "Monthly pass", "-49.00", catTransport, pmCard, last.AddDate(0, 0, 3)},
		{"Corner Bakery", "", "-6.40", catGroceries, pmCard, last.AddDate(0, 0, 9)},
		{"Fresh Market", "Weekly shopping", "-91.75", catGroceries, pmCard, last.AddDate(0, 0, 16)},
		{"ACME Corp", "Salary", "3200.00", catSalary, pmAccount, this},
		{"Fresh Market", "Weekly shopping", "-77.10", catGroceries, pmCard, this.AddDate(0, 0, 1)},
		{"City Transit", "Monthly pass", "-49.00", catTransport, pmCard, this.AddDate(0, 0, 2)},
	})
}

func seedHousehold(ctx context.Context, s *sqlite.Store, now time.Time) error {
	if err := seedStarter(ctx, s, now); err != nil {
		return err
	}

	month := generic.MonthPeriod(now)
	created := now.UTC().AddDate(0, -2, 0)

	budgets := []budget.Budget{
		{
			ID:          "budget-food",
			Label:       "Food",
			Description: "Groceries and eating out",
			Amount:      generic.NewAmount(400, generic.DefaultCurrency),
			CategoryIDs: []string{catGroceries},
			Period:      month,
		},
		{
			ID:          "budget-fun",
			Label:       "Fun",
			Amount:      generic.NewAmount(60, generic.DefaultCurrency),
			CategoryIDs: []string{catEntertainment, catHealth},
			Period:      month,
		},
	}
	for _, b := range budgets {
		b.CreatedAt = created
		if err := s.Budgets().Save(ctx, b); err != nil {
			return fmt.Errorf("failed to save budget %s: %w", b.ID, err)
		}
	}

	recurring := []budget.RecurringPayment{
		{ID: "rp-rent", Receiver: "Landlord", Information: "Rent", Amount: generic.NewAmount(-950, generic.DefaultCurrency), CategoryID: catHousing, PaymentMethodID: pmAccount, ExecuteAt: 1},
		{ID: "rp-streaming", Receiver: "StreamFlix", Information: "Standard plan", Amount: generic.NewAmount(-12.99, generic.DefaultCurrency), CategoryID: catEntertainment, PaymentMethodID: pmCard, ExecuteAt: 15},
		{ID: "rp-gym", Receiver: "Iron Gym", Information: "Membership", Amount: generic.NewAmount(-29.90, generic.DefaultCurrency), CategoryID: catHealth, PaymentMethodID: pmCard, ExecuteAt: 31},
		{ID: "rp-magazine", Receiver: "Weekly News", Information: "Paused over summer", Amount: generic.NewAmount(-4.50, generic.DefaultCurrency), CategoryID: catEntertainment, PaymentMethodID: pmCard, ExecuteAt: 10, Paused: true},
	}
	for _, p := range recurring {
		p.CreatedAt = created
		if err := s.RecurringPayments().Save(ctx, p); err != nil {
			return fmt.Errorf("failed to save recurring payment %s: %w", p.ID, err)
		}
	}
	return nil
}

func seedLongHistory(ctx context.Context, s *sqlite.Store, now time.Time) error {
	if err := seedBase(ctx, s, now); err != nil {
		return err
	}

	receivers := []struct {
		name, category, amount string
	}{
		{"Fresh Market", catGroceries, "-42.30"},
		{"City Transit", catTransport, "-2.90"},
		{"Corner Bakery", catGroceries, "-4.80"},
		{"Cinema Royal", catEntertainment, "-11.50"},
		{"Pharmacy Plus", catHealth, "-8.95"},
	}

	today := generic.DateOf(now)
	var seeds []txSeed
	for d := 0; d < 365; d++ {
		day := today.AddDate(0, 0, -d)
		if day.Day() == 1 {
			seeds = append(seeds, txSeed{"ACME Corp", "Salary", "3200.00", catSalary, pmAccount, day})
		}
		r := receivers[d%len(receivers)]
		seeds = append(seeds, txSeed{r.name, "", r.amount, r.category, pmCard, day})
	}
	return saveTransactions(ctx, s, now, seeds)
}
