package resolver

import "gitlab.com/yelinaung/receipt-ledger/internal/models"

// staticPatterns is the built-in seed for the global pattern tier. It keeps
// resolution useful before any rows exist in the backing store and acts as
// the floor under admin-managed patterns, which outrank it at equal priority.
var staticPatterns = []models.AccountPattern{
	// Food and drink.
	{Pattern: "coffee", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Coffee", AccountType: models.AccountExpense, Priority: 8, IsActive: true},
	{Pattern: "latte", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Coffee", AccountType: models.AccountExpense, Priority: 8, IsActive: true},
	{Pattern: "espresso", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Coffee", AccountType: models.AccountExpense, Priority: 8, IsActive: true},
	{Pattern: "tea", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Drinks", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "juice", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Drinks", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "noodle", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Dining", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "rice", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Dining", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "soup", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Dining", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "restaurant", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Dining", AccountType: models.AccountExpense, Priority: 6, IsActive: true},

	// Groceries; the broad trailing segments are refinement candidates.
	{Pattern: "grocery", PatternType: models.PatternContains, AccountPath: "Expenses:Food:Groceries", AccountType: models.AccountExpense, Priority: 7, IsActive: true},
	{Pattern: "mango", PatternType: models.PatternContains, AccountPath: "Expenses:Groceries:Fruit", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "banana", PatternType: models.PatternContains, AccountPath: "Expenses:Groceries:Fruit", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "apple", PatternType: models.PatternContains, AccountPath: "Expenses:Groceries:Fruit", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "chicken", PatternType: models.PatternContains, AccountPath: "Expenses:Groceries:Meat", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "pork", PatternType: models.PatternContains, AccountPath: "Expenses:Groceries:Meat", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "beef", PatternType: models.PatternContains, AccountPath: "Expenses:Groceries:Meat", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "broccoli", PatternType: models.PatternContains, AccountPath: "Expenses:Groceries:Vegetables", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "carrot", PatternType: models.PatternContains, AccountPath: "Expenses:Groceries:Vegetables", AccountType: models.AccountExpense, Priority: 6, IsActive: true},

	// Transport.
	{Pattern: "taxi", PatternType: models.PatternContains, AccountPath: "Expenses:Transport:Taxi", AccountType: models.AccountExpense, Priority: 8, IsActive: true},
	{Pattern: "grab", PatternType: models.PatternContains, AccountPath: "Expenses:Transport:Taxi", AccountType: models.AccountExpense, Priority: 7, IsActive: true},
	{Pattern: "bts", PatternType: models.PatternExact, AccountPath: "Expenses:Transport:Rail", AccountType: models.AccountExpense, Priority: 8, IsActive: true},
	{Pattern: "mrt", PatternType: models.PatternExact, AccountPath: "Expenses:Transport:Rail", AccountType: models.AccountExpense, Priority: 8, IsActive: true},
	{Pattern: "fuel", PatternType: models.PatternContains, AccountPath: "Expenses:Transport:Fuel", AccountType: models.AccountExpense, Priority: 7, IsActive: true},

	// Broad buckets routed through external refinement.
	{Pattern: "cable", PatternType: models.PatternContains, AccountPath: "Expenses:Electronics", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "charger", PatternType: models.PatternContains, AccountPath: "Expenses:Electronics", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "battery", PatternType: models.PatternContains, AccountPath: "Expenses:Electronics", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "shirt", PatternType: models.PatternContains, AccountPath: "Expenses:Clothing", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "shoe", PatternType: models.PatternContains, AccountPath: "Expenses:Clothing", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "license", PatternType: models.PatternContains, AccountPath: "Expenses:Software", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "subscription", PatternType: models.PatternContains, AccountPath: "Expenses:Software", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "movie", PatternType: models.PatternContains, AccountPath: "Expenses:Entertainment", AccountType: models.AccountExpense, Priority: 5, IsActive: true},
	{Pattern: "cinema", PatternType: models.PatternContains, AccountPath: "Expenses:Entertainment", AccountType: models.AccountExpense, Priority: 5, IsActive: true},

	// Household and health.
	{Pattern: "electric", PatternType: models.PatternContains, AccountPath: "Expenses:Utilities:Electricity", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "internet", PatternType: models.PatternContains, AccountPath: "Expenses:Utilities:Internet", AccountType: models.AccountExpense, Priority: 6, IsActive: true},
	{Pattern: "pharmacy", PatternType: models.PatternContains, AccountPath: "Expenses:Health:Pharmacy", AccountType: models.AccountExpense, Priority: 7, IsActive: true},
	{Pattern: "medicine", PatternType: models.PatternContains, AccountPath: "Expenses:Health:Pharmacy", AccountType: models.AccountExpense, Priority: 7, IsActive: true},
}

// broadCategories are account segments considered too generic to post
// against directly; they trigger the external refinement path.
var broadCategories = map[string]bool{
	"fruit":         true,
	"vegetables":    true,
	"meat":          true,
	"electronics":   true,
	"clothing":      true,
	"supplies":      true,
	"software":      true,
	"entertainment": true,
}

// IsBroadCategory reports whether an account segment is in the broad set.
func IsBroadCategory(segment string) bool {
	return broadCategories[normalizeToken(segment)]
}
