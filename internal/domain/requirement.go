package domain

// Category classifies a shopping query into a product category
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryElectronics Category = "electronics"
	CategoryGrocery     Category = "grocery"
	CategoryClothing    Category = "clothing"
	CategoryBooks       Category = "books"
	CategoryHome        Category = "home"
)

// Requirement represents the structured interpretation of a user's free-text
// shopping query. It is built once per query and never mutated afterwards.
type Requirement struct {
	RawQuery     string   `json:"rawQuery"`
	ProductQuery string   `json:"productQuery"` // query stripped of stopwords, platforms and price phrases
	Category     Category `json:"category"`
	BudgetMin    *float64 `json:"budgetMin,omitempty"`
	BudgetMax    *float64 `json:"budgetMax,omitempty"`
	Features     []string `json:"features,omitempty"`
	Brands       []string `json:"brands,omitempty"`
	Platform     string   `json:"platform,omitempty"` // e.g., "flipkart"; passed through, never interpreted here
}

// HasBudget reports whether at least one budget bound was parsed or supplied.
func (r Requirement) HasBudget() bool {
	return r.BudgetMin != nil || r.BudgetMax != nil
}

// WithinBudget reports whether price falls inside the stated bounds.
// Unknown prices (<= 0) never qualify; absent bounds are open.
func (r Requirement) WithinBudget(price float64) bool {
	if price <= 0 {
		return false
	}
	if r.BudgetMin != nil && price < *r.BudgetMin {
		return false
	}
	if r.BudgetMax != nil && price > *r.BudgetMax {
		return false
	}
	return true
}

// InBudgetRange reports whether price falls inside the stated bounds without
// the positive-price requirement. Satisfaction statistics count price 0 as
// compliant when no lower bound exists, unlike the scorer's hard filter.
func (r Requirement) InBudgetRange(price float64) bool {
	if r.BudgetMin != nil && price < *r.BudgetMin {
		return false
	}
	if r.BudgetMax != nil && price > *r.BudgetMax {
		return false
	}
	return true
}
