package rulebook

import "tally/internal/core"

// applyDefaults installs the out-of-the-box configuration used when no
// rulebook file exists yet.
func (rb *Rulebook) applyDefaults() {
	rb.categories = []core.CategoryRule{
		{Name: "Food", Stores: []string{"Supermarket", "Restaurant", "Café"}, Keywords: []string{"food", "restaurant", "cafe"}},
		{Name: "Transport", Stores: []string{"Gas Station", "Uber", "Taxi"}, Keywords: []string{"fuel", "taxi", "transport"}},
		{Name: "Shopping", Stores: []string{"Amazon", "Clothing Store"}, Keywords: []string{"shopping", "clothes"}},
		{Name: "Bills", Stores: []string{"Electricity Company", "Bank"}, Keywords: []string{"bill", "utility"}},
		{Name: "Fun", Stores: []string{"Cinema", "Gym"}, Keywords: []string{"entertainment", "gym"}},
		{Name: "Health", Stores: []string{"Pharmacy", "Hospital"}, Keywords: []string{"health", "medical"}},
		{Name: "Other", Stores: []string{"Post Office", "Miscellaneous"}, Keywords: []string{"other", "misc"}},
	}
	rb.defaultCat = "Other"
	rb.autoCat = true
	rb.thresholds = core.DefaultThresholds
	rb.budgets = make(map[string]core.Budget)
}
