package category

// Category is a spending or income tag. Categories with no default envelope
// are income-only tags and never resolve to an envelope.
type Category struct {
	ID              string
	Name            string
	DefaultEnvelope string
}

// Catalog is the fixed set of categories. It is code-owned configuration, not
// user data; usage frequency only reorders suggestions.
type Catalog struct {
	byID  map[string]Category
	order []string
}

// NewCatalog builds the default category set. Default envelopes are matched
// by name against the seeded envelope definitions.
func NewCatalog() *Catalog {
	categories := []Category{
		{ID: "groceries", Name: "Jedzenie", DefaultEnvelope: "Jedzenie"},
		{ID: "transport", Name: "Transport", DefaultEnvelope: "Transport"},
		{ID: "entertainment", Name: "Rozrywka", DefaultEnvelope: "Rozrywka"},
		{ID: "health", Name: "Zdrowie", DefaultEnvelope: "Zdrowie"},
		{ID: "clothes", Name: "Ubrania", DefaultEnvelope: "Ubrania"},
		{ID: "house", Name: "Dom", DefaultEnvelope: "Dom"},
		{ID: "bills", Name: "Opłaty", DefaultEnvelope: "Wspólne opłaty"},
		{ID: "gifts", Name: "Prezenty", DefaultEnvelope: "Prezenty"},
		{ID: "subscriptions", Name: "Subskrypcje", DefaultEnvelope: "Subskrypcje"},
		{ID: "other", Name: "Inne", DefaultEnvelope: "Inne"},
		// income-only tags
		{ID: "salary", Name: "Wypłata"},
		{ID: "bonus", Name: "Premia"},
		{ID: "refund", Name: "Zwrot"},
	}
	c := &Catalog{byID: make(map[string]Category, len(categories))}
	for _, cat := range categories {
		c.byID[cat.ID] = cat
		c.order = append(c.order, cat.ID)
	}
	return c
}

func (c *Catalog) Exists(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Resolve maps a category to its default envelope name. The second return is
// false for unknown categories and income-only tags.
func (c *Catalog) Resolve(id string) (string, bool) {
	cat, ok := c.byID[id]
	if !ok || cat.DefaultEnvelope == "" {
		return "", false
	}
	return cat.DefaultEnvelope, true
}

// All returns the catalog in its declaration order.
func (c *Catalog) All() []Category {
	categories := make([]Category, 0, len(c.order))
	for _, id := range c.order {
		categories = append(categories, c.byID[id])
	}
	return categories
}
