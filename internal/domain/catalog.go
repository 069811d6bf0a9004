package domain

// Plan is a purchasable duration for a product.
type Plan struct {
	Duration string
	Price    int
}

// Product is a catalog entry. RequiresLogin marks products for which a
// buyer may hand over their own account instead of receiving ours.
type Product struct {
	Name          string
	Plans         []Plan
	RequiresLogin bool
}

// Catalog is the static storefront. Order matters: keyboards render
// products and plans in this sequence.
var Catalog = []Product{
	{Name: "YT", Plans: []Plan{{"1M", 25}, {"3M", 149}}},
	{Name: "Gemini", Plans: []Plan{{"12M", 159}}},
	{Name: "Spotify", Plans: []Plan{{"2M", 49}, {"3M", 89}}, RequiresLogin: true},
	{Name: "Crunchyroll", Plans: []Plan{{"1M", 39}}, RequiresLogin: true},
}

// FindProduct looks up a catalog product by name.
func FindProduct(name string) (Product, bool) {
	for _, p := range Catalog {
		if p.Name == name {
			return p, true
		}
	}
	return Product{}, false
}

// Price returns the price for one of the product's plans.
func (p Product) Price(duration string) (int, bool) {
	for _, plan := range p.Plans {
		if plan.Duration == duration {
			return plan.Price, true
		}
	}
	return 0, false
}
