package models

// Category is the closed set of catalog departments a product can belong to.
type Category string

const (
	CategoryElectronics Category = "electronics"
	CategoryFashion     Category = "fashion"
	CategoryHome        Category = "home"
	CategoryBeauty      Category = "beauty"
	CategorySports      Category = "sports"
	CategoryBooks       Category = "books"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryElectronics,
	CategoryFashion,
	CategoryHome,
	CategoryBeauty,
	CategorySports,
	CategoryBooks,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
