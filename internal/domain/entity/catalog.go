package entity

// ServiceItem is one line of a package, e.g. "Posts x 5"
type ServiceItem struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Quantity    int    `json:"quantity" yaml:"quantity"`
}

// ServicePackage is a named pricing tier within a category
type ServicePackage struct {
	Name         string        `json:"name" yaml:"name"`
	Services     []ServiceItem `json:"services" yaml:"services"`
	MonthlyPrice int64         `json:"monthly_price" yaml:"monthly_price"`
}

// ServiceCategory groups the package tiers offered for one kind of service
type ServiceCategory struct {
	Name     string           `json:"name" yaml:"name"`
	Packages []ServicePackage `json:"packages" yaml:"packages"`
}

// Catalog is the static, ordered price list. It is never mutated after load.
type Catalog struct {
	Categories []ServiceCategory `json:"categories" yaml:"categories"`
}

// Packages returns the package list for a category, or nil when the category is unknown
func (c *Catalog) Packages(category string) []ServicePackage {
	if c == nil {
		return nil
	}
	for _, cat := range c.Categories {
		if cat.Name == category {
			return cat.Packages
		}
	}
	return nil
}

// FindPackage returns the first package named tier within category
func (c *Catalog) FindPackage(category, tier string) (*ServicePackage, bool) {
	if tier == "" {
		return nil, false
	}
	packages := c.Packages(category)
	for i := range packages {
		if packages[i].Name == tier {
			return &packages[i], true
		}
	}
	return nil, false
}

// CategoryNames returns category names in catalog order
func (c *Catalog) CategoryNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}
