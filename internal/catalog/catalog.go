// Package catalog holds the read-only product reference table shared by order
// labeling, the product API and the chatbot.
package catalog

import "strings"

// Product describes one spice the company exports.
type Product struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Aliases        []string `json:"-"`
	Origin         string   `json:"origin"`
	HarvestWindow  string   `json:"harvest_window"`
	Certifications []string `json:"certifications"`
	Description    string   `json:"description"`
	MinOrderKg     int      `json:"min_order_kg"`
}

// Catalog is an immutable id-indexed product table.
type Catalog struct {
	byID  map[string]Product
	order []string
}

// New builds a catalog from products. A duplicate id replaces the earlier entry in place.
func New(products []Product) *Catalog {
	c := &Catalog{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		if _, exists := c.byID[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.byID[p.ID] = p
	}
	return c
}

// Default returns the catalog of the products currently offered.
func Default() *Catalog {
	return New(defaultProducts)
}

// Lookup returns the product with the given id.
func (c *Catalog) Lookup(id string) (Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// All returns products in catalog order.
func (c *Catalog) All() []Product {
	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Match finds every product whose name, id or alias occurs in text.
func (c *Catalog) Match(text string) []Product {
	text = strings.ToLower(text)
	var out []Product
	for _, id := range c.order {
		p := c.byID[id]
		for _, term := range p.terms() {
			if strings.Contains(text, term) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (p Product) terms() []string {
	terms := []string{strings.ToLower(p.Name), strings.ReplaceAll(p.ID, "-", " ")}
	for _, a := range p.Aliases {
		terms = append(terms, strings.ToLower(a))
	}
	return terms
}

var defaultProducts = []Product{
	{
		ID: "black-pepper", Name: "Black Pepper", Aliases: []string{"pepper", "kali mirch"},
		Origin: "Idukki and Wayanad, Kerala", HarvestWindow: "December to March",
		Certifications: []string{"Spices Board of India", "FSSAI", "ISO 22000"},
		Description:    "Malabar Garbled grade, bold berries with high piperine content.", MinOrderKg: 50,
	},
	{
		ID: "green-cardamom", Name: "Green Cardamom", Aliases: []string{"cardamom", "elaichi"},
		Origin: "Cardamom Hills, Idukki, Kerala", HarvestWindow: "August to February",
		Certifications: []string{"Spices Board of India", "FSSAI", "USDA Organic"},
		Description:    "8mm bold pods, hand-sorted, deep green colour.", MinOrderKg: 25,
	},
	{
		ID: "turmeric", Name: "Turmeric", Aliases: []string{"haldi", "curcuma"},
		Origin: "Erode, Tamil Nadu", HarvestWindow: "January to March",
		Certifications: []string{"FSSAI", "ISO 22000", "Halal"},
		Description:    "Finger turmeric with 3-5% curcumin, available whole or ground.", MinOrderKg: 100,
	},
	{
		ID: "cloves", Name: "Cloves", Aliases: []string{"clove", "laung"},
		Origin: "Kanyakumari, Tamil Nadu", HarvestWindow: "January to April",
		Certifications: []string{"Spices Board of India", "FSSAI"},
		Description:    "Hand-picked buds, sun dried, high eugenol oil content.", MinOrderKg: 25,
	},
	{
		ID: "cinnamon", Name: "Cinnamon", Aliases: []string{"dalchini", "cassia"},
		Origin: "Kerala", HarvestWindow: "May to November",
		Certifications: []string{"FSSAI", "USDA Organic"},
		Description:    "True cinnamon quills, thin bark and sweet aroma.", MinOrderKg: 25,
	},
	{
		ID: "nutmeg", Name: "Nutmeg", Aliases: []string{"jaiphal", "mace"},
		Origin: "Thrissur and Ernakulam, Kerala", HarvestWindow: "June to August",
		Certifications: []string{"Spices Board of India", "FSSAI"},
		Description:    "Whole nutmeg in shell and shelled, with mace available on request.", MinOrderKg: 25,
	},
	{
		ID: "red-chilli", Name: "Red Chilli", Aliases: []string{"chilli", "chili", "lal mirch"},
		Origin: "Guntur, Andhra Pradesh", HarvestWindow: "February to May",
		Certifications: []string{"FSSAI", "ISO 22000", "Halal"},
		Description:    "Teja and Byadgi varieties, stemless or with stem.", MinOrderKg: 100,
	},
}
