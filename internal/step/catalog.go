package step

import "fmt"

// Kind places a step in the flow.
type Kind string

const (
	// KindLead steps always open the flow, in catalog order.
	KindLead Kind = "lead"
	// KindOptional steps appear only when their selection token is chosen.
	KindOptional Kind = "optional"
	// KindTail steps always close the flow, in catalog order.
	KindTail Kind = "tail"
)

// Category groups optional steps by the selection list that enables them.
type Category string

const (
	CategoryIncome Category = "income"
	CategoryRelief Category = "relief"
)

// Step identifiers.
const (
	IDProfile           = "profile"
	IDIncomeCategories  = "income-categories"
	IDReliefCategories  = "relief-categories"
	IDEmployment        = "employment"
	IDSelfEmployment    = "self-employment"
	IDPartnership       = "partnership"
	IDProperty          = "property"
	IDForeignIncome     = "foreign-income"
	IDCapitalGains      = "capital-gains"
	IDPensions          = "pension-contributions"
	IDGiftAid           = "gift-aid"
	IDMarriageAllowance = "marriage-allowance"
	IDSummary           = "summary"
	IDFinalization      = "finalization"
)

// Definition is one catalog entry. Optional steps carry the selection token
// that switches them on.
type Definition struct {
	ID       string
	Title    string
	Kind     Kind
	Category Category
	Token    string
}

// Optional reports whether the step depends on a selection.
func (d Definition) Optional() bool {
	return d.Kind == KindOptional
}

// Catalog is the static, ordered list of every possible step. Optional
// entries appear in canonical priority order within their category.
type Catalog struct {
	defs  []Definition
	byID  map[string]int
	token map[Category]map[string]int
}

// NewCatalog validates and indexes defs.
func NewCatalog(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  append([]Definition(nil), defs...),
		byID:  make(map[string]int, len(defs)),
		token: map[Category]map[string]int{},
	}
	for i, def := range c.defs {
		if def.ID == "" {
			return nil, fmt.Errorf("step: catalog entry %d has no id", i)
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("step: catalog id %s repeated", def.ID)
		}
		c.byID[def.ID] = i
		switch def.Kind {
		case KindLead, KindTail:
		case KindOptional:
			if def.Category != CategoryIncome && def.Category != CategoryRelief {
				return nil, fmt.Errorf("step: optional step %s has no category", def.ID)
			}
			if def.Token == "" {
				return nil, fmt.Errorf("step: optional step %s has no token", def.ID)
			}
			if c.token[def.Category] == nil {
				c.token[def.Category] = map[string]int{}
			}
			if _, dup := c.token[def.Category][def.Token]; dup {
				return nil, fmt.Errorf("step: %s token %s repeated", def.Category, def.Token)
			}
			c.token[def.Category][def.Token] = i
		default:
			return nil, fmt.Errorf("step: unknown kind %q for %s", def.Kind, def.ID)
		}
	}
	return c, nil
}

// DefaultCatalog returns the self-assessment catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog([]Definition{
		{ID: IDProfile, Title: "Your details", Kind: KindLead},
		{ID: IDIncomeCategories, Title: "Income sources", Kind: KindLead},
		{ID: IDReliefCategories, Title: "Reliefs and allowances", Kind: KindLead},
		{ID: IDEmployment, Title: "Employment", Kind: KindOptional, Category: CategoryIncome, Token: IDEmployment},
		{ID: IDSelfEmployment, Title: "Self-employment", Kind: KindOptional, Category: CategoryIncome, Token: IDSelfEmployment},
		{ID: IDPartnership, Title: "Partnership", Kind: KindOptional, Category: CategoryIncome, Token: IDPartnership},
		{ID: IDProperty, Title: "UK property", Kind: KindOptional, Category: CategoryIncome, Token: IDProperty},
		{ID: IDForeignIncome, Title: "Foreign income", Kind: KindOptional, Category: CategoryIncome, Token: IDForeignIncome},
		{ID: IDCapitalGains, Title: "Capital gains", Kind: KindOptional, Category: CategoryIncome, Token: IDCapitalGains},
		{ID: IDPensions, Title: "Pension contributions", Kind: KindOptional, Category: CategoryRelief, Token: IDPensions},
		{ID: IDGiftAid, Title: "Gift Aid donations", Kind: KindOptional, Category: CategoryRelief, Token: IDGiftAid},
		{ID: IDMarriageAllowance, Title: "Marriage Allowance", Kind: KindOptional, Category: CategoryRelief, Token: IDMarriageAllowance},
		{ID: IDSummary, Title: "Review your answers", Kind: KindTail},
		{ID: IDFinalization, Title: "Declaration", Kind: KindTail},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// All returns every definition in catalog order.
func (c *Catalog) All() []Definition {
	return append([]Definition(nil), c.defs...)
}

// Len returns the catalog size.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Lookup finds a definition by id.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

// Lead returns the fixed opening steps.
func (c *Catalog) Lead() []Definition {
	return c.filter(func(d Definition) bool { return d.Kind == KindLead })
}

// Tail returns the fixed closing steps.
func (c *Catalog) Tail() []Definition {
	return c.filter(func(d Definition) bool { return d.Kind == KindTail })
}

// Optional returns a category's steps in canonical priority order.
func (c *Catalog) Optional(category Category) []Definition {
	return c.filter(func(d Definition) bool { return d.Kind == KindOptional && d.Category == category })
}

// Tokens returns a category's selection tokens in canonical priority order.
func (c *Catalog) Tokens(category Category) []string {
	defs := c.Optional(category)
	tokens := make([]string, len(defs))
	for i, def := range defs {
		tokens[i] = def.Token
	}
	return tokens
}

// ByToken maps a selection token to its optional step.
func (c *Catalog) ByToken(category Category, token string) (Definition, bool) {
	i, ok := c.token[category][token]
	if !ok {
		return Definition{}, false
	}
	return c.defs[i], true
}

func (c *Catalog) filter(keep func(Definition) bool) []Definition {
	var out []Definition
	for _, def := range c.defs {
		if keep(def) {
			out = append(out, def)
		}
	}
	return out
}
