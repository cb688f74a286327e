package melt

import "strings"

// Classifier flags item names as income or consumption metrics by exact
// match against two canonical phrase sets. Matching normalizes whitespace
// only; the text itself is compared byte-exact, including script.
type Classifier struct {
	income      map[string]struct{}
	consumption map[string]struct{}
}

// NewClassifier builds a classifier from the configured phrase lists.
func NewClassifier(incomeItems, consumptionItems []string) *Classifier {
	c := &Classifier{
		income:      make(map[string]struct{}, len(incomeItems)),
		consumption: make(map[string]struct{}, len(consumptionItems)),
	}
	for _, s := range incomeItems {
		c.income[canonical(s)] = struct{}{}
	}
	for _, s := range consumptionItems {
		c.consumption[canonical(s)] = struct{}{}
	}
	return c
}

// Classify returns the (isIncome, isConsumption) flags for an item name.
// Items matching neither set carry both flags false.
func (c *Classifier) Classify(itemName string) (isIncome, isConsumption bool) {
	key := canonical(itemName)
	_, isIncome = c.income[key]
	_, isConsumption = c.consumption[key]
	return isIncome, isConsumption
}

// canonical collapses runs of whitespace so that ragged spreadsheet
// spacing cannot defeat an exact match.
func canonical(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
