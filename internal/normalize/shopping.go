package normalize

import (
	"fmt"

	"budget-meal-planner/internal/budget"
	"budget-meal-planner/internal/domain"
)

// SectionKeys are the accepted names for the list of store sections.
var SectionKeys = []string{"sections", "shopping_list", "store_sections", "shoppingList"}

var (
	declaredTotalKeys = []string{"totalCost", "totalEstimatedCost", "total_cost", "total_estimated_cost"}
	categoryKeys      = []string{"category", "name", "section", "store_section"}
	itemListKeys      = []string{"items", "products"}
	itemNameKeys      = []string{"name", "item", "item_name", "itemName", "product", "product_name", "productName", "ingredient"}
	quantityKeys      = []string{"quantity", "amount", "qty"}
)

const defaultCategory = "Other"

// ShoppingList normalizes a list response. Unparseable input yields a list
// with no sections. TotalCost holds the item-derived total; budget
// classification is left to the caller, who knows the weekly budget.
func ShoppingList(raw string) domain.ShoppingList {
	list := domain.ShoppingList{Sections: []domain.ShoppingSection{}}
	v, ok := Extract(raw)
	if !ok {
		return list
	}

	switch t := v.(type) {
	case []any:
		list.Sections = sectionsFrom(t)
	case *object:
		if sv, ok := t.lookup(SectionKeys...); ok {
			list.Sections = sectionsFrom(sv)
		}
		list.DeclaredTotal = declaredTotal(t)
		if tv, ok := t.lookup("savingTips", "saving_tips", "tips"); ok {
			list.SavingTips = stringList(tv, StepTextKeys...)
		}
	}
	if list.Sections == nil {
		list.Sections = []domain.ShoppingSection{}
	}
	list.TotalCost = budget.Total(list)
	return list
}

// sectionsFrom accepts an array of {category, items}, a map of
// category -> items, or a flat array of items.
func sectionsFrom(v any) []domain.ShoppingSection {
	switch t := v.(type) {
	case *object:
		if inner, ok := t.lookup(SectionKeys...); ok {
			return sectionsFrom(inner)
		}
		var sections []domain.ShoppingSection
		for _, k := range t.keys {
			sections = append(sections, domain.ShoppingSection{Category: k, Items: itemsFrom(t.vals[k])})
		}
		return sections
	case []any:
		var sections []domain.ShoppingSection
		var loose []domain.ShoppingItem
		for _, e := range t {
			obj, ok := e.(*object)
			if !ok {
				if s := asString(e); s != "" {
					loose = append(loose, domain.ShoppingItem{Name: s})
				}
				continue
			}
			iv, hasItems := obj.lookup(itemListKeys...)
			if !hasItems {
				if item, ok := itemFrom(obj, len(loose)+1); ok {
					loose = append(loose, item)
				}
				continue
			}
			section := domain.ShoppingSection{Category: defaultCategory, Items: itemsFrom(iv)}
			if cv, ok := obj.lookup(categoryKeys...); ok {
				if s := asString(cv); s != "" {
					section.Category = s
				}
			}
			sections = append(sections, section)
		}
		if len(loose) > 0 {
			sections = append(sections, domain.ShoppingSection{Category: defaultCategory, Items: loose})
		}
		return sections
	}
	return nil
}

func itemsFrom(v any) []domain.ShoppingItem {
	items := []domain.ShoppingItem{}
	arr, ok := v.([]any)
	if !ok {
		return items
	}
	for _, e := range arr {
		if s := asString(e); s != "" {
			items = append(items, domain.ShoppingItem{Name: s})
			continue
		}
		if obj, ok := e.(*object); ok {
			if item, ok := itemFrom(obj, len(items)+1); ok {
				items = append(items, item)
			}
		}
	}
	return items
}

// itemFrom keeps any item that carries at least one field, so its price
// still counts toward the total. A nameless item is called "Item <position>".
func itemFrom(obj *object, position int) (domain.ShoppingItem, bool) {
	var item domain.ShoppingItem
	if len(obj.keys) == 0 {
		return item, false
	}
	if nv, ok := obj.lookup(itemNameKeys...); ok {
		item.Name = asString(nv)
	}
	if item.Name == "" {
		item.Name = fmt.Sprintf("Item %d", position)
	}
	if qv, ok := obj.lookup(quantityKeys...); ok {
		item.Quantity = asString(qv)
	}
	item.Price = budget.ItemPrice(obj.plain())
	return item, true
}

// declaredTotal reads the model's own total, which is only consulted when no
// item carries a price.
func declaredTotal(obj *object) float64 {
	if v, ok := obj.lookup(declaredTotalKeys...); ok {
		if f := budget.ParsePrice(v); f > 0 {
			return f
		}
	}
	tv, ok := obj.get("totals")
	if !ok {
		return 0
	}
	totals, ok := tv.(*object)
	if !ok {
		return budget.ParsePrice(tv)
	}
	if v, ok := totals.lookup(append(declaredTotalKeys, "total", "estimated", "grandTotal", "grand_total")...); ok {
		if f := budget.ParsePrice(v); f > 0 {
			return f
		}
	}
	for _, k := range totals.keys {
		if f := budget.ParsePrice(totals.vals[k]); f > 0 {
			return f
		}
	}
	return 0
}
