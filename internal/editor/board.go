// Package editor implements the drag-and-drop plan board: an in-memory
// arrangement of ingredients and meals into named groups, with derived
// nutrition and price totals and an optional debounced autosave loop.
package editor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"mealboard/internal/entity"
)

// The two fixed store columns. They hold entities not placed in any
// group, are never reorderable and never deletable.
const (
	IngredientStore = "ingredients-store"
	MealStore       = "meals-store"
)

// Group is one named column of the board.
type Group struct {
	ID      string
	Title   string
	ItemIDs []string
}

// Board holds the editor's transient column state. Every item id lives in
// exactly one group or exactly one store column at any time; moves never
// duplicate or drop items.
type Board struct {
	mu sync.Mutex

	types     map[string]entity.ItemType
	nutrition map[string]entity.Nutrition
	prices    map[string]float64

	// columns holds both the user groups and the two store columns;
	// groupOrder lists only the user groups.
	columns    map[string]*Group
	groupOrder []string
	quantities map[string]float64

	groupSeq int
}

// NewBoard partitions a plan's items into one column per distinct group
// label and fills the two store columns with every catalog entity the
// plan does not reference.
func NewBoard(plan *entity.MealPlan, ingredients []entity.Ingredient, meals []entity.Meal) *Board {
	b := &Board{
		types:     make(map[string]entity.ItemType),
		nutrition: make(map[string]entity.Nutrition),
		prices:    make(map[string]float64),
		columns: map[string]*Group{
			IngredientStore: {ID: IngredientStore, Title: "Ingredients"},
			MealStore:       {ID: MealStore, Title: "Meals"},
		},
		quantities: make(map[string]float64),
	}

	for _, ing := range ingredients {
		b.types[ing.ID] = entity.TypeIngredient
		b.nutrition[ing.ID] = ing.Nutrition
		b.prices[ing.ID] = ing.Price
	}
	for _, m := range meals {
		b.types[m.ID] = entity.TypeMeal
		b.nutrition[m.ID] = m.Nutrition
		b.prices[m.ID] = m.Price
	}

	placed := make(map[string]bool)
	if plan != nil {
		byTitle := make(map[string]*Group)
		for _, item := range plan.Items {
			title := item.Group
			if title == "" {
				title = entity.DefaultGroup
			}
			g, ok := byTitle[title]
			if !ok {
				g = b.newGroupLocked(title)
				byTitle[title] = g
			}
			// A plan may reference an entity that has since been deleted;
			// keep the placement so nothing silently disappears.
			if _, known := b.types[item.ItemID]; !known {
				b.types[item.ItemID] = item.Type
			}
			g.ItemIDs = append(g.ItemIDs, item.ItemID)
			q := item.Quantity
			if q <= 0 {
				q = 1
			}
			b.quantities[item.ItemID] = q
			placed[item.ItemID] = true
		}
	}

	for _, ing := range ingredients {
		if !placed[ing.ID] {
			b.appendToStore(IngredientStore, ing.ID)
		}
	}
	for _, m := range meals {
		if !placed[m.ID] {
			b.appendToStore(MealStore, m.ID)
		}
	}

	return b
}

func (b *Board) appendToStore(store, itemID string) {
	c := b.columns[store]
	c.ItemIDs = append(c.ItemIDs, itemID)
}

func (b *Board) newGroupLocked(title string) *Group {
	b.groupSeq++
	g := &Group{ID: uuid.New().String(), Title: title}
	b.columns[g.ID] = g
	b.groupOrder = append(b.groupOrder, g.ID)
	return g
}

// Move removes itemID from the source column and inserts it into the
// target column at index. Moves that would put an ingredient into the
// meal store (or a meal into the ingredient store) are silently rejected.
// Returns whether the move happened.
func (b *Board) Move(itemID, source, target string, index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if target == MealStore && b.types[itemID] == entity.TypeIngredient {
		return false
	}
	if target == IngredientStore && b.types[itemID] == entity.TypeMeal {
		return false
	}

	src, ok := b.columns[source]
	if !ok {
		return false
	}
	dst, ok := b.columns[target]
	if !ok {
		return false
	}

	pos := -1
	for i, id := range src.ItemIDs {
		if id == itemID {
			pos = i
			break
		}
	}
	if pos == -1 {
		return false
	}

	src.ItemIDs = append(src.ItemIDs[:pos], src.ItemIDs[pos+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(dst.ItemIDs) {
		index = len(dst.ItemIDs)
	}
	dst.ItemIDs = append(dst.ItemIDs, "")
	copy(dst.ItemIDs[index+1:], dst.ItemIDs[index:])
	dst.ItemIDs[index] = itemID
	return true
}

// MoveGroup repositions an entire group column within the group order.
// The store columns are not part of the order and cannot be moved.
func (b *Board) MoveGroup(groupID string, index int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if groupID == IngredientStore || groupID == MealStore {
		return false
	}

	pos := -1
	for i, id := range b.groupOrder {
		if id == groupID {
			pos = i
			break
		}
	}
	if pos == -1 {
		return false
	}

	b.groupOrder = append(b.groupOrder[:pos], b.groupOrder[pos+1:]...)
	if index < 0 {
		index = 0
	}
	if index > len(b.groupOrder) {
		index = len(b.groupOrder)
	}
	b.groupOrder = append(b.groupOrder, "")
	copy(b.groupOrder[index+1:], b.groupOrder[index:])
	b.groupOrder[index] = groupID
	return true
}

// AddGroup creates a new empty column with a default title and appends it
// to the group order.
func (b *Board) AddGroup() Group {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.newGroupLocked(fmt.Sprintf("Group %d", b.groupSeq))
	return Group{ID: g.ID, Title: g.Title}
}

// RemoveGroup returns every item in the group to its type-appropriate
// store column, then deletes the column. Store columns cannot be removed.
func (b *Board) RemoveGroup(groupID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if groupID == IngredientStore || groupID == MealStore {
		return false
	}
	g, ok := b.columns[groupID]
	if !ok {
		return false
	}

	for _, itemID := range g.ItemIDs {
		if b.types[itemID] == entity.TypeMeal {
			b.appendToStore(MealStore, itemID)
		} else {
			b.appendToStore(IngredientStore, itemID)
		}
	}

	delete(b.columns, groupID)
	for i, id := range b.groupOrder {
		if id == groupID {
			b.groupOrder = append(b.groupOrder[:i], b.groupOrder[i+1:]...)
			break
		}
	}
	return true
}

// RenameGroup updates a group's title. Pure metadata; item placement and
// totals are unaffected.
func (b *Board) RenameGroup(groupID, title string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if groupID == IngredientStore || groupID == MealStore {
		return false
	}
	g, ok := b.columns[groupID]
	if !ok {
		return false
	}
	g.Title = title
	return true
}

// SetQuantity stores the quantity for an item. Non-positive input resets
// to 1; fractional positive quantities are allowed.
func (b *Board) SetQuantity(itemID string, q float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if q <= 0 {
		q = 1
	}
	b.quantities[itemID] = q
	return q
}

// Quantity reports an item's quantity, defaulting to 1.
func (b *Board) Quantity(itemID string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quantityLocked(itemID)
}

func (b *Board) quantityLocked(itemID string) float64 {
	if q, ok := b.quantities[itemID]; ok {
		return q
	}
	return 1
}

// Totals recomputes the aggregate nutrition and price over group-resident
// items. Store-resident items never count.
func (b *Board) Totals() (entity.Nutrition, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var total entity.Nutrition
	var price float64
	for _, gid := range b.groupOrder {
		for _, itemID := range b.columns[gid].ItemIDs {
			q := b.quantityLocked(itemID)
			total = total.Add(b.nutrition[itemID].Scale(q))
			price += b.prices[itemID] * q
		}
	}
	return total, price
}

// Serialize flattens the group assignment into plan items, store columns
// excluded, in group order then item order.
func (b *Board) Serialize() []entity.MealPlanItem {
	b.mu.Lock()
	defer b.mu.Unlock()

	items := []entity.MealPlanItem{}
	for _, gid := range b.groupOrder {
		g := b.columns[gid]
		for _, itemID := range g.ItemIDs {
			items = append(items, entity.MealPlanItem{
				Type:     b.types[itemID],
				ItemID:   itemID,
				Quantity: b.quantityLocked(itemID),
				Group:    g.Title,
			})
		}
	}
	return items
}

// Groups returns the ordered group columns as copies.
func (b *Board) Groups() []Group {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Group, 0, len(b.groupOrder))
	for _, gid := range b.groupOrder {
		g := b.columns[gid]
		ids := make([]string, len(g.ItemIDs))
		copy(ids, g.ItemIDs)
		out = append(out, Group{ID: g.ID, Title: g.Title, ItemIDs: ids})
	}
	return out
}

// StoreItems returns a copy of one store column.
func (b *Board) StoreItems(store string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.columns[store]
	if !ok {
		return nil
	}
	out := make([]string, len(c.ItemIDs))
	copy(out, c.ItemIDs)
	return out
}

// AllItemIDs returns the multiset of item ids across all columns, used to
// check the conservation invariant.
func (b *Board) AllItemIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	out = append(out, b.columns[IngredientStore].ItemIDs...)
	out = append(out, b.columns[MealStore].ItemIDs...)
	for _, gid := range b.groupOrder {
		out = append(out, b.columns[gid].ItemIDs...)
	}
	return out
}
