package battle

// Item is a consumable template. Its effects target the user's active
// creature unless an effect says otherwise.
type Item struct {
	Key     string
	Name    string
	Effects []Effect
}

// ItemStack is one bag slot.
type ItemStack struct {
	Item  *Item
	Count int
}

// BagSlot is the observable form of an ItemStack.
type BagSlot struct {
	Slot  int    `json:"slot"`
	Key   string `json:"key"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func snapshotBag(bag []ItemStack) []BagSlot {
	out := make([]BagSlot, 0, len(bag))
	for i, st := range bag {
		if st.Item == nil {
			continue
		}
		out = append(out, BagSlot{Slot: i, Key: st.Item.Key, Name: st.Item.Name, Count: st.Count})
	}
	return out
}

// use applies the item's effects and reports whether any of them landed.
func (it *Item) use(ctx Context, user *Creature) bool {
	applied := false
	for _, e := range it.Effects {
		if e.Apply(ctx, user, user) {
			applied = true
		}
	}
	return applied
}
