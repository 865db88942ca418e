package aggregate

// StoreItem is a catalog entry. Base is the price in whole GAME tokens.
type StoreItem struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Base string `json:"base"`
}

var catalog = []StoreItem{
	{ID: 1, Name: "Purple Skin", Base: "50"},
	{ID: 2, Name: "XP Booster", Base: "80"},
	{ID: 3, Name: "Premium Badge", Base: "120"},
}

// Catalog returns the items the store sells.
func Catalog() []StoreItem {
	return append([]StoreItem(nil), catalog...)
}

// FindItem looks up a catalog item by ID.
func FindItem(id uint64) (StoreItem, bool) {
	for _, it := range catalog {
		if it.ID == id {
			return it, true
		}
	}
	return StoreItem{}, false
}
