package contract

// Built-in ID of the item store.
const IDStore = "store"

func init() {
	RegisterBuiltin(IDStore, "GameFi Store",
		"Sells catalog items for GAME tokens at a dynamic price quoted per base amount.",
		storeABI)
}

var storeABI = []ABIEntry{
	{
		Name: "getPrice", Type: "function",
		Inputs:          []ABIParam{{Name: "basePrice", Type: "uint256"}},
		Outputs:         []ABIParam{{Name: "", Type: "uint256"}},
		StateMutability: "view",
	},
	{
		Name: "buy", Type: "function",
		Inputs:          []ABIParam{{Name: "itemId", Type: "uint256"}, {Name: "basePrice", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
}
