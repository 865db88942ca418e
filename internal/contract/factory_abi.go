package contract

// Built-in ID of the campaign factory.
const IDFactory = "factory"

func init() {
	RegisterBuiltin(IDFactory, "Campaign Factory",
		"Registry that deploys crowdfunding campaigns and lists their addresses.",
		factoryABI)
}

var factoryABI = []ABIEntry{
	{
		Name: "getCampaigns", Type: "function",
		Inputs: nil, Outputs: []ABIParam{{Name: "", Type: "address[]"}},
		StateMutability: "view",
	},
	{
		Name: "createCampaign", Type: "function",
		Inputs: []ABIParam{
			{Name: "title", Type: "string"},
			{Name: "goalWei", Type: "uint256"},
			{Name: "durationSeconds", Type: "uint256"},
		},
		Outputs:         []ABIParam{{Name: "", Type: "address"}},
		StateMutability: "nonpayable",
	},
}
