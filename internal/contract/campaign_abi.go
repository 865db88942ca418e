package contract

// Built-in ID of a single crowdfunding campaign.
const IDCampaign = "campaign"

func init() {
	RegisterBuiltin(IDCampaign, "Crowdfunding Campaign",
		"One campaign instance: accepts ETH until its deadline, then the owner finalizes.",
		campaignABI)
}

var campaignABI = []ABIEntry{
	// ── Read ─────────────────────────────────────────────────────────────────
	{Name: "name", Type: "function", Outputs: []ABIParam{{Type: "string"}}, StateMutability: "view"},
	{Name: "goal", Type: "function", Outputs: []ABIParam{{Type: "uint256"}}, StateMutability: "view"},
	{Name: "deadline", Type: "function", Outputs: []ABIParam{{Type: "uint256"}}, StateMutability: "view"},
	{Name: "totalRaised", Type: "function", Outputs: []ABIParam{{Type: "uint256"}}, StateMutability: "view"},
	{Name: "owner", Type: "function", Outputs: []ABIParam{{Type: "address"}}, StateMutability: "view"},
	// ── Write ────────────────────────────────────────────────────────────────
	{Name: "contribute", Type: "function", StateMutability: "payable"},
	{Name: "finalizeCampaign", Type: "function", StateMutability: "nonpayable"},
}
