package chain

// MarketABI covers the prediction market contract methods the dashboard
// reads and writes.
const MarketABI = `[
	{
		"inputs": [],
		"name": "marketCount",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"name": "_marketId", "type": "uint256"}],
		"name": "getMarket",
		"outputs": [
			{"name": "question", "type": "string"},
			{"name": "endTime", "type": "uint256"},
			{"name": "outcome", "type": "uint8"},
			{"name": "optionA", "type": "string"},
			{"name": "optionB", "type": "string"},
			{"name": "totalOptionAShares", "type": "uint256"},
			{"name": "totalOptionBShares", "type": "uint256"},
			{"name": "resolved", "type": "bool"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "_marketId", "type": "uint256"},
			{"name": "_user", "type": "address"}
		],
		"name": "getSharesBalance",
		"outputs": [
			{"name": "optionAShares", "type": "uint256"},
			{"name": "optionBShares", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "_marketId", "type": "uint256"},
			{"name": "_isOptionA", "type": "bool"},
			{"name": "_amount", "type": "uint256"}
		],
		"name": "buyShares",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// TokenABI is the subset of ERC-20 used for the purchase allowance.
const TokenABI = `[
	{
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Contract method names.
const (
	methodMarketCount      = "marketCount"
	methodGetMarket        = "getMarket"
	methodGetSharesBalance = "getSharesBalance"
	methodBuyShares        = "buyShares"
	methodAllowance        = "allowance"
	methodApprove          = "approve"
)
