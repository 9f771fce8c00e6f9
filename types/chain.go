package types

import "strconv"

// ChainID identifies a supported blockchain network. EVM networks carry a
// numeric chain id, non-EVM networks a string identifier.
type ChainID interface {
	isChainID()
	String() string
}

// NumericChainID represents EVM chain IDs.
type NumericChainID int

func (NumericChainID) isChainID() {}

func (c NumericChainID) String() string { return strconv.Itoa(int(c)) }

// StringChainID represents non-EVM chain identifiers.
type StringChainID string

func (StringChainID) isChainID() {}

func (c StringChainID) String() string { return string(c) }

// EVM networks
const (
	ChainEthereum NumericChainID = 1
	ChainOptimism NumericChainID = 10
	ChainBSC      NumericChainID = 56
	ChainPolygon  NumericChainID = 137
	ChainBase     NumericChainID = 8453
	ChainArbitrum NumericChainID = 42161
)

// Non-EVM networks
const (
	ChainSolana  StringChainID = "solana"
	ChainBitcoin StringChainID = "bitcoin"
)

// ChainFamily classifies a network into a blockchain family.
type ChainFamily string

const (
	FamilyEVM     ChainFamily = "evm"
	FamilySolana  ChainFamily = "solana"
	FamilyBitcoin ChainFamily = "bitcoin"
)

// Family returns the chain family for a chain id. A nil chain defaults to
// the EVM family, matching the address-validation default.
func Family(chain ChainID) ChainFamily {
	switch chain {
	case ChainSolana:
		return FamilySolana
	case ChainBitcoin:
		return FamilyBitcoin
	default:
		return FamilyEVM
	}
}

// TokenSymbol represents supported token symbols.
type TokenSymbol string

const (
	TokenUSDC  TokenSymbol = "USDC"
	TokenUSDT  TokenSymbol = "USDT"
	TokenDAI   TokenSymbol = "DAI"
	TokenETH   TokenSymbol = "ETH"
	TokenMATIC TokenSymbol = "MATIC"
	TokenBNB   TokenSymbol = "BNB"
	TokenSOL   TokenSymbol = "SOL"
	TokenBTC   TokenSymbol = "BTC"
)

// SupportedChains returns all supported chain IDs.
func SupportedChains() []ChainID {
	return []ChainID{
		ChainEthereum,
		ChainPolygon,
		ChainBase,
		ChainArbitrum,
		ChainOptimism,
		ChainBSC,
		ChainSolana,
		ChainBitcoin,
	}
}

// SupportedTokens returns all supported token symbols.
func SupportedTokens() []TokenSymbol {
	return []TokenSymbol{
		TokenUSDC, TokenUSDT, TokenDAI, TokenETH,
		TokenMATIC, TokenBNB, TokenSOL, TokenBTC,
	}
}

// EVMChains returns all EVM chain IDs.
func EVMChains() []NumericChainID {
	return []NumericChainID{
		ChainEthereum,
		ChainPolygon,
		ChainBase,
		ChainArbitrum,
		ChainOptimism,
		ChainBSC,
	}
}

// X402SupportedChains returns chains that support gasless transfers.
func X402SupportedChains() []NumericChainID {
	return []NumericChainID{
		ChainEthereum,
		ChainPolygon,
		ChainBase,
		ChainArbitrum,
		ChainOptimism,
	}
}

// X402SupportedTokens returns tokens that support gasless transfers.
func X402SupportedTokens() []TokenSymbol {
	return []TokenSymbol{TokenUSDC, TokenDAI}
}

// TokensForChain returns supported tokens for a chain.
func TokensForChain(chain ChainID) []TokenSymbol {
	switch chain {
	case ChainEthereum:
		return []TokenSymbol{TokenUSDC, TokenUSDT, TokenDAI, TokenETH}
	case ChainPolygon:
		return []TokenSymbol{TokenUSDC, TokenUSDT, TokenDAI, TokenMATIC}
	case ChainBase:
		return []TokenSymbol{TokenUSDC, TokenUSDT, TokenETH}
	case ChainArbitrum:
		return []TokenSymbol{TokenUSDC, TokenUSDT, TokenDAI, TokenETH}
	case ChainOptimism:
		return []TokenSymbol{TokenUSDC, TokenUSDT, TokenDAI, TokenETH}
	case ChainBSC:
		return []TokenSymbol{TokenUSDC, TokenUSDT, TokenDAI, TokenBNB}
	case ChainSolana:
		return []TokenSymbol{TokenSOL, TokenUSDC}
	case ChainBitcoin:
		return []TokenSymbol{TokenBTC}
	default:
		return nil
	}
}

// ChainsForToken returns chains that support a token.
func ChainsForToken(token TokenSymbol) []ChainID {
	var chains []ChainID
	for _, chain := range SupportedChains() {
		for _, t := range TokensForChain(chain) {
			if t == token {
				chains = append(chains, chain)
				break
			}
		}
	}
	return chains
}

// TokenDecimals returns the decimals for a token.
func TokenDecimals(token TokenSymbol) int {
	switch token {
	case TokenUSDC, TokenUSDT:
		return 6
	case TokenDAI, TokenETH, TokenMATIC, TokenBNB:
		return 18
	case TokenSOL:
		return 9
	case TokenBTC:
		return 8
	default:
		return 18
	}
}

// TokenName returns the EIP-712 display name for a token.
func TokenName(token TokenSymbol) string {
	switch token {
	case TokenUSDC:
		return "USD Coin"
	case TokenUSDT:
		return "Tether USD"
	case TokenDAI:
		return "Dai Stablecoin"
	case TokenETH:
		return "Ethereum"
	case TokenMATIC:
		return "Polygon"
	case TokenBNB:
		return "BNB"
	case TokenSOL:
		return "Solana"
	case TokenBTC:
		return "Bitcoin"
	default:
		return string(token)
	}
}

// USDCAddresses holds USDC contract addresses by chain ID.
var USDCAddresses = map[NumericChainID]string{
	ChainEthereum: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
	ChainPolygon:  "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174",
	ChainBase:     "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
	ChainArbitrum: "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
	ChainOptimism: "0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85",
	ChainBSC:      "0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d",
}

// DAIAddresses holds DAI contract addresses by chain ID.
var DAIAddresses = map[NumericChainID]string{
	ChainEthereum: "0x6B175474E89094C44Da98b954EedeAC495271d0F",
	ChainPolygon:  "0x8f3Cf7ad23Cd3CaDbD9735AFf958023239c6A063",
	ChainArbitrum: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
	ChainOptimism: "0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1",
	ChainBSC:      "0x1AF3F329e8BE154074D8769D1FFa4eE058B1DBc3",
}

// TokenAddress returns the contract address of a token on an EVM chain,
// or an empty string when unknown.
func TokenAddress(chain NumericChainID, token TokenSymbol) string {
	switch token {
	case TokenUSDC:
		return USDCAddresses[chain]
	case TokenDAI:
		return DAIAddresses[chain]
	default:
		return ""
	}
}
