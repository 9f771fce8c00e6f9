// Package address validates payment addresses across chain families and
// screens them for homoglyph substitution attacks. The homoglyph scan runs
// before any format check and rejects outright: an address containing a
// confusable character is never accepted, even when the format regex would
// otherwise match.
package address

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/protocolbanks/protocolbanks-go/types"
)

// confusables maps Cyrillic and Greek code points to the Latin characters
// they are visually indistinguishable from.
var confusables = map[rune]rune{
	// Cyrillic lowercase
	'а': 'a', // U+0430
	'е': 'e', // U+0435
	'о': 'o', // U+043E
	'р': 'p', // U+0440
	'с': 'c', // U+0441
	'у': 'y', // U+0443
	'х': 'x', // U+0445
	// Cyrillic uppercase
	'А': 'A',
	'В': 'B',
	'Е': 'E',
	'К': 'K',
	'М': 'M',
	'Н': 'H',
	'О': 'O',
	'Р': 'P',
	'С': 'C',
	'Т': 'T',
	'Х': 'X',
	// Greek
	'ο': 'o', // U+03BF
	'ν': 'v', // U+03BD
	'Α': 'A',
	'Β': 'B',
	'Ε': 'E',
	'Ζ': 'Z',
	'Η': 'H',
	'Ι': 'I',
	'Κ': 'K',
	'Μ': 'M',
	'Ν': 'N',
	'Ο': 'O',
	'Ρ': 'P',
	'Τ': 'T',
	'Υ': 'Y',
	'Χ': 'X',
}

// DetectHomoglyphs scans every character of an address and reports any
// confusable substitutions. Returns nil for a clean address.
func DetectHomoglyphs(addr string) *types.HomoglyphDetails {
	var detected []types.DetectedCharacter

	for i, r := range addr {
		if expected, ok := confusables[r]; ok {
			detected = append(detected, types.DetectedCharacter{
				Position:          i,
				Character:         string(r),
				UnicodePoint:      "U+" + strconv.FormatInt(int64(r), 16),
				ExpectedCharacter: string(expected),
			})
		}
	}

	if detected == nil {
		return nil
	}
	return &types.HomoglyphDetails{
		OriginalAddress:    addr,
		DetectedCharacters: detected,
	}
}

// IsValidEVM checks the 0x + 40 hex digits format.
func IsValidEVM(addr string) bool {
	return common.IsHexAddress(addr)
}

// IsValidSolana checks the Base58 32-44 character format.
func IsValidSolana(addr string) bool {
	if len(addr) < 32 || len(addr) > 44 {
		return false
	}
	return isBase58(addr)
}

// IsValidBitcoin accepts legacy P2PKH/P2SH, native segwit, and taproot
// address formats.
func IsValidBitcoin(addr string) bool {
	return isBitcoinLegacy(addr) || isBitcoinTaproot(addr) || isBitcoinSegwit(addr)
}

func isBitcoinLegacy(addr string) bool {
	if len(addr) < 26 || len(addr) > 35 {
		return false
	}
	if addr[0] != '1' && addr[0] != '3' {
		return false
	}
	return isBase58(addr[1:])
}

func isBitcoinSegwit(addr string) bool {
	if len(addr) < 39 || len(addr) > 59 {
		return false
	}
	if addr[:3] != "bc1" {
		return false
	}
	return isBech32Data(addr[3:])
}

func isBitcoinTaproot(addr string) bool {
	if len(addr) != 62 {
		return false
	}
	if addr[:4] != "bc1p" {
		return false
	}
	return isBech32Data(addr[4:])
}

// base58 alphabet: no 0, O, I, l
func isBase58(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '1' && r <= '9':
		case r >= 'A' && r <= 'H':
		case r >= 'J' && r <= 'N':
		case r >= 'P' && r <= 'Z':
		case r >= 'a' && r <= 'k':
		case r >= 'm' && r <= 'z':
		default:
			return false
		}
	}
	return true
}

// bech32 data part: lowercase alphanumerics excluding 1, b, i, o
func isBech32Data(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9' && r != '1':
		case r >= 'a' && r <= 'z' && r != 'b' && r != 'i' && r != 'o':
		default:
			return false
		}
	}
	return true
}

// IsValidForChain checks an address against a specific chain's format.
// Homoglyph screening still applies and always wins.
func IsValidForChain(addr string, chain types.ChainID) bool {
	if DetectHomoglyphs(addr) != nil {
		return false
	}
	switch types.Family(chain) {
	case types.FamilySolana:
		return IsValidSolana(addr)
	case types.FamilyBitcoin:
		return IsValidBitcoin(addr)
	default:
		return IsValidEVM(addr)
	}
}

// IsValid checks an address against every supported chain family. A nil
// or numeric chain hint means EVM.
func IsValid(addr string, chain types.ChainID) bool {
	if DetectHomoglyphs(addr) != nil {
		return false
	}
	if chain != nil {
		return IsValidForChain(addr, chain)
	}
	return IsValidEVM(addr) || IsValidSolana(addr) || IsValidBitcoin(addr)
}

// Validate checks an address and returns a structured error when invalid.
// Homoglyph hits carry the full detection report in the error details.
func Validate(addr string, chain types.ChainID) error {
	if addr == "" {
		return types.NewSDKError(types.ErrLinkInvalidAddress, types.ErrorCategoryLink,
			"Address is required")
	}

	if details := DetectHomoglyphs(addr); details != nil {
		return types.NewSDKError(types.ErrLinkHomoglyphDetected, types.ErrorCategoryLink,
			"Address contains suspicious characters (possible homoglyph attack)").
			WithDetails(details)
	}

	if chain != nil && !IsValidForChain(addr, chain) {
		return types.NewSDKError(types.ErrLinkInvalidAddress, types.ErrorCategoryLink,
			"Invalid address format for chain")
	}

	if chain == nil && !IsValid(addr, nil) {
		return types.NewSDKError(types.ErrLinkInvalidAddress, types.ErrorCategoryLink,
			"Invalid address format")
	}

	return nil
}
