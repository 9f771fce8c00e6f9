// Package eip712 implements the subset of EIP-712 hashing needed for
// ERC-3009 TransferWithAuthorization: domain separators, struct hashes,
// the final \x19\x01 digest, and signer recovery.
package eip712

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/protocolbanks/protocolbanks-go/types"
)

var (
	// keccak256 of the EIP712Domain type signature; field order matters.
	domainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

	// keccak256 of the ERC-3009 TransferWithAuthorization type signature.
	transferAuthTypeHash = crypto.Keccak256Hash([]byte(
		"TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)"))
)

// padLeft32 returns a 32-byte right-aligned representation of i.
func padLeft32(i *big.Int) []byte {
	b := i.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// addressTo32 left-pads an address into a 32-byte word.
func addressTo32(a common.Address) []byte {
	out := make([]byte, 32)
	copy(out[12:], a.Bytes())
	return out
}

func hashWords(parts ...[]byte) common.Hash {
	var joined []byte
	for _, p := range parts {
		joined = append(joined, p...)
	}
	return crypto.Keccak256Hash(joined)
}

// HexToBytes32 converts a hex string (with or without 0x) into a 32-byte
// array, left-padding short input.
func HexToBytes32(hexStr string) ([32]byte, error) {
	var out [32]byte
	hexStr = strings.TrimPrefix(hexStr, "0x")
	b, err := hex.DecodeString(hexStr)
	if err != nil {
		return out, err
	}
	if len(b) > 32 {
		return out, errors.New("value exceeds 32 bytes")
	}
	copy(out[32-len(b):], b)
	return out, nil
}

// DomainSeparator computes keccak256(abi.encode(domainTypeHash,
// keccak256(name), keccak256(version), chainId, verifyingContract)).
func DomainSeparator(d types.EIP712Domain) (common.Hash, error) {
	if d.Name == "" || d.Version == "" || d.VerifyingContract == "" {
		return common.Hash{}, errors.New("incomplete EIP-712 domain")
	}
	if !common.IsHexAddress(d.VerifyingContract) {
		return common.Hash{}, errors.New("verifying contract is not a valid address")
	}

	return hashWords(
		domainTypeHash.Bytes(),
		crypto.Keccak256Hash([]byte(d.Name)).Bytes(),
		crypto.Keccak256Hash([]byte(d.Version)).Bytes(),
		padLeft32(big.NewInt(int64(d.ChainID))),
		addressTo32(common.HexToAddress(d.VerifyingContract)),
	), nil
}

// HashTransferWithAuthorization computes the ERC-3009 struct hash for a
// TransferWithAuthorization message.
func HashTransferWithAuthorization(msg types.TransferWithAuthorizationMessage) (common.Hash, error) {
	value := new(big.Int)
	if _, ok := value.SetString(msg.Value, 10); !ok {
		return common.Hash{}, fmt.Errorf("invalid uint256 value: %q", msg.Value)
	}

	nonce, err := HexToBytes32(msg.Nonce)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid bytes32 nonce: %w", err)
	}

	return hashWords(
		transferAuthTypeHash.Bytes(),
		addressTo32(common.HexToAddress(msg.From)),
		addressTo32(common.HexToAddress(msg.To)),
		padLeft32(value),
		padLeft32(big.NewInt(msg.ValidAfter)),
		padLeft32(big.NewInt(msg.ValidBefore)),
		nonce[:],
	), nil
}

// Digest computes the final EIP-712 signing digest
// keccak256("\x19\x01" || domainSeparator || structHash) for a
// TransferWithAuthorization message.
func Digest(domain types.EIP712Domain, msg types.TransferWithAuthorizationMessage) (common.Hash, error) {
	domainSep, err := DomainSeparator(domain)
	if err != nil {
		return common.Hash{}, err
	}
	structHash, err := HashTransferWithAuthorization(msg)
	if err != nil {
		return common.Hash{}, err
	}

	prefix := []byte{0x19, 0x01}
	return crypto.Keccak256Hash(append(append(prefix, domainSep.Bytes()...), structHash.Bytes()...)), nil
}

// DecodeSignature decodes a 0x-prefixed hex ECDSA signature and checks the
// 65-byte R||S||V length.
func DecodeSignature(sigHex string) ([]byte, error) {
	sig, err := hex.DecodeString(strings.TrimPrefix(sigHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("signature is not valid hex: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}
	return sig, nil
}

// RecoverSigner recovers the address that produced sig over digest. V may
// be 0/1 or 27/28; it is normalized before recovery.
func RecoverSigner(digest common.Hash, sigHex string) (common.Address, error) {
	sig, err := DecodeSignature(sigHex)
	if err != nil {
		return common.Address{}, err
	}

	// copy to avoid mutating a caller-held slice
	s := make([]byte, 65)
	copy(s, sig)
	if s[64] >= 27 {
		s[64] -= 27
	}

	pubKey, err := crypto.SigToPub(digest.Bytes(), s)
	if err != nil {
		return common.Address{}, fmt.Errorf("signature recovery failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
