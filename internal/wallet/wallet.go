// Package wallet implements the challenge-response primitives for proving
// control of an EVM wallet: nonce generation, the challenge message the
// wallet signs, and address recovery from a personal-sign signature.
package wallet

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const challengeTemplate = "Please sign this message to verify your wallet ownership: %s"

// nonceSpace keeps the decimal rendering of the original challenge format.
// The value itself comes from crypto/rand, not math/rand.
var nonceSpace = big.NewInt(1_000_000)

// NormalizeAddress lowercases and trims a wallet address. All lookups and
// writes go through this so the unique index sees one spelling per wallet.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// NewNonce returns a fresh random nonce rendered as a decimal string.
func NewNonce() (string, error) {
	n, err := rand.Int(rand.Reader, nonceSpace)
	if err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	return n.String(), nil
}

// ChallengeMessage builds the exact message a wallet must sign for the
// given nonce. Verification rebuilds it from the stored nonce, so the
// template is part of the protocol.
func ChallengeMessage(nonce string) string {
	return fmt.Sprintf(challengeTemplate, nonce)
}

// RecoverAddress recovers the signing address from a personal-sign
// signature over message. The signature is the 0x-prefixed 65-byte
// r||s||v form wallets produce; both v in {0,1} and v in {27,28} are
// accepted.
func RecoverAddress(message, signature string) (string, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return "", fmt.Errorf("decoding signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return "", fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	if sig[64] >= 27 {
		sig = append([]byte(nil), sig...)
		sig[64] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("recovering public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}
