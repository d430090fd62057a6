package wallet_test

import (
	"strconv"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/web3hire/web3hire-be/internal/wallet"
)

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xabcdef", wallet.NormalizeAddress("  0xABCdef "))
	assert.Equal(t, "", wallet.NormalizeAddress("   "))
}

func TestNewNonceStaysInDecimalSpace(t *testing.T) {
	for i := 0; i < 100; i++ {
		nonce, err := wallet.NewNonce()
		require.NoError(t, err)
		n, err := strconv.Atoi(nonce)
		require.NoError(t, err, "nonce %q is not decimal", nonce)
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 1_000_000)
	}
}

func TestChallengeMessageEmbedsNonce(t *testing.T) {
	msg := wallet.ChallengeMessage("42")
	assert.Equal(t, "Please sign this message to verify your wallet ownership: 42", msg)
}

func TestRecoverAddressRoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	msg := wallet.ChallengeMessage("123456")
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	require.NoError(t, err)

	// v = 0/1 form, as crypto.Sign produces it.
	recovered, err := wallet.RecoverAddress(msg, hexutil.Encode(sig))
	require.NoError(t, err)
	assert.Equal(t, addr.Hex(), recovered)

	// v = 27/28 form, as wallets produce it.
	walletSig := append([]byte(nil), sig...)
	walletSig[64] += 27
	recovered, err = wallet.RecoverAddress(msg, hexutil.Encode(walletSig))
	require.NoError(t, err)
	assert.Equal(t, addr.Hex(), recovered)
}

func TestRecoverAddressDifferentMessageYieldsDifferentSigner(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	addr := crypto.PubkeyToAddress(key.PublicKey)

	sig, err := crypto.Sign(accounts.TextHash([]byte(wallet.ChallengeMessage("111"))), key)
	require.NoError(t, err)

	recovered, err := wallet.RecoverAddress(wallet.ChallengeMessage("222"), hexutil.Encode(sig))
	require.NoError(t, err)
	assert.NotEqual(t, addr.Hex(), recovered)
}

func TestRecoverAddressRejectsMalformedSignatures(t *testing.T) {
	_, err := wallet.RecoverAddress("msg", "not-hex")
	assert.Error(t, err)

	_, err = wallet.RecoverAddress("msg", "0x0102")
	assert.Error(t, err)
}
