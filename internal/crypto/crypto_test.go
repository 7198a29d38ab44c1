package crypto

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

// Well-known development key (hardhat account #0).
const (
	testKey     = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

func TestSignerAddress(t *testing.T) {
	require := require.New(t)

	s, err := NewSigner("0x"+testKey, 8453)
	require.NoError(err)
	require.Equal(common.HexToAddress(testAddress), s.Address())
	require.Equal(int64(8453), s.ChainID().Int64())

	_, err = NewSigner("zz", 8453)
	require.Error(err)
	_, err = NewSigner(testKey, 0)
	require.Error(err)
}

func TestSignTxRecoversSender(t *testing.T) {
	require := require.New(t)

	s, err := NewSigner(testKey, 8453)
	require.NoError(err)

	to := common.HexToAddress("0x143c799c91f5226d8e70852f820b98cabc69457e")
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(8453),
		Nonce:     3,
		GasTipCap: big.NewInt(1),
		GasFeeCap: big.NewInt(2),
		Gas:       21000,
		To:        &to,
		Value:     new(big.Int),
	})
	signed, err := s.SignTx(tx)
	require.NoError(err)

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(8453)), signed)
	require.NoError(err)
	require.Equal(s.Address(), from)
}

func TestEncryptDecryptKey(t *testing.T) {
	require := require.New(t)

	blob, err := EncryptKey("0x"+testKey, "hunter2")
	require.NoError(err)
	require.Contains(string(blob), testAddress)

	got, err := DecryptKey(blob, "hunter2")
	require.NoError(err)
	require.Equal(testKey, got)

	_, err = DecryptKey(blob, "wrong")
	require.Error(err)

	_, err = EncryptKey(testKey, "")
	require.Error(err)
	_, err = EncryptKey("abcd", "pw")
	require.Error(err)
}

func TestLoadKey(t *testing.T) {
	require := require.New(t)

	k, err := LoadKey(KeyConfig{RawPrivateKey: "0x" + testKey})
	require.NoError(err)
	require.Equal(testKey, k)

	blob, err := EncryptKey(testKey, "pw")
	require.NoError(err)
	path := filepath.Join(t.TempDir(), "key.json")
	require.NoError(os.WriteFile(path, blob, 0o600))

	k, err = LoadKey(KeyConfig{EncryptedKeyPath: path, KeyPassword: "pw"})
	require.NoError(err)
	require.Equal(testKey, k)

	_, err = LoadKey(KeyConfig{})
	require.Error(err)
	require.False(KeyConfig{}.Configured())
}
