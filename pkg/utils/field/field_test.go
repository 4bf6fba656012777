package field

import (
	"math/big"
	"strings"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexRoundTrip(t *testing.T) {
	e := Hash(FromUint64(1), FromUint64(2))
	s := Hex(e)
	assert.Len(t, s, 2*Size)

	back, err := FromHex(s)
	require.NoError(t, err)
	assert.True(t, back.Equal(&e))

	prefixed, err := FromHex("0x" + s)
	require.NoError(t, err)
	assert.True(t, prefixed.Equal(&e))
}

func TestFromHex_Rejects(t *testing.T) {
	modulus := fr.Modulus()
	nonCanonical := new(big.Int).Add(modulus, big.NewInt(1))

	for name, in := range map[string]string{
		"empty":         "",
		"not hex":       "zz",
		"too long":      strings.Repeat("00", Size+1),
		"non canonical": nonCanonical.Text(16),
	} {
		_, err := FromHex(in)
		assert.Error(t, err, name)
	}
}

func TestHash_OrderMatters(t *testing.T) {
	a, b := FromUint64(1), FromUint64(2)
	ab := Hash(a, b)
	ba := Hash(b, a)
	assert.False(t, ab.Equal(&ba))

	again := Hash(a, b)
	assert.True(t, ab.Equal(&again))
}

func TestMerkleTree_PathsVerify(t *testing.T) {
	tree, err := NewMerkleTree(4)
	require.NoError(t, err)
	empty := tree.Root()

	var leaves []Element
	for i := uint64(0); i < 5; i++ {
		leaf := FromUint64(100 + i)
		idx, err := tree.Append(leaf)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
		leaves = append(leaves, leaf)
	}
	root := tree.Root()
	assert.False(t, root.Equal(&empty))

	for i, leaf := range leaves {
		idx, ok := tree.IndexOf(leaf)
		require.True(t, ok)
		siblings, err := tree.Path(idx)
		require.NoError(t, err)
		assert.Len(t, siblings, 4)
		assert.True(t, VerifyPath(leaf, idx, siblings, root), "leaf %d", i)
		assert.False(t, VerifyPath(FromUint64(999), idx, siblings, root))
	}

	_, err = tree.Path(5)
	assert.Error(t, err)
	_, ok := tree.IndexOf(FromUint64(7))
	assert.False(t, ok)
}

func TestMerkleTree_Full(t *testing.T) {
	tree, err := NewMerkleTree(1)
	require.NoError(t, err)
	_, err = tree.Append(FromUint64(1))
	require.NoError(t, err)
	_, err = tree.Append(FromUint64(2))
	require.NoError(t, err)
	_, err = tree.Append(FromUint64(3))
	assert.ErrorIs(t, err, ErrMerkleTreeFull)
	assert.Equal(t, 2, tree.Len())

	_, err = NewMerkleTree(0)
	assert.Error(t, err)
	_, err = NewMerkleTree(MaxMerkleDepth + 1)
	assert.Error(t, err)
}
