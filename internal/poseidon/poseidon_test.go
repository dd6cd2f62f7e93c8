package poseidon

import (
	"encoding/hex"
	"testing"

	"github.com/shieldpool/core/internal/field"
)

// The zero-hash chain is a consensus constant: these are the exact 13
// values the on-chain verifier hardcodes.
func TestZeroHashChainCanonical(t *testing.T) {
	want := []string{
		"0000000000000000000000000000000000000000000000000000000000000000",
		"829a01fae4f8e22b1b4ca5ad5b54a5834ee098a77b735bd57431a7656d29a108",
		"50b4feaeb79752e57b182c6207a6984ebf5e6dc9d7e56c42889666509843b718",
		"f56fdd59a3fd78fbc066b31c20a0dc02d2fab63095664e87f2b2f0819e1cc22d",
		"6e58ea3b67b9d42ee340b22fcc79b87a8ce47a7a6d0404cb1d63fc16c0b95220",
		"2584ba0c4ab469e2d5d3c1e11b328a043f5cea0d1108539eec8c046b13bde31f",
		"c67b4a68ca203df0335e6fb6247a82963e5059ffa18e1af2cfb98581fea5aa00",
		"4dd60b46e179bc509022284c4ba37c9992b2e1b4f3261480dc18c2b346a9a01c",
		"4dc7695fdeb763e585c1fa1d235c42d196917acd8867cdcf20b5fca7594a3412",
		"363f05d4d2cca7b40d87546181acd14f1d21f9535c3d13c45dfbb32afaa3c516",
		"beab72b4311584a18d104dbf69ef69690840fd9fc40263b58122052478f08117",
		"e4f44df15cd40969d4f1bea1110ea66ba4e275ec3839ae243d72cd22f01f0d21",
		"b159372c0d35324c8f5fe23ff3fdf89901218d3d544eafaa115c08f2ddf6e205",
	}
	chain := ZeroHashChain()
	if len(chain) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(chain))
	}
	for i, w := range want {
		if got := hex.EncodeToString(chain[i][:]); got != w {
			t.Fatalf("Z[%d] = %s, want %s", i, got, w)
		}
	}
}

func TestZeroHashChainDeterministic(t *testing.T) {
	a := ZeroHashChain()
	b := ZeroHashChain()
	if a != b {
		t.Fatal("zero hash chain is not deterministic across calls")
	}
}

func TestHashNodesDeterministic(t *testing.T) {
	var l, r [32]byte
	l[0] = 0x01
	r[0] = 0x02
	h1 := HashNodes(l, r)
	h2 := HashNodes(l, r)
	if h1 != h2 {
		t.Fatal("HashNodes is not deterministic")
	}
	hSwap := HashNodes(r, l)
	if h1 == hSwap {
		t.Fatal("HashNodes should not be symmetric in its arguments")
	}
}

func TestHashBytesMatchesElementHash(t *testing.T) {
	a := []byte{0x01, 0x02}
	b := []byte{0x03}

	viaBytes, err := HashBytes(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ea, err := field.FromBytes32(a)
	if err != nil {
		t.Fatal(err)
	}
	eb, err := field.FromBytes32(b)
	if err != nil {
		t.Fatal(err)
	}
	viaElements, err := Hash3(ea, eb)
	if err != nil {
		t.Fatal(err)
	}
	if !viaBytes.Equal(viaElements) {
		t.Fatal("HashBytes must agree with hashing the reduced elements directly")
	}
}

func TestHash2SingleInput(t *testing.T) {
	e, err := field.FromBytes32([]byte{0x05})
	if err != nil {
		t.Fatal(err)
	}
	h1, err := Hash2(e)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(e)
	if err != nil {
		t.Fatal(err)
	}
	if !h1.Equal(h2) {
		t.Fatal("Hash2 must be the one-input case of Hash")
	}
	if h1.IsZero() {
		t.Fatal("a nonzero input must not hash to zero")
	}
}

func TestHashUnsupportedWidth(t *testing.T) {
	if _, err := Hash(); err != ErrUnsupportedWidth {
		t.Fatalf("expected ErrUnsupportedWidth for 0 inputs, got %v", err)
	}
	if _, err := Hash(field.Zero(), field.Zero(), field.Zero(), field.Zero()); err != ErrUnsupportedWidth {
		t.Fatalf("expected ErrUnsupportedWidth for 4 inputs, got %v", err)
	}
}
