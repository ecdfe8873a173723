package merkle

import (
	"errors"
	"math/big"

	bnmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// MiMC Merkle commitment over the 64 cells of a board, row-major. The
// root travels with the encrypted board at submit time; the reveal audit
// recomputes it from the published grid, and dispute proofs open single
// cells against it in-circuit. Hashing here must stay consistent with
// the in-circuit MiMC of the dispute circuit.

// Leaves returns the number of leaves of a board tree.
const Leaves = ms.BoardSize * ms.BoardSize

// encode BN254 field elements as 32-byte big-endian
func feBytes(x *big.Int) []byte {
	b := x.Bytes()
	if len(b) == 32 {
		return b
	}
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

func HashLeaf(cell uint8) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(new(big.Int).SetUint64(uint64(cell))))
	return new(big.Int).SetBytes(h.Sum(nil))
}

func HashNode(left, right *big.Int) *big.Int {
	h := bnmimc.NewMiMC()
	h.Write(feBytes(left))
	h.Write(feBytes(right))
	return new(big.Int).SetBytes(h.Sum(nil))
}

// Tree is a fixed-size binary Merkle tree stored level by level:
// Levels[0] holds the leaf hashes, Levels[Depth][0] is the root.
type Tree struct {
	Depth  int
	Levels [][]*big.Int
}

// BuildBoardTree commits a plaintext grid. Client-side (before sealing)
// and audit-side (after reveal) both use this; the ledger only ever sees
// the root.
func BuildBoardTree(grid ms.Grid) *Tree {
	leaves := make([]*big.Int, 0, Leaves)
	for y := 0; y < ms.BoardSize; y++ {
		for x := 0; x < ms.BoardSize; x++ {
			leaves = append(leaves, HashLeaf(grid[y][x]))
		}
	}

	levels := [][]*big.Int{leaves}
	n := Leaves
	for n > 1 {
		n2 := n / 2
		up := make([]*big.Int, n2)
		prev := levels[len(levels)-1]
		for i := 0; i < n2; i++ {
			up[i] = HashNode(prev[2*i], prev[2*i+1])
		}
		levels = append(levels, up)
		n = n2
	}
	return &Tree{Depth: len(levels) - 1, Levels: levels}
}

func (t *Tree) Root() *big.Int {
	return new(big.Int).Set(t.Levels[len(t.Levels)-1][0])
}

// RootBytes returns the root in the 32-byte form carried inside an
// EncryptedBoard commitment.
func (t *Tree) RootBytes() []byte {
	return feBytes(t.Root())
}

// LeafIndex maps a board coordinate to its leaf position.
func LeafIndex(c ms.Coord) int {
	return int(c.Y)*ms.BoardSize + int(c.X)
}

// Path returns sibling hashes plus direction bits for leaf idx.
// dir[i]=0 means the current node is a left child, 1 a right child.
func (t *Tree) Path(idx int) (path []*big.Int, dir []uint8, err error) {
	if idx < 0 || idx >= Leaves {
		return nil, nil, errors.New("leaf index out of range")
	}
	path = make([]*big.Int, 0, t.Depth)
	dir = make([]uint8, 0, t.Depth)
	cur := idx
	for level := 0; level < t.Depth; level++ {
		isRight := cur%2 == 1
		var sib int
		if isRight {
			sib = cur - 1
		} else {
			sib = cur + 1
		}
		path = append(path, new(big.Int).Set(t.Levels[level][sib]))
		if isRight {
			dir = append(dir, 1)
		} else {
			dir = append(dir, 0)
		}
		cur /= 2
	}
	return path, dir, nil
}
