package zk

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// MerkleDepth covers the 64 board cells.
const MerkleDepth = 6

// DisputeCircuit proves that a single recorded shot result matches the
// committed board, without revealing any other cell. The defender of a
// disputed shot produces the proof; anyone verifies it against the
// commitment root the ledger stored at submit time.
//
// Control flow is branch-free: the Merkle walk selects left/right with
// api.Select, never branching on the secret direction bits or the cell.
type DisputeCircuit struct {
	Cell frontend.Variable              `gnark:",secret"`
	Path [MerkleDepth]frontend.Variable `gnark:",secret"`
	Dir  [MerkleDepth]frontend.Variable `gnark:",secret"`

	Root   frontend.Variable `gnark:",public"`
	Result frontend.Variable `gnark:",public"`
}

func (c *DisputeCircuit) Define(api frontend.API) error {
	api.AssertIsBoolean(c.Cell)
	api.AssertIsEqual(c.Result, c.Cell) // reveal only Result = Cell

	// leaf hash = MiMC(Cell)
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Reset()
	h.Write(c.Cell)
	curr := h.Sum()

	// walk the Merkle path up to the committed root
	for i := 0; i < MerkleDepth; i++ {
		h.Reset()
		isRight := c.Dir[i]
		api.AssertIsBoolean(isRight)

		left := api.Select(isRight, c.Path[i], curr)
		right := api.Select(isRight, curr, c.Path[i])

		h.Write(left, right)
		curr = h.Sum()
	}

	api.AssertIsEqual(curr, c.Root)
	return nil
}
