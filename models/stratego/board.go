package stratego

import "fmt"

const (
	// BoardSize is the side length of the square grid. Coordinates are
	// x (column) and y (row), both in [0, BoardSize).
	BoardSize = 8

	// CellWater and CellShip are the only legal plaintext cell values.
	CellWater uint8 = 0
	CellShip  uint8 = 1
)

// Grid is a revealed plaintext board. It only ever exists on the client
// side and, after the reveal computation, in published audit events.
type Grid [BoardSize][BoardSize]uint8

// ValidateGrid checks a plaintext board before commitment: binary cells
// and exactly shipCells ship cells.
func ValidateGrid(g Grid, shipCells uint8) error {
	total := 0
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			v := g[y][x]
			if v != CellWater && v != CellShip {
				return fmt.Errorf("board has non-binary cell\tx: %d\ty: %d", x, y)
			}
			total += int(v)
		}
	}
	if total != int(shipCells) {
		return fmt.Errorf("board must contain exactly %d ship cells, got: %d", shipCells, total)
	}
	return nil
}

// EncryptedBoard is a player's committed board: one ciphertext per row,
// the ephemeral public key of the key exchange with the computation
// service, and the sealing nonce. The ledger never sees a plaintext cell;
// CommitmentRoot additionally binds the eventual reveal to this exact
// board (MiMC Merkle root over the 64 cells, computed client side).
type EncryptedBoard struct {
	Rows           [BoardSize][]byte
	PublicKey      [32]byte
	Nonce          [16]byte
	CommitmentRoot []byte
}

// validate rejects structurally broken commitments before they reach the
// store. Row ciphertext width is a deployment parameter, so only a lower
// bound and uniformity are checked here.
func (b EncryptedBoard) validate() error {
	width := len(b.Rows[0])
	if width < BoardSize {
		return fmt.Errorf("encrypted board row ciphertext below board size, width: %d", width)
	}
	for i := 1; i < BoardSize; i++ {
		if len(b.Rows[i]) != width {
			return fmt.Errorf("encrypted board row width mismatch, row: %d", i)
		}
	}
	return nil
}
