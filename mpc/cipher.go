package mpc

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/curve25519"

	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// Board sealing for the in-process computation service. Each player runs
// an X25519 exchange against the service identity key with a fresh
// ephemeral key, then seals every board row with AES-256-CTR. Rows are
// sealed independently so the service can open a single row for a shot
// check without touching the rest of the board.
//
// The scheme itself is an external-collaborator concern; this file only
// has to be consistent between SealBoard and the service's openRow.

// DefaultRowCipherBytes is the sealed width of one row. The first
// BoardSize bytes carry the cells, the rest is padding. Tunable per
// deployment, never below BoardSize.
const DefaultRowCipherBytes = 8

// ServiceKey is the computation service's long-term X25519 identity.
type ServiceKey struct {
	priv [32]byte
	pub  [32]byte
}

func GenerateServiceKey() (*ServiceKey, error) {
	var k ServiceKey
	if _, err := rand.Read(k.priv[:]); err != nil {
		return nil, err
	}
	pub, err := curve25519.X25519(k.priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(k.pub[:], pub)
	return &k, nil
}

func (k *ServiceKey) Public() [32]byte {
	return k.pub
}

// rowNonce derives the per-row CTR IV from the board nonce. CTR
// increments the IV as a big-endian counter from the trailing byte, so
// the row index lands in the leading byte, which the counter cannot
// reach at any row width. No two rows ever share a counter block.
func rowNonce(nonce [16]byte, row int) []byte {
	iv := nonce
	iv[0] ^= byte(row)
	return iv[:]
}

func sharedCipher(priv []byte, peerPub []byte) (cipher.Block, error) {
	shared, err := curve25519.X25519(priv, peerPub)
	if err != nil {
		return nil, err
	}
	return aes.NewCipher(shared)
}

// SealBoard encrypts a plaintext grid into the commitment the ledger
// stores. Client-side operation; the ledger itself never calls this.
func SealBoard(grid ms.Grid, servicePub [32]byte, rowWidth int) (ms.EncryptedBoard, error) {
	if rowWidth < ms.BoardSize {
		return ms.EncryptedBoard{}, fmt.Errorf("row cipher width below board size: %d", rowWidth)
	}

	var ephPriv [32]byte
	if _, err := rand.Read(ephPriv[:]); err != nil {
		return ms.EncryptedBoard{}, err
	}
	ephPub, err := curve25519.X25519(ephPriv[:], curve25519.Basepoint)
	if err != nil {
		return ms.EncryptedBoard{}, err
	}

	block, err := sharedCipher(ephPriv[:], servicePub[:])
	if err != nil {
		return ms.EncryptedBoard{}, err
	}

	var board ms.EncryptedBoard
	copy(board.PublicKey[:], ephPub)
	if _, err := rand.Read(board.Nonce[:]); err != nil {
		return ms.EncryptedBoard{}, err
	}

	for y := 0; y < ms.BoardSize; y++ {
		plain := make([]byte, rowWidth)
		copy(plain, grid[y][:])

		sealed := make([]byte, rowWidth)
		cipher.NewCTR(block, rowNonce(board.Nonce, y)).XORKeyStream(sealed, plain)
		board.Rows[y] = sealed
	}
	return board, nil
}

// openRow recovers the plaintext cells of one row. Service-side only.
func (k *ServiceKey) openRow(board ms.EncryptedBoard, row int) ([ms.BoardSize]uint8, error) {
	var cells [ms.BoardSize]uint8

	block, err := sharedCipher(k.priv[:], board.PublicKey[:])
	if err != nil {
		return cells, err
	}
	if row < 0 || row >= ms.BoardSize {
		return cells, fmt.Errorf("row index out of range: %d", row)
	}

	plain := make([]byte, len(board.Rows[row]))
	cipher.NewCTR(block, rowNonce(board.Nonce, row)).XORKeyStream(plain, board.Rows[row])
	copy(cells[:], plain[:ms.BoardSize])
	return cells, nil
}

// openBoard recovers a full plaintext grid for the reveal computation.
func (k *ServiceKey) openBoard(board ms.EncryptedBoard) (ms.Grid, error) {
	var grid ms.Grid
	for y := 0; y < ms.BoardSize; y++ {
		row, err := k.openRow(board, y)
		if err != nil {
			return ms.Grid{}, err
		}
		grid[y] = row
	}
	return grid, nil
}
