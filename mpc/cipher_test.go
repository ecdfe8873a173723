package mpc

import (
	"bytes"
	"testing"

	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

func testGrid() ms.Grid {
	var grid ms.Grid
	grid[0][0] = ms.CellShip
	grid[3][4] = ms.CellShip
	grid[7][7] = ms.CellShip
	return grid
}

func TestSealOpenRoundTrip(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}

	grid := testGrid()
	// 32 covers rows spanning more than one AES counter block
	for _, width := range []int{DefaultRowCipherBytes, 32} {
		board, err := SealBoard(grid, key.Public(), width)
		if err != nil {
			t.Fatal(err)
		}

		opened, err := key.openBoard(board)
		if err != nil {
			t.Fatal(err)
		}
		if opened != grid {
			t.Fatalf("opened board does not match the sealed grid, width: %d", width)
		}
	}
}

func TestOpenSingleRow(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}

	grid := testGrid()
	board, err := SealBoard(grid, key.Public(), DefaultRowCipherBytes)
	if err != nil {
		t.Fatal(err)
	}

	// Rows are sealed independently; opening one must not need the rest
	row, err := key.openRow(board, 3)
	if err != nil {
		t.Fatal(err)
	}
	if row != grid[3] {
		t.Fatalf("row 3 mismatch: %v", row)
	}

	if _, err := key.openRow(board, ms.BoardSize); err == nil {
		t.Fatal("expected an out of range row rejection")
	}
}

func TestRowNoncesDiffer(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}

	// Two all-water rows must still seal to different ciphertexts
	var grid ms.Grid
	board, err := SealBoard(grid, key.Public(), DefaultRowCipherBytes)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(board.Rows[0], board.Rows[1]) {
		t.Fatal("two rows share a key stream")
	}
}

func TestRowNoncesOutsideCounterReach(t *testing.T) {
	// Worst-case board nonce: every in-row increment carries as far as
	// it can. Walking each row's IV the way CTR does must never land on
	// a counter block of another row, even at four blocks per row.
	var nonce [16]byte
	for i := range nonce {
		nonce[i] = 0xff
	}

	const blocksPerRow = 4
	seen := make(map[[16]byte]int)
	for row := 0; row < ms.BoardSize; row++ {
		var iv [16]byte
		copy(iv[:], rowNonce(nonce, row))
		for b := 0; b < blocksPerRow; b++ {
			if prev, dup := seen[iv]; dup {
				t.Fatalf("row %d block %d reuses a counter block of row %d", row, b, prev)
			}
			seen[iv] = row

			for i := len(iv) - 1; i >= 0; i-- {
				iv[i]++
				if iv[i] != 0 {
					break
				}
			}
		}
	}
}

func TestWideRowsLeakNoPlaintextRelation(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}

	// An all-water grid seals to raw key stream; any counter block
	// shared between rows would show up as equal ciphertext.
	var grid ms.Grid
	board, err := SealBoard(grid, key.Public(), 32)
	if err != nil {
		t.Fatal(err)
	}

	for a := 0; a < ms.BoardSize; a++ {
		for b := a + 1; b < ms.BoardSize; b++ {
			for i := 0; i+16 <= len(board.Rows[a]); i += 16 {
				for j := 0; j+16 <= len(board.Rows[b]); j += 16 {
					if bytes.Equal(board.Rows[a][i:i+16], board.Rows[b][j:j+16]) {
						t.Fatalf("row %d block %d equals row %d block %d", a, i/16, b, j/16)
					}
				}
			}
		}
	}
}

func TestSealBoardRejectsNarrowWidth(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := SealBoard(testGrid(), key.Public(), ms.BoardSize-1); err == nil {
		t.Fatal("expected a narrow row width rejection")
	}
}

func TestWrongKeyCannotOpen(t *testing.T) {
	key, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}
	otherKey, err := GenerateServiceKey()
	if err != nil {
		t.Fatal(err)
	}

	grid := testGrid()
	board, err := SealBoard(grid, key.Public(), DefaultRowCipherBytes)
	if err != nil {
		t.Fatal(err)
	}

	opened, err := otherKey.openBoard(board)
	if err != nil {
		t.Fatal(err)
	}
	if opened == grid {
		t.Fatal("a different service key recovered the plaintext")
	}
}
