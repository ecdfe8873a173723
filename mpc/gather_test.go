package mpc

import (
	"testing"

	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

func TestObliviousGather(t *testing.T) {
	var row [ms.BoardSize]uint8
	row[0] = ms.CellShip
	row[5] = ms.CellShip

	for col := uint8(0); col < ms.BoardSize; col++ {
		if got := obliviousGather(row, col); got != row[col] {
			t.Fatalf("col %d: expected %d, got %d", col, row[col], got)
		}
	}
}
