package mpc

import (
	"crypto/subtle"

	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// obliviousGather reads row[col] without branching on cell values or
// touching memory in a pattern that depends on them: every cell is
// visited and folded through a constant-time select keyed only on the
// public column index. This mirrors what the confidential computation
// must do inside the MPC environment, where control flow and access
// patterns over secret data are forbidden.
func obliviousGather(row [ms.BoardSize]uint8, col uint8) uint8 {
	acc := 0
	for i := 0; i < ms.BoardSize; i++ {
		eq := subtle.ConstantTimeEq(int32(i), int32(col))
		acc = subtle.ConstantTimeSelect(eq, int(row[i]), acc)
	}
	return uint8(acc)
}
