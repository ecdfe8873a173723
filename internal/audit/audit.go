package audit

import (
	"bytes"
	"fmt"

	"github.com/stanleykosi/cipher-stratego/internal/merkle"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// Post-reveal cheat detection. Any party can replay the public shot log
// against the revealed grids; the protocol never rejects a reveal, it
// only makes disagreement detectable and attributable to a player.

// Finding is one inconsistency between the public record and a revealed
// board, attributed to the player whose board disagrees.
type Finding struct {
	PlayerIdx int
	Detail    string
}

type Report struct {
	Findings []Finding
}

// Clean reports whether the session survived the audit.
func (r Report) Clean() bool {
	return len(r.Findings) == 0
}

func (r Report) String() string {
	if r.Clean() {
		return "audit clean"
	}
	return fmt.Sprintf("audit flagged %d inconsistencies", len(r.Findings))
}

// Replay checks a finished session: every logged Hit must land on a ship
// cell of the revealed board and every Miss on water, and each revealed
// grid must hash back to the commitment root stored at submit time.
// players and boards are in slot order; grids come from the reveal
// computation in the same order.
func Replay(players [2]string, boards [2]ms.EncryptedBoard, shotLog []ms.Shot, grids [2]ms.Grid) Report {
	var report Report

	for i, grid := range grids {
		if len(boards[i].CommitmentRoot) == 0 {
			report.Findings = append(report.Findings, Finding{
				PlayerIdx: i,
				Detail:    "no commitment root was submitted with the board",
			})
			continue
		}
		root := merkle.BuildBoardTree(grid).RootBytes()
		if !bytes.Equal(root, boards[i].CommitmentRoot) {
			report.Findings = append(report.Findings, Finding{
				PlayerIdx: i,
				Detail:    "revealed board does not hash to the submitted commitment root",
			})
		}
	}

	for n, shot := range shotLog {
		targetIdx := targetOf(players, shot.Player)
		if targetIdx < 0 {
			report.Findings = append(report.Findings, Finding{
				PlayerIdx: -1,
				Detail:    fmt.Sprintf("shot %d fired by unknown player %s", n, shot.Player),
			})
			continue
		}

		cell := grids[targetIdx][shot.Coord.Y][shot.Coord.X]
		want := ms.ShotMiss
		if cell == ms.CellShip {
			want = ms.ShotHit
		}
		if shot.Result != want {
			report.Findings = append(report.Findings, Finding{
				PlayerIdx: targetIdx,
				Detail: fmt.Sprintf("shot %d at (%d,%d) was recorded %s but the revealed cell says %s",
					n, shot.Coord.X, shot.Coord.Y, shot.Result.String(), want.String()),
			})
		}
	}
	return report
}

func targetOf(players [2]string, attacker string) int {
	switch attacker {
	case players[0]:
		return 1
	case players[1]:
		return 0
	}
	return -1
}
