package sqlc

import (
	"context"

	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// ArchiveManager writes finished state to the durable archive. The
// in-memory session stays authoritative while the game is live; the
// archive serves history queries after the session is terminated.
type ArchiveManager struct {
	queries Querier
}

func NewArchiveManager(queries Querier) *ArchiveManager {
	return &ArchiveManager{queries: queries}
}

func (a *ArchiveManager) ArchiveGame(ctx context.Context, game *ms.GameSession) error {
	players := game.Players()
	return a.queries.ArchiveGame(ctx, ArchiveGameParams{
		GameUuid:  game.Uuid(),
		Seed:      int64(game.Seed()),
		Player1:   players[0],
		Player2:   players[1],
		Phase:     game.Phase().String(),
		TurnCount: int64(game.TurnCounter()),
	})
}

func (a *ArchiveManager) ArchiveShot(ctx context.Context, gameUuid string, turn uint64, shot ms.Shot) error {
	return a.queries.ArchiveShot(ctx, ArchiveShotParams{
		GameUuid:       gameUuid,
		Turn:           int64(turn),
		Player:         shot.Player,
		X:              int16(shot.Coord.X),
		Y:              int16(shot.Coord.Y),
		Result:         shot.Result.String(),
		ShipsRemaining: int16(shot.ShipsRemaining),
	})
}

func (a *ArchiveManager) GetArchivedShots(ctx context.Context, gameUuid string) ([]ShotArchive, error) {
	return a.queries.GetArchivedShots(ctx, gameUuid)
}
