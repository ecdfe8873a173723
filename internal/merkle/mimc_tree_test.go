package merkle

import (
	"bytes"
	"testing"

	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

func testGrid() ms.Grid {
	var grid ms.Grid
	grid[0][0] = ms.CellShip
	grid[2][5] = ms.CellShip
	grid[7][7] = ms.CellShip
	return grid
}

func TestBuildBoardTree(t *testing.T) {
	tree := BuildBoardTree(testGrid())

	if tree.Depth != 6 {
		t.Fatalf("expected depth 6 over %d leaves, got %d", Leaves, tree.Depth)
	}
	if len(tree.Levels[0]) != Leaves {
		t.Fatalf("expected %d leaves, got %d", Leaves, len(tree.Levels[0]))
	}
	if len(tree.RootBytes()) != 32 {
		t.Fatalf("expected a 32-byte root, got %d", len(tree.RootBytes()))
	}
}

func TestRootIsDeterministicAndBinding(t *testing.T) {
	grid := testGrid()

	root1 := BuildBoardTree(grid).RootBytes()
	root2 := BuildBoardTree(grid).RootBytes()
	if !bytes.Equal(root1, root2) {
		t.Fatal("same grid produced different roots")
	}

	grid[4][4] = ms.CellShip
	if bytes.Equal(root1, BuildBoardTree(grid).RootBytes()) {
		t.Fatal("a changed cell left the root unchanged")
	}
}

func TestPathRecomputesRoot(t *testing.T) {
	grid := testGrid()
	tree := BuildBoardTree(grid)

	coord := ms.NewCoord(5, 2)
	idx := LeafIndex(coord)
	path, dir, err := tree.Path(idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != tree.Depth || len(dir) != tree.Depth {
		t.Fatalf("bad path shape: %d siblings, %d directions", len(path), len(dir))
	}

	// Walk the path by hand; it must land on the tree root
	curr := HashLeaf(grid[coord.Y][coord.X])
	for i := 0; i < tree.Depth; i++ {
		if dir[i] == 1 {
			curr = HashNode(path[i], curr)
		} else {
			curr = HashNode(curr, path[i])
		}
	}
	if curr.Cmp(tree.Root()) != 0 {
		t.Fatal("merkle path does not recompute the root")
	}
}

func TestPathRejectsBadIndex(t *testing.T) {
	tree := BuildBoardTree(testGrid())
	if _, _, err := tree.Path(-1); err == nil {
		t.Fatal("expected a rejection for a negative index")
	}
	if _, _, err := tree.Path(Leaves); err == nil {
		t.Fatal("expected a rejection for an out of range index")
	}
}
