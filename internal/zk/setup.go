package zk

import (
	"bytes"
	"errors"
	"math/big"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/stanleykosi/cipher-stratego/internal/merkle"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// DisputePublic is the public half of a dispute proof: the commitment
// root the ledger stored and the shot result being defended.
type DisputePublic struct {
	Root   *big.Int `json:"root"`
	Result uint8    `json:"result"`
}

// EnsureDisputeKeys compiles the circuit and writes the groth16 key pair
// if no parseable pair exists under dir.
func EnsureDisputeKeys(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	vkPath := filepath.Join(dir, "dispute.vk")
	pkPath := filepath.Join(dir, "dispute.pk")

	if vk, pk, err := readKeys(vkPath, pkPath); err == nil && vk != nil && pk != nil {
		return nil
	}

	var circuit DisputeCircuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return err
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return err
	}

	if err := writeVK(vkPath, vk); err != nil {
		return err
	}
	return writePK(pkPath, pk)
}

// ProveDispute produces a proof that the cell at the shot's coordinate,
// inside the grid committed to by its Merkle tree, equals the recorded
// result. The defender holds the plaintext grid; nothing else leaves.
func ProveDispute(keysDir string, grid ms.Grid, coord ms.Coord) ([]byte, DisputePublic, error) {
	tree := merkle.BuildBoardTree(grid)
	root := tree.Root()

	idx := merkle.LeafIndex(coord)
	path, dir, err := tree.Path(idx)
	if err != nil {
		return nil, DisputePublic{}, err
	}
	if len(path) != MerkleDepth || len(dir) != MerkleDepth {
		return nil, DisputePublic{}, errors.New("bad path length")
	}
	cell := grid[coord.Y][coord.X]

	var assign DisputeCircuit
	assign.Cell = cell
	for i := 0; i < MerkleDepth; i++ {
		assign.Path[i] = path[i]
		assign.Dir[i] = dir[i]
	}
	assign.Root = root
	assign.Result = cell

	var circuit DisputeCircuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, DisputePublic{}, err
	}
	pk, err := readPK(filepath.Join(keysDir, "dispute.pk"))
	if err != nil {
		return nil, DisputePublic{}, err
	}

	fullWit, err := frontend.NewWitness(&assign, ecc.BN254.ScalarField())
	if err != nil {
		return nil, DisputePublic{}, err
	}
	proof, err := groth16.Prove(cs, pk, fullWit)
	if err != nil {
		return nil, DisputePublic{}, err
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, DisputePublic{}, err
	}
	return buf.Bytes(), DisputePublic{Root: new(big.Int).Set(root), Result: cell}, nil
}

// VerifyDispute checks a dispute proof against the commitment root the
// ledger stored at submit time. Anyone can run this off the hot path.
func VerifyDispute(vkPath string, proofBin []byte, pub DisputePublic, root *big.Int) (bool, error) {
	if pub.Root == nil {
		return false, errors.New("dispute payload missing public root")
	}
	if pub.Root.Cmp(root) != 0 {
		return false, errors.New("root mismatch: proof root != committed root")
	}
	if pub.Result != uint8(ms.ShotMiss) && pub.Result != uint8(ms.ShotHit) {
		return false, errors.New("invalid result public output")
	}

	var pubAssign DisputeCircuit
	pubAssign.Root = root
	pubAssign.Result = pub.Result

	pubWit, err := frontend.NewWitness(&pubAssign, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, err
	}

	vk, err := readVK(vkPath)
	if err != nil {
		return false, err
	}
	pr := groth16.NewProof(ecc.BN254)
	if _, err := pr.ReadFrom(bytes.NewReader(proofBin)); err != nil {
		return false, err
	}

	if err := groth16.Verify(pr, vk, pubWit); err != nil {
		return false, err
	}
	return true, nil
}

// --- key IO helpers using io.WriterTo / io.ReaderFrom ---

func writeVK(path string, vk groth16.VerifyingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = vk.WriteTo(f)
	return err
}

func writePK(path string, pk groth16.ProvingKey) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = pk.WriteTo(f)
	return err
}

func readVK(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(ecc.BN254)
	_, err = vk.ReadFrom(f)
	return vk, err
}

func readPK(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(ecc.BN254)
	_, err = pk.ReadFrom(f)
	return pk, err
}

func readKeys(vkPath, pkPath string) (groth16.VerifyingKey, groth16.ProvingKey, error) {
	vk, err := readVK(vkPath)
	if err != nil {
		return nil, nil, err
	}
	pk, err := readPK(pkPath)
	if err != nil {
		return nil, nil, err
	}
	return vk, pk, nil
}
