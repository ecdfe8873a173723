package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/stanleykosi/cipher-stratego/internal/zk"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
)

// Offline dispute tooling. A defender whose recorded shot result is
// challenged proves, from their plaintext board, that the disputed cell
// matches what the ledger recorded; anyone verifies against the
// commitment root stored at submit time. None of this runs on the
// coordination hot path.

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	switch os.Args[1] {
	case "setup":
		cmdSetup()
	case "prove":
		cmdProve()
	case "verify":
		cmdVerify()
	default:
		usage()
	}
}

func usage() {
	fmt.Print(`cipher-stratego dispute CLI

Commands:
  setup  --keys ./keys
  prove  --board board.json --keys ./keys --x X --y Y --out dispute.json
  verify --vk ./keys/dispute.vk --root ROOT_HEX --proof dispute.json

`)
}

type disputeFile struct {
	Proof  []byte `json:"proof"`
	Root   string `json:"root"`
	Result uint8  `json:"result"`
}

func cmdSetup() {
	fs := flag.NewFlagSet("setup", flag.ExitOnError)
	keysDir := fs.String("keys", "./keys", "keys directory")
	_ = fs.Parse(os.Args[2:])

	if err := zk.EnsureDisputeKeys(*keysDir); err != nil {
		log.Fatal("dispute key setup failed", "err", err)
	}
	fmt.Println("wrote", filepath.Join(*keysDir, "dispute.vk"), "and", filepath.Join(*keysDir, "dispute.pk"))
}

func cmdProve() {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	boardPath := fs.String("board", "board.json", "plaintext board file")
	keysDir := fs.String("keys", "./keys", "keys directory")
	x := fs.Uint("x", 0, "disputed column")
	y := fs.Uint("y", 0, "disputed row")
	out := fs.String("out", "dispute.json", "output proof file")
	_ = fs.Parse(os.Args[2:])

	var grid ms.Grid
	raw, err := os.ReadFile(*boardPath)
	if err != nil {
		log.Fatal("reading board", "err", err)
	}
	if err := json.Unmarshal(raw, &grid); err != nil {
		log.Fatal("parsing board", "err", err)
	}

	coord := ms.NewCoord(uint8(*x), uint8(*y))
	if !coord.InBounds() {
		log.Fatal("coordinate out of board bounds", "x", *x, "y", *y)
	}

	proof, pub, err := zk.ProveDispute(*keysDir, grid, coord)
	if err != nil {
		log.Fatal("proving failed", "err", err)
	}

	payload, err := json.MarshalIndent(disputeFile{
		Proof:  proof,
		Root:   pub.Root.Text(16),
		Result: pub.Result,
	}, "", "  ")
	if err != nil {
		log.Fatal("encoding proof", "err", err)
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		log.Fatal("writing proof", "err", err)
	}
	fmt.Println("wrote", *out, "root:", pub.Root.Text(16))
}

func cmdVerify() {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	vkPath := fs.String("vk", "./keys/dispute.vk", "verifying key")
	rootHex := fs.String("root", "", "commitment root the ledger stored (hex)")
	proofPath := fs.String("proof", "dispute.json", "proof file")
	_ = fs.Parse(os.Args[2:])

	committedRoot, ok := new(big.Int).SetString(*rootHex, 16)
	if !ok {
		log.Fatal("root must be hex", "root", *rootHex)
	}

	raw, err := os.ReadFile(*proofPath)
	if err != nil {
		log.Fatal("reading proof", "err", err)
	}
	var df disputeFile
	if err := json.Unmarshal(raw, &df); err != nil {
		log.Fatal("parsing proof", "err", err)
	}
	proofRoot, ok := new(big.Int).SetString(df.Root, 16)
	if !ok {
		log.Fatal("proof file carries a non-hex root", "root", df.Root)
	}

	pub := zk.DisputePublic{Root: proofRoot, Result: df.Result}
	valid, err := zk.VerifyDispute(*vkPath, df.Proof, pub, committedRoot)
	if err != nil {
		log.Fatal("verification errored", "err", err)
	}
	if !valid {
		log.Fatal("proof rejected")
	}
	fmt.Println("proof accepted: disputed cell is", ms.ShotResult(df.Result).String())
}
