package main

import (
	"net/http"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/stanleykosi/cipher-stratego/api"
	"github.com/stanleykosi/cipher-stratego/db"
	"github.com/stanleykosi/cipher-stratego/db/sqlc"
	mc "github.com/stanleykosi/cipher-stratego/models/connection"
	ms "github.com/stanleykosi/cipher-stratego/models/stratego"
	"github.com/stanleykosi/cipher-stratego/mpc"
)

const defaultPort = "9191"

func main() {
	if os.Getenv("STAGE") != "prod" {
		if err := godotenv.Load(".env"); err != nil {
			panic(err)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	psqlUrl := os.Getenv("DATABASE_URL")
	psqlDb := db.MustConnectToDb(psqlUrl)
	querier := sqlc.New(psqlDb)

	gameManagerOpts := make([]ms.GameManagerOption, 0, 2)
	if capStr := os.Getenv("SHOT_LOG_CAP"); capStr != "" {
		capVal, err := strconv.Atoi(capStr)
		if err != nil {
			panic(err)
		}
		gameManagerOpts = append(gameManagerOpts, ms.WithShotLogCapacity(capVal))
	}
	if cellsStr := os.Getenv("SHIP_CELLS"); cellsStr != "" {
		cellsVal, err := strconv.ParseUint(cellsStr, 10, 8)
		if err != nil {
			panic(err)
		}
		gameManagerOpts = append(gameManagerOpts, ms.WithShipCells(uint8(cellsVal)))
	}

	gameManager := ms.NewGameManager(gameManagerOpts...)
	sessionManager := mc.NewStrategoSessionManager()
	go sessionManager.CleanupPeriodically()

	serviceKey, err := mpc.GenerateServiceKey()
	if err != nil {
		panic(err)
	}

	bridge := mpc.NewBridge(gameManager)
	service := mpc.NewLocalService(serviceKey)
	service.BindReceiver(bridge)
	bridge.BindService(service)

	requestProcessor := api.NewRequestProcessor(sessionManager, gameManager, bridge, querier)
	bridge.BindSink(requestProcessor)

	mux := http.NewServeMux()
	mux.Handle("GET /stratego", requestProcessor)

	log.Info("listening", "port", port)
	log.Fatal(http.ListenAndServe(":"+port, mux))
}
