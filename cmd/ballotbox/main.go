package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/voteledger/ballotbox/ledger"
	"github.com/voteledger/ballotbox/proof"
	"github.com/voteledger/ballotbox/service"
	"github.com/voteledger/ballotbox/storage"
)

func main() {
	var (
		host         = flag.String("host", "0.0.0.0", "API host to bind")
		port         = flag.Int("port", 8080, "API port to bind")
		dataDir      = flag.String("datadir", "", "data directory (defaults to ~/.ballotbox)")
		authorityHex = flag.String("authority", "", "authority address (hex, required)")
		deadlineStr  = flag.String("deadline", "", "voting deadline (RFC3339, required)")
		verifierType = flag.String("verifier", "static", "proof verifier: static, groth16 or circom")
		vkeyFile     = flag.String("vkey", "", "verification key file (groth16 and circom verifiers)")
		logLevel     = flag.String("loglevel", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()
	log.Init(*logLevel, "stdout", nil)

	if !common.IsHexAddress(*authorityHex) {
		log.Fatalf("invalid or missing authority address %q", *authorityHex)
	}
	authority := common.HexToAddress(*authorityHex)

	deadline, err := time.Parse(time.RFC3339, *deadlineStr)
	if err != nil {
		log.Fatalf("invalid or missing deadline: %v", err)
	}

	if *dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("cannot resolve home directory: %v", err)
		}
		*dataDir = filepath.Join(home, ".ballotbox")
	}
	database, err := metadb.New(db.TypePebble, *dataDir)
	if err != nil {
		log.Fatalf("cannot open database: %v", err)
	}
	stg := storage.New(database)

	verifier, err := buildVerifier(*verifierType, *vkeyFile)
	if err != nil {
		log.Fatalf("cannot build proof verifier: %v", err)
	}

	led, err := ledger.New(stg, ledger.Config{
		Authority: authority,
		Deadline:  deadline,
		Verifier:  verifier,
	})
	if err != nil {
		log.Fatalf("cannot create ledger: %v", err)
	}
	log.Infow("voting box ready",
		"authority", authority.Hex(),
		"deadline", deadline,
		"phase", led.Phase().String(),
		"verifier", *verifierType,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	apiService := service.NewAPI(led, *host, *port)
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("cannot start API service: %v", err)
	}
	monitor := service.NewPhaseMonitor(led, 10*time.Second)
	if err := monitor.Start(ctx); err != nil {
		log.Fatalf("cannot start phase monitor: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down")
	monitor.Stop()
	apiService.Stop()
	stg.Close()
}

func buildVerifier(typ, vkeyFile string) (proof.Verifier, error) {
	switch typ {
	case "static":
		log.Warn("using the static always-accept verifier, proofs are NOT checked")
		return proof.NewStatic(true), nil
	case "groth16":
		vkey, err := os.ReadFile(vkeyFile)
		if err != nil {
			return nil, err
		}
		return proof.NewGroth16(vkey)
	case "circom":
		vkey, err := os.ReadFile(vkeyFile)
		if err != nil {
			return nil, err
		}
		return proof.NewCircom(vkey)
	}
	return nil, fmt.Errorf("unknown verifier type %q", typ)
}
