// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// scriptasm is a small utility to disassemble hex-encoded transaction scripts
// and to evaluate signature script and public key script pairs with the
// script engine.
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/decred/slog"
	flags "github.com/jessevdk/go-flags"

	"github.com/btclib/btclib/chainhash"
	"github.com/btclib/btclib/txscript"
	"github.com/btclib/btclib/wire"
)

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func usage(parser *flags.Parser) {
	parser.WriteHelp(os.Stderr)
	os.Exit(2)
}

type config struct {
	Eval   bool `short:"e" long:"eval" description:"evaluate a signature script and public key script pair instead of disassembling; takes the scripts as the two positional arguments"`
	Bip16  bool `short:"p" long:"p2sh" description:"enable pay-to-script-hash evaluation"`
	Strict bool `short:"s" long:"strict" description:"require strict DER signature and public key encodings"`
	EvenS  bool `long:"evens" description:"require even S values in signatures"`
	Debug   bool `short:"d" long:"debug" description:"log each engine step and the resulting stacks"`
	Version bool `short:"V" long:"version" description:"print version and exit"`
}

// version is set at link time.
var version = "(devel)"

// spendingTx creates a transaction which credits the provided public key
// script with a synthetic transaction and then spends it using the provided
// signature script, so the pair can be run through the engine.
func spendingTx(sigScript, pkScript []byte) *wire.MsgTx {
	creditTx := wire.NewMsgTx()
	creditTx.AddTxIn(wire.NewTxIn(
		wire.NewOutPoint(&chainhash.Hash{}, ^uint32(0)),
		[]byte{txscript.OP_0, txscript.OP_0}))
	creditTx.AddTxOut(wire.NewTxOut(0, pkScript))

	spendTx := wire.NewMsgTx()
	creditHash := creditTx.TxHash()
	spendTx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&creditHash, 0),
		sigScript))
	spendTx.AddTxOut(wire.NewTxOut(0, nil))
	return spendTx
}

func disasm(script []byte) error {
	disbuf, err := txscript.DisasmString(script)
	if err != nil {
		return err
	}
	fmt.Println(disbuf)
	return nil
}

func realMain() error {
	cfg := config{}
	parser := flags.NewParser(&cfg, flags.Default)
	parser.Usage = "[OPTIONS] script\n  scriptasm -e [OPTIONS] sigscript pkscript"
	args, err := parser.Parse()
	if err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if cfg.Version {
		fmt.Printf("scriptasm version %s\n", version)
		return nil
	}

	if cfg.Debug {
		backend := slog.NewBackend(os.Stderr)
		logger := backend.Logger("SCRP")
		logger.SetLevel(slog.LevelTrace)
		txscript.UseLogger(logger)
	}

	if !cfg.Eval {
		if len(args) != 1 {
			usage(parser)
		}
		script, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("invalid script hex: %w", err)
		}
		return disasm(script)
	}

	if len(args) != 2 {
		usage(parser)
	}
	sigScript, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("invalid signature script hex: %w", err)
	}
	pkScript, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("invalid public key script hex: %w", err)
	}

	var vmFlags txscript.ScriptFlags
	if cfg.Bip16 {
		vmFlags |= txscript.ScriptBip16
	}
	if cfg.Strict {
		vmFlags |= txscript.ScriptVerifyStrictEncoding
	}
	if cfg.EvenS {
		vmFlags |= txscript.ScriptVerifyEvenS
	}

	spendTx := spendingTx(sigScript, pkScript)
	err = txscript.VerifyScript(sigScript, pkScript, spendTx, 0, vmFlags,
		nil)
	if err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	fmt.Println("scripts verified")
	return nil
}

func main() {
	if err := realMain(); err != nil {
		fatalf("%v\n", err)
	}
}
