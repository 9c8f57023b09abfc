// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/btclib/btclib/wire"
)

// ScriptFlags is a bitmask defining additional operations or tests that will
// be done when executing a script pair.
type ScriptFlags uint32

const (
	// ScriptBip16 defines whether the bip16 threshold has passed and thus
	// pay-to-script hash transactions will be fully validated.
	ScriptBip16 ScriptFlags = 1 << iota

	// ScriptVerifyStrictEncoding defines that signature scripts and
	// public keys must follow the strict encoding requirements.
	ScriptVerifyStrictEncoding

	// ScriptVerifyEvenS defines that signature S values must be even.
	ScriptVerifyEvenS

	// ScriptNoCache defines that signature verification results must not
	// be consulted from or stored to the signature cache, even when one is
	// associated with the engine.
	ScriptNoCache
)

// isOpcodeDisabled returns whether or not the opcode is disabled and thus is
// always bad to see in the instruction stream (even if turned off by a
// conditional).
func isOpcodeDisabled(opcode byte) bool {
	switch opcode {
	case OP_VERIF:
		return true
	case OP_VERNOTIF:
		return true
	case OP_CAT:
		return true
	case OP_SUBSTR:
		return true
	case OP_LEFT:
		return true
	case OP_RIGHT:
		return true
	case OP_INVERT:
		return true
	case OP_AND:
		return true
	case OP_OR:
		return true
	case OP_XOR:
		return true
	case OP_2MUL:
		return true
	case OP_2DIV:
		return true
	case OP_MUL:
		return true
	case OP_DIV:
		return true
	case OP_MOD:
		return true
	case OP_LSHIFT:
		return true
	case OP_RSHIFT:
		return true
	default:
		return false
	}
}

// isOpcodeConditional returns whether or not the opcode is a conditional
// opcode which changes the conditional execution stack when executed.
func isOpcodeConditional(opcode byte) bool {
	switch opcode {
	case OP_IF:
		return true
	case OP_NOTIF:
		return true
	case OP_ELSE:
		return true
	case OP_ENDIF:
		return true
	default:
		return false
	}
}

// Engine is the virtual machine that executes scripts.
type Engine struct {
	// The following fields are set when the engine is created and must not be
	// changed afterwards.  The entries of the signature cache are mutated
	// during execution, however, the LRU manages that internally to prevent
	// concurrent access.
	//
	// flags specifies the additional behaviors the engine should adhere to.
	//
	// tx identifies the transaction that contains the input which in turn
	// contains the signature script being executed.
	//
	// txIdx identifies the input index within the transaction that contains
	// the signature script being executed.
	//
	// sigCache caches the results of signature verifications.  This is useful
	// since transaction scripts are often executed more than once from various
	// contexts (e.g. new block templates, when transactions are first seen
	// prior to being mined, part of full block verification, etc).
	flags    ScriptFlags
	tx       wire.MsgTx
	txIdx    int
	sigCache *SigCache

	// The following fields handle keeping track of the current execution state
	// of the engine.
	//
	// scripts houses the raw scripts that are executed by the engine.  This
	// includes the signature script as well as the public key script.  It also
	// includes the redeem script in the case of pay-to-script-hash.
	//
	// scriptIdx tracks the index into the scripts array for the current
	// program counter.
	//
	// lastCodeSep specifies the position within the current script of the
	// last OP_CODESEPARATOR.
	//
	// tokenizer provides the token stream of the current script being executed
	// and doubles as state tracking for the program counter within the script.
	//
	// savedFirstStack keeps a copy of the stack from the first script when
	// performing pay-to-script-hash execution.
	//
	// dstack is the primary data stack the various opcodes push and pop data
	// to and from during execution.
	//
	// astack is the alternate data stack the various opcodes push and pop data
	// to and from during execution.
	//
	// condStack tracks the conditional execution state with support for
	// multiple nested conditional execution opcodes.
	//
	// numOps tracks the total number of non-push operations executed and is
	// used to enforce maximum limits.
	scripts         [][]byte
	scriptIdx       int
	lastCodeSep     int32
	tokenizer       ScriptTokenizer
	savedFirstStack [][]byte
	dstack          stack
	astack          stack
	condStack       []bool
	numOps          int
	bip16           bool
}

// hasFlag returns whether the script engine instance has the passed flag set.
func (vm *Engine) hasFlag(flag ScriptFlags) bool {
	return vm.flags&flag == flag
}

// isBranchExecuting returns whether or not the current conditional branch is
// actively executing.  For example, when the data stack has an OP_FALSE on it
// and an OP_IF is encountered, the branch is inactive until an OP_ELSE or
// OP_ENDIF is encountered.  It properly handles nested conditionals.
func (vm *Engine) isBranchExecuting() bool {
	for _, exec := range vm.condStack {
		if !exec {
			return false
		}
	}
	return true
}

// executeOpcode performs execution on the passed opcode.  It takes into
// account whether or not it is hidden by conditionals, but some rules still
// must be tested in this case.
func (vm *Engine) executeOpcode(op *opcode, data []byte) error {
	// Disabled opcodes are fail on program counter.
	if isOpcodeDisabled(op.value) {
		str := fmt.Sprintf("attempt to execute disabled opcode %s",
			op.name)
		return scriptError(ErrDisabledOpcode, str)
	}

	// Note that this includes OP_RESERVED which counts as a push operation.
	if op.value > OP_16 {
		vm.numOps++
		if vm.numOps > MaxOpsPerScript {
			str := fmt.Sprintf("exceeded max operation limit of %d",
				MaxOpsPerScript)
			return scriptError(ErrTooManyOperations, str)
		}
	} else if len(data) > MaxScriptElementSize {
		str := fmt.Sprintf("element size %d exceeds max allowed size %d",
			len(data), MaxScriptElementSize)
		return scriptError(ErrElementTooBig, str)
	}

	// Nothing left to do when this is not a conditional opcode and it is not
	// in an executing branch.
	if !vm.isBranchExecuting() && !isOpcodeConditional(op.value) {
		return nil
	}

	return op.opfunc(op, data, vm)
}

// checkValidPC returns an error if the current script position is not valid
// for execution.
func (vm *Engine) checkValidPC() error {
	if vm.scriptIdx >= len(vm.scripts) {
		str := fmt.Sprintf("program counter beyond input scripts "+
			"(script idx %d, total scripts %d)", vm.scriptIdx,
			len(vm.scripts))
		return scriptError(ErrInvalidProgramCounter, str)
	}
	return nil
}

// DisasmPC returns the string for the disassembly of the opcode that will be
// next to execute when Step is called.
func (vm *Engine) DisasmPC() (string, error) {
	if err := vm.checkValidPC(); err != nil {
		return "", err
	}

	// Create a copy of the current tokenizer and parse the next opcode in the
	// copy to avoid mutating the current one.
	peekTokenizer := vm.tokenizer
	if !peekTokenizer.Next() {
		// Note that due to the fact that all scripts are checked for parse
		// failures before this point, this should never happen.  However, check
		// again to be safe in case a refactor breaks that assumption or new
		// script versions are introduced with different semantics.
		if err := peekTokenizer.Err(); err != nil {
			return "", err
		}

		// Note that this should be impossible to hit in practice because the
		// only way it could happen would be for the final opcode of a script to
		// already be parsed without the script index having been updated, which
		// is not the case since stepping the script always increments the
		// script index when parsing and executing the final opcode of a script.
		str := fmt.Sprintf("program counter beyond script index %d (bytes %x)",
			vm.scriptIdx, vm.scripts[vm.scriptIdx])
		return "", scriptError(ErrInvalidProgramCounter, str)
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("%02x:%04x: ", vm.scriptIdx,
		peekTokenizer.opPos))
	disasmOpcode(&buf, peekTokenizer.op, peekTokenizer.Data(), false)
	return buf.String(), nil
}

// DisasmScript returns the disassembly string for the script at the requested
// offset index.  Index 0 is the signature script and 1 is the public key
// script.  In the case of pay-to-script-hash, index 2 is the redeem script
// once the point in execution where it has been popped from the stack has
// been reached.
func (vm *Engine) DisasmScript(idx int) (string, error) {
	if idx >= len(vm.scripts) {
		str := fmt.Sprintf("script index %d >= total scripts %d", idx,
			len(vm.scripts))
		return "", scriptError(ErrInvalidIndex, str)
	}

	var disbuf strings.Builder
	tokenizer := MakeScriptTokenizer(vm.scripts[idx])
	for tokenizer.Next() {
		disbuf.WriteString(fmt.Sprintf("%02x:%04x: ", idx,
			tokenizer.opPos))
		disasmOpcode(&disbuf, tokenizer.op, tokenizer.Data(), false)
		disbuf.WriteByte('\n')
	}
	return disbuf.String(), tokenizer.Err()
}

// CheckErrorCondition returns nil if the running script has ended and was
// successful, leaving a true boolean on the stack.  An error otherwise,
// including if the script has not finished.
func (vm *Engine) CheckErrorCondition() error {
	// Check execution is actually done by ensuring the script index is after
	// the final script in the array.
	if vm.scriptIdx < len(vm.scripts) {
		return scriptError(ErrScriptUnfinished,
			"error check when script unfinished")
	}

	if vm.dstack.Depth() < 1 {
		return scriptError(ErrEmptyStack,
			"stack empty at end of script execution")
	}

	v, err := vm.dstack.PopBool()
	if err != nil {
		return err
	}
	if !v {
		// Log interesting data.
		log.Tracef("%v", newLogClosure(func() string {
			dis0, _ := vm.DisasmScript(0)
			dis1, _ := vm.DisasmScript(1)
			return fmt.Sprintf("scripts failed:\nscript0:\n%s\n"+
				"script1:\n%s", dis0, dis1)
		}))
		return scriptError(ErrEvalFalse,
			"false stack entry at end of script execution")
	}
	return nil
}

// Step executes the next instruction and moves the program counter to the next
// opcode in the script, or the next script if the current has ended.  Step
// returns true in the case that the last opcode was successfully executed.
//
// The result of calling Step or any other method is undefined if an error is
// returned.
func (vm *Engine) Step() (done bool, err error) {
	// Verify the engine is pointing to a valid program counter.
	if err := vm.checkValidPC(); err != nil {
		return true, err
	}

	// Attempt to parse the next opcode from the current script.
	if !vm.tokenizer.Next() {
		if err := vm.tokenizer.Err(); err != nil {
			return false, err
		}

		str := fmt.Sprintf("attempt to step beyond script index %d "+
			"(bytes %x)", vm.scriptIdx, vm.scripts[vm.scriptIdx])
		return true, scriptError(ErrInvalidProgramCounter, str)
	}

	// Execute the opcode while taking into account several things such as
	// disabled opcodes, illegal opcodes, maximum allowed operations per
	// script, maximum script element sizes, and conditionals.
	err = vm.executeOpcode(vm.tokenizer.op, vm.tokenizer.Data())
	if err != nil {
		return true, err
	}

	// The number of elements in the combination of the data and alt stacks
	// must not exceed the maximum number of stack elements allowed.
	combinedStackSize := vm.dstack.Depth() + vm.astack.Depth()
	if combinedStackSize > MaxStackSize {
		str := fmt.Sprintf("combined stack size %d > max allowed %d",
			combinedStackSize, MaxStackSize)
		return false, scriptError(ErrStackOverflow, str)
	}

	// Prepare for next instruction.
	if vm.tokenizer.Done() {
		// Illegal to have a conditional that straddles two scripts.
		if len(vm.condStack) != 0 {
			return false, scriptError(ErrUnbalancedConditional,
				"end of script reached in conditional execution")
		}

		// Alt stack doesn't persist between scripts.
		_ = vm.astack.DropN(vm.astack.Depth())

		// The number of operations is per script.
		vm.numOps = 0

		// Reset the code separator position for the new script.
		vm.lastCodeSep = 0

		// Advance to the next script.
		vm.scriptIdx++
		if vm.scriptIdx == 1 && vm.bip16 {
			// Save a copy of the stack from the first script so the
			// redeem script can be pulled off of it once the public
			// key script finishes.
			vm.savedFirstStack = vm.GetStack()
		} else if vm.scriptIdx == 2 && vm.bip16 {
			// Check the public key script ran successfully before
			// pulling the redeem script out of the saved first stack
			// and executing that.
			if err := vm.CheckErrorCondition(); err != nil {
				return false, err
			}

			script := vm.savedFirstStack[len(vm.savedFirstStack)-1]
			if len(script) > MaxScriptSize {
				str := fmt.Sprintf("script size %d is larger than "+
					"max allowed size %d", len(script),
					MaxScriptSize)
				return false, scriptError(ErrScriptTooBig, str)
			}
			if err := checkScriptParses(script); err != nil {
				return false, err
			}
			vm.scripts = append(vm.scripts, script)

			// Set stack to be the stack from first script minus the
			// redeem script itself.
			vm.SetStack(vm.savedFirstStack[:len(vm.savedFirstStack)-1])
		}

		// There are zero length scripts in the wild.
		if vm.scriptIdx < len(vm.scripts) && len(vm.scripts[vm.scriptIdx]) == 0 {
			vm.scriptIdx++
		}

		if vm.scriptIdx >= len(vm.scripts) {
			return true, nil
		}
		vm.tokenizer = MakeScriptTokenizer(vm.scripts[vm.scriptIdx])
	}
	return false, nil
}

// Execute will execute all scripts in the script engine and return either nil
// for successful validation or an error if one occurred.
func (vm *Engine) Execute() (err error) {
	done := false
	for !done {
		log.Tracef("%v", newLogClosure(func() string {
			dis, err := vm.DisasmPC()
			if err != nil {
				return fmt.Sprintf("stepping - failed to disasm pc: %v",
					err)
			}
			return fmt.Sprintf("stepping %v", dis)
		}))

		done, err = vm.Step()
		if err != nil {
			return err
		}
		log.Tracef("%v", newLogClosure(func() string {
			var dstr, astr string

			// Log the non-empty stacks when tracing.
			if vm.dstack.Depth() != 0 {
				dstr = "Stack:\n" + spew.Sdump(vm.dstack.stk)
			}
			if vm.astack.Depth() != 0 {
				astr = "AltStack:\n" + spew.Sdump(vm.astack.stk)
			}

			return dstr + astr
		}))
	}

	return vm.CheckErrorCondition()
}

// subScript returns the script since the last OP_CODESEPARATOR.
func (vm *Engine) subScript() []byte {
	return vm.scripts[vm.scriptIdx][vm.lastCodeSep:]
}

// getStack returns the contents of stack as a byte array bottom up.
func getStack(stack *stack) [][]byte {
	array := make([][]byte, stack.Depth())
	for i := range array {
		// PeekByteArray can't fail due to overflow, already checked.
		array[len(array)-i-1], _ = stack.PeekByteArray(int32(i))
	}
	return array
}

// setStack sets the stack to the contents of the array where the last item in
// the array is the top item in the stack.
func setStack(stack *stack, data [][]byte) {
	// This can not error.  Only errors are for invalid arguments.
	_ = stack.DropN(stack.Depth())

	for i := range data {
		stack.PushByteArray(data[i])
	}
}

// GetStack returns the contents of the primary stack as an array where the
// last item in the array is the top of the stack.
func (vm *Engine) GetStack() [][]byte {
	return getStack(&vm.dstack)
}

// SetStack sets the contents of the primary stack to the contents of the
// provided array where the last item in the array will be the top of the
// stack.
func (vm *Engine) SetStack(data [][]byte) {
	setStack(&vm.dstack, data)
}

// GetAltStack returns the contents of the alternate stack as an array where
// the last item in the array is the top of the stack.
func (vm *Engine) GetAltStack() [][]byte {
	return getStack(&vm.astack)
}

// SetAltStack sets the contents of the alternate stack to the contents of the
// provided array where the last item in the array will be the top of the
// stack.
func (vm *Engine) SetAltStack(data [][]byte) {
	setStack(&vm.astack, data)
}

// newEngine returns a new script engine for the provided signature script,
// public key script, transaction, and input index.
func newEngine(scriptSig []byte, scriptPubKey []byte, tx *wire.MsgTx, txIdx int,
	flags ScriptFlags, sigCache *SigCache) (*Engine, error) {

	// The provided transaction input index must refer to a valid input.
	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", txIdx, len(tx.TxIn))
		return nil, scriptError(ErrInvalidIndex, str)
	}

	vm := Engine{
		flags:    flags,
		tx:       *tx,
		txIdx:    txIdx,
		sigCache: sigCache,
	}

	// The engine stores the scripts using a slice.  This allows multiple
	// scripts to be executed in sequence.  For example, with a
	// pay-to-script-hash transaction, there will be ultimately be a third
	// script to execute.
	vm.scripts = [][]byte{scriptSig, scriptPubKey}
	for _, scr := range vm.scripts {
		if len(scr) > MaxScriptSize {
			str := fmt.Sprintf("script size %d is larger than max "+
				"allowed size %d", len(scr), MaxScriptSize)
			return nil, scriptError(ErrScriptTooBig, str)
		}
		if err := checkScriptParses(scr); err != nil {
			return nil, err
		}
	}

	// Advance the program counter to the public key script if the signature
	// script is empty since there is nothing to execute for it in that case.
	if len(scriptSig) == 0 {
		vm.scriptIdx++
	}

	if vm.hasFlag(ScriptBip16) && isScriptHashScript(scriptPubKey) {
		// Only accept input scripts that push data for P2SH.
		if !IsPushOnlyScript(scriptSig) {
			return nil, scriptError(ErrNotPushOnly,
				"pay to script hash is not push only")
		}
		vm.bip16 = true
	}

	// Setup the current tokenizer used to parse through the script one opcode
	// at a time with the script associated with the program counter.
	vm.tokenizer = MakeScriptTokenizer(vm.scripts[vm.scriptIdx])

	return &vm, nil
}

// NewEngine returns a new script engine for the provided public key script,
// transaction, and input index.  The signature script is taken from the
// identified input of the transaction.  The flags modify the behavior of the
// script engine according to the description provided by each flag.
func NewEngine(scriptPubKey []byte, tx *wire.MsgTx, txIdx int,
	flags ScriptFlags, sigCache *SigCache) (*Engine, error) {

	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", txIdx, len(tx.TxIn))
		return nil, scriptError(ErrInvalidIndex, str)
	}
	scriptSig := tx.TxIn[txIdx].SignatureScript
	return newEngine(scriptSig, scriptPubKey, tx, txIdx, flags, sigCache)
}

// VerifyScript verifies that the provided signature script satisfies the
// provided public key script in the context of the provided transaction input
// by creating a new engine and executing it to completion.
func VerifyScript(scriptSig []byte, scriptPubKey []byte, tx *wire.MsgTx,
	txIdx int, flags ScriptFlags, sigCache *SigCache) error {

	vm, err := newEngine(scriptSig, scriptPubKey, tx, txIdx, flags, sigCache)
	if err != nil {
		return err
	}
	return vm.Execute()
}

// EvalScript executes the provided script against the provided initial stack
// in the context of the provided transaction input and returns the resulting
// stack.  Unlike VerifyScript, no final stack state checks are performed, so
// callers that care whether the script left a true value on the stack must
// inspect the returned stack themselves.
func EvalScript(stk [][]byte, script []byte, tx *wire.MsgTx, txIdx int,
	flags ScriptFlags) ([][]byte, error) {

	if txIdx < 0 || txIdx >= len(tx.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", txIdx, len(tx.TxIn))
		return nil, scriptError(ErrInvalidIndex, str)
	}
	if len(script) > MaxScriptSize {
		str := fmt.Sprintf("script size %d is larger than max allowed "+
			"size %d", len(script), MaxScriptSize)
		return nil, scriptError(ErrScriptTooBig, str)
	}
	if err := checkScriptParses(script); err != nil {
		return nil, err
	}

	vm := Engine{
		flags:     flags,
		tx:        *tx,
		txIdx:     txIdx,
		scripts:   [][]byte{script},
		tokenizer: MakeScriptTokenizer(script),
	}
	vm.SetStack(stk)

	// An empty script has nothing to execute.
	if len(script) == 0 {
		return vm.GetStack(), nil
	}

	for {
		done, err := vm.Step()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return vm.GetStack(), nil
}

// VerifySignature verifies the signature script of the input in the spending
// transaction can spend the output of the funding transaction it references.
//
// The funding output is located via the previous outpoint of the input, which
// must both refer to a valid output of the funding transaction and match its
// transaction hash.
func VerifySignature(txFrom *wire.MsgTx, txTo *wire.MsgTx, inIdx int) error {
	if inIdx < 0 || inIdx >= len(txTo.TxIn) {
		str := fmt.Sprintf("transaction input index %d is negative or "+
			">= %d", inIdx, len(txTo.TxIn))
		return scriptError(ErrInvalidIndex, str)
	}
	txIn := txTo.TxIn[inIdx]

	prevIdx := txIn.PreviousOutPoint.Index
	if prevIdx >= uint32(len(txFrom.TxOut)) {
		str := fmt.Sprintf("previous output index %d >= %d", prevIdx,
			len(txFrom.TxOut))
		return scriptError(ErrInvalidPrevOutIndex, str)
	}

	if txIn.PreviousOutPoint.Hash != txFrom.TxHash() {
		return scriptError(ErrPrevTxHashMismatch,
			"previous outpoint hash does not match funding transaction")
	}

	txOut := txFrom.TxOut[prevIdx]
	return VerifyScript(txIn.SignatureScript, txOut.PkScript, txTo, inIdx, 0,
		nil)
}
