// Copyright (c) 2024 The btclib developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package txscript implements the bitcoin transaction script language.

A complete script engine capable of fully executing all standard and most
non-standard legacy transaction scripts is provided, along with helpers for
building, disassembling, classifying, and signing scripts.

# Script Overview

Bitcoin transaction scripts are written in a stack-based, FORTH-like language.
The original idea behind this language was to have a flexible means of
describing the conditions which must be met in order to spend funds.  In
practice, nearly all transactions on the network today make use of a small
handful of standard script templates such as pay-to-pubkey-hash and
pay-to-script-hash.

Execution of a transaction input joins two scripts: the signature script from
the input being validated provides the data which satisfies the conditions
imposed by the public key script of the referenced output.  Validation
succeeds when both scripts execute without error and leave a true value on the
top of the stack.

# Errors

The errors returned by this package are of type txscript.Error.  This allows
the caller to programmatically determine the specific error by examining the
ErrorKind field of the type asserted txscript.Error while still providing rich
error messages with contextual information.  A convenience function named
IsErrorKind is provided to allow callers to easily check for a specific error
kind.
*/
package txscript
