package runtime

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"escrowswap/core/types"
)

// MaxInvokeDepth bounds nested cross-program calls, counting the top-level
// instruction.
const MaxInvokeDepth = 4

// recorder accumulates program output for a single transaction.
type recorder struct {
	logs   []string
	events []*types.Event
}

// Context is handed to a program for one invocation. It exposes the services
// of the ledger: cross-program calls, rent parameters, logging and events.
type Context struct {
	ctx   context.Context
	rt    *Runtime
	ws    *workingSet
	frame *frame
	depth int
	rec   *recorder
}

// ProgramID returns the identity of the executing program.
func (c *Context) ProgramID() solana.PublicKey { return c.frame.program }

// Rent returns the ledger's rent parameters.
func (c *Context) Rent() Rent { return c.rt.rent }

// Context returns the caller's context.
func (c *Context) Context() context.Context { return c.ctx }

// Depth is 0 for a top-level instruction and grows by one per nested call.
func (c *Context) Depth() int { return c.depth }

// Log appends a line to the transaction logs.
func (c *Context) Log(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	c.rec.logs = append(c.rec.logs, fmt.Sprintf("Program %s log: %s", c.frame.program, line))
	c.rt.logger.Debug("program log", "program", c.frame.program.String(), "message", line)
}

// Emit queues an event. It is delivered only if the transaction commits.
func (c *Context) Emit(evt *types.Event) {
	if evt == nil {
		return
	}
	if evt.Program == "" {
		evt.Program = c.frame.program.String()
	}
	c.rec.events = append(c.rec.events, evt)
}

// Invoke calls another program with the caller's privileges.
func (c *Context) Invoke(ix types.Instruction) error {
	return c.InvokeSigned(ix)
}

// InvokeSigned calls another program. Each seed set is turned into a program
// derived address of the calling program; those addresses count as signers of
// the call. The callee may only see accounts the caller holds, and may not
// gain writable or signer privileges the caller lacks.
func (c *Context) InvokeSigned(ix types.Instruction, signerSeeds ...[][]byte) error {
	if c.depth+1 >= MaxInvokeDepth {
		return ErrCallDepth
	}
	program, ok := c.rt.program(ix.ProgramID)
	if !ok {
		return ErrUnsupportedProgram
	}
	if c.frame.lookup(ix.ProgramID) == nil {
		return fmt.Errorf("%w: program %s", ErrMissingAccount, ix.ProgramID)
	}
	derived := make(map[solana.PublicKey]struct{}, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := solana.CreateProgramAddress(seeds, c.frame.program)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
		}
		derived[addr] = struct{}{}
	}
	infos := make([]*AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		held := c.frame.lookup(meta.PublicKey)
		if held == nil {
			return fmt.Errorf("%w: %s", ErrMissingAccount, meta.PublicKey)
		}
		if meta.IsWritable && !c.frame.writable(meta.PublicKey) {
			return fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, meta.PublicKey)
		}
		if meta.IsSigner && !c.frame.signer(meta.PublicKey) {
			if _, ok := derived[meta.PublicKey]; !ok {
				return fmt.Errorf("%w: %s did not sign", ErrPrivilegeEscalation, meta.PublicKey)
			}
		}
		infos[i] = &AccountInfo{
			key:      meta.PublicKey,
			signer:   meta.IsSigner,
			writable: meta.IsWritable,
			acc:      held.acc,
		}
	}
	// The caller's own changes are checked before the callee can build on them.
	if err := c.frame.verify(); err != nil {
		return err
	}
	callee := newFrame(ix.ProgramID, infos)
	child := &Context{
		ctx:   c.ctx,
		rt:    c.rt,
		ws:    c.ws,
		frame: callee,
		depth: c.depth + 1,
		rec:   c.rec,
	}
	if err := program.Process(child, infos, ix.Data); err != nil {
		return err
	}
	if err := callee.verify(); err != nil {
		return err
	}
	c.frame.snapshot()
	return nil
}
