// build.go walks a function's statement body and emits the basic-block graph. Grounded on
// the ir/lir control-flow helpers this repository started from (CreateConditionalBranch /
// CreateBranch in src/ir/lir/block.go) for the general shape of "terminate current block,
// wire a new target, continue emitting into it"; the specific statement-to-block rules
// (TEST producing two successors, WHILE/UNTIL a loop header, labels as block boundaries)
// are this package's own extension, since VSL itself has no class/label/loop
// surface rich enough to ground those individually.
package cfg

import "bcplfe/src/ir"

// builder holds the mutable state threaded through one function's CFG construction.
type builder struct {
	g       *ControlFlowGraph
	cur     *BasicBlock
	labels  map[string]*BasicBlock // Declared label name -> its block, created on first sight.
	breaks  []*BasicBlock          // Stack of "break" targets, one per enclosing loop/switch.
	loops   []*BasicBlock          // Stack of "loop" (continue) targets, one per enclosing loop.
	endcase []*BasicBlock          // Stack of ENDCASE targets, one per enclosing SWITCHON.
}

// Build constructs the control-flow graph for one function's statement body.
// name identifies the function for diagnostics and the exported artifact.
func Build(name string, body []*ir.Node) *ControlFlowGraph {
	g := &ControlFlowGraph{Function: name}
	b := &builder{g: g, labels: make(map[string]*BasicBlock)}
	g.Entry = g.newBlock()
	b.cur = g.Entry
	for _, stmt := range body {
		b.emit(stmt)
	}
	g.Exit = b.cur
	return g
}

func (b *builder) labelBlock(name string) *BasicBlock {
	if blk, ok := b.labels[name]; ok {
		return blk
	}
	blk := b.g.newBlock()
	blk.Label = name
	b.labels[name] = blk
	return blk
}

// emit appends stmt's effect to the builder's current block, splitting into new blocks for
// control-flow constructs.
func (b *builder) emit(stmt *ir.Node) {
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ir.LabelTarget, ir.LabelDeclaration:
		target := b.labelBlock(stmt.Name)
		link(b.cur, target)
		b.cur = target

	case ir.IfStatement, ir.UnlessStatement:
		cond, body := stmt.Children[0], stmt.Children[1]
		b.cur.addStatement(cond)
		thenBlk := b.g.newBlock()
		join := b.g.newBlock()
		if stmt.Kind == ir.IfStatement {
			link(b.cur, thenBlk)
			link(b.cur, join)
		} else {
			// UNLESS inverts the branch: body runs when the condition is false.
			link(b.cur, join)
			link(b.cur, thenBlk)
		}
		b.cur = thenBlk
		b.emit(body)
		link(b.cur, join)
		b.cur = join

	case ir.TestStatement:
		cond, thenBody, elseBody := stmt.Children[0], stmt.Children[1], stmt.Children[2]
		b.cur.addStatement(cond)
		thenBlk, elseBlk, join := b.g.newBlock(), b.g.newBlock(), b.g.newBlock()
		link(b.cur, thenBlk)
		link(b.cur, elseBlk)
		b.cur = thenBlk
		b.emit(thenBody)
		link(b.cur, join)
		b.cur = elseBlk
		b.emit(elseBody)
		link(b.cur, join)
		b.cur = join

	case ir.WhileStatement, ir.UntilStatement:
		cond, body := stmt.Children[0], stmt.Children[1]
		header := b.g.newBlock()
		link(b.cur, header)
		b.cur = header
		header.addStatement(cond)
		bodyBlk, exit := b.g.newBlock(), b.g.newBlock()
		if stmt.Kind == ir.WhileStatement {
			link(header, bodyBlk)
			link(header, exit)
		} else {
			link(header, exit)
			link(header, bodyBlk)
		}
		b.pushLoop(header, exit)
		b.cur = bodyBlk
		b.emit(body)
		link(b.cur, header)
		b.popLoop()
		b.cur = exit

	case ir.RepeatStatement:
		b.emitRepeat(stmt)

	case ir.ForStatement, ir.ForEachStatement:
		b.emitFor(stmt)

	case ir.SwitchonStatement:
		b.emitSwitchon(stmt)

	case ir.GotoStatement:
		b.cur.addStatement(stmt)
		target := b.labelBlock(stmt.Name)
		link(b.cur, target)
		b.cur = b.g.newBlock() // Unreachable-until-a-label continuation block.

	case ir.ReturnStatement, ir.FinishStatement, ir.ResultisStatement:
		b.cur.addStatement(stmt)
		b.cur = b.g.newBlock()

	case ir.BreakStatement:
		b.cur.addStatement(stmt)
		if len(b.breaks) > 0 {
			link(b.cur, b.breaks[len(b.breaks)-1])
		}
		b.cur = b.g.newBlock()

	case ir.LoopStatement:
		b.cur.addStatement(stmt)
		if len(b.loops) > 0 {
			link(b.cur, b.loops[len(b.loops)-1])
		}
		b.cur = b.g.newBlock()

	case ir.EndcaseStatement:
		b.cur.addStatement(stmt)
		if len(b.endcase) > 0 {
			link(b.cur, b.endcase[len(b.endcase)-1])
		}
		b.cur = b.g.newBlock()

	case ir.BlockStatement, ir.CompoundStatement:
		for _, c := range stmt.Children {
			b.emit(c)
		}

	default:
		b.cur.addStatement(stmt)
	}
}

func (b *builder) pushLoop(header, exit *BasicBlock) {
	b.loops = append(b.loops, header)
	b.breaks = append(b.breaks, exit)
}

func (b *builder) popLoop() {
	b.loops = b.loops[:len(b.loops)-1]
	b.breaks = b.breaks[:len(b.breaks)-1]
}

// emitRepeat handles REPEAT / REPEATWHILE / REPEATUNTIL.
func (b *builder) emitRepeat(stmt *ir.Node) {
	body := stmt.Children[0]
	bodyBlk, exit := b.g.newBlock(), b.g.newBlock()
	link(b.cur, bodyBlk)
	b.pushLoop(bodyBlk, exit)
	b.cur = bodyBlk
	b.emit(body)
	if stmt.LoopType == ir.RepeatLoop {
		link(b.cur, bodyBlk)
	} else {
		cond := stmt.Children[1]
		b.cur.addStatement(cond)
		if stmt.LoopType == ir.RepeatWhile {
			link(b.cur, bodyBlk)
			link(b.cur, exit)
		} else {
			link(b.cur, exit)
			link(b.cur, bodyBlk)
		}
	}
	b.popLoop()
	b.cur = exit
}

// emitFor handles FOR and FOREACH, both of which are single-entry, single-exit loops whose
// header evaluates the iteration bound or iterator-exhaustion check.
func (b *builder) emitFor(stmt *ir.Node) {
	header := b.g.newBlock()
	link(b.cur, header)
	header.addStatement(stmt)
	bodyBlk, exit := b.g.newBlock(), b.g.newBlock()
	link(header, bodyBlk)
	link(header, exit)
	b.pushLoop(header, exit)
	b.cur = bodyBlk
	body := stmt.Children[len(stmt.Children)-1]
	b.emit(body)
	link(b.cur, header)
	b.popLoop()
	b.cur = exit
}

// emitSwitchon handles SWITCHON: the selector block branches to every CASE/DEFAULT body,
// all of which join at a common exit reached via ENDCASE or fallthrough.
func (b *builder) emitSwitchon(stmt *ir.Node) {
	selector := stmt.Children[0]
	b.cur.addStatement(selector)
	dispatch := b.cur
	exit := b.g.newBlock()
	b.endcase = append(b.endcase, exit)
	for _, clause := range stmt.Children[1:] {
		caseBlk := b.g.newBlock()
		link(dispatch, caseBlk)
		b.cur = caseBlk
		for _, s := range clause.Children {
			b.emit(s)
		}
		link(b.cur, exit)
	}
	b.endcase = b.endcase[:len(b.endcase)-1]
	b.cur = exit
}
