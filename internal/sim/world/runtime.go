package world

import (
	"context"
	"errors"
	"log"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
)

var ErrStopped = errors.New("world runtime stopped")

// Runtime owns a World inside its Run goroutine. Other goroutines (the
// websocket handlers) reach it through request channels.
type Runtime struct {
	w   *World
	log *log.Logger

	edits      chan editReq
	blocks     chan blockReq
	structures chan structureReq
	exports    chan exportReq
	stop       chan struct{}
	done       chan struct{}
}

type editReq struct {
	tx   *scene.Transaction
	resp chan editResp
}

type editResp struct {
	res scene.TransactionResult
	err error
}

type blockReq struct {
	pos  grid.BlockIndex
	resp chan blockResp
}

type blockResp struct {
	detail BlockDetail
	err    error
}

type structureReq struct {
	id   scene.StructureID
	resp chan structureResp
}

type structureResp struct {
	detail StructureDetail
	err    error
}

type exportReq struct {
	resp chan exportResp
}

type exportResp struct {
	seq    uint64
	blocks []scene.Block
}

func NewRuntime(w *World, logger *log.Logger) *Runtime {
	return &Runtime{
		w:          w,
		log:        logger,
		edits:      make(chan editReq, 64),
		blocks:     make(chan blockReq, 64),
		structures: make(chan structureReq, 64),
		exports:    make(chan exportReq, 4),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Config is immutable and safe to read from any goroutine.
func (r *Runtime) Config() Config { return r.w.Config() }

func (r *Runtime) Run(ctx context.Context) error {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case req := <-r.edits:
			res, err := r.w.Modify(req.tx)
			if err != nil && r.log != nil {
				r.log.Printf("edit rejected: %v", err)
			}
			req.resp <- editResp{res: res, err: err}
		case req := <-r.blocks:
			d, err := r.w.DescribeBlock(req.pos)
			req.resp <- blockResp{detail: d, err: err}
		case req := <-r.structures:
			d, err := r.w.DescribeStructure(req.id)
			req.resp <- structureResp{detail: d, err: err}
		case req := <-r.exports:
			req.resp <- exportResp{seq: r.w.Seq(), blocks: r.w.Blocks()}
		}
	}
}

func (r *Runtime) Stop() { close(r.stop) }

// Edit applies tx on the world goroutine.
func (r *Runtime) Edit(ctx context.Context, tx *scene.Transaction) (scene.TransactionResult, error) {
	resp := make(chan editResp, 1)
	v, err := roundTrip(ctx, r, r.edits, editReq{tx: tx, resp: resp}, resp)
	return v.res, firstErr(err, v.err)
}

func (r *Runtime) QueryBlock(ctx context.Context, pos grid.BlockIndex) (BlockDetail, error) {
	resp := make(chan blockResp, 1)
	v, err := roundTrip(ctx, r, r.blocks, blockReq{pos: pos, resp: resp}, resp)
	return v.detail, firstErr(err, v.err)
}

func (r *Runtime) QueryStructure(ctx context.Context, id scene.StructureID) (StructureDetail, error) {
	resp := make(chan structureResp, 1)
	v, err := roundTrip(ctx, r, r.structures, structureReq{id: id, resp: resp}, resp)
	return v.detail, firstErr(err, v.err)
}

// Export returns every block of the world, sorted by index, with the
// sequence number of the last applied transaction.
func (r *Runtime) Export(ctx context.Context) (seq uint64, blocks []scene.Block, err error) {
	resp := make(chan exportResp, 1)
	v, err := roundTrip(ctx, r, r.exports, exportReq{resp: resp}, resp)
	return v.seq, v.blocks, err
}

func roundTrip[Req, Resp any](ctx context.Context, r *Runtime, ch chan<- Req, req Req, resp <-chan Resp) (Resp, error) {
	var zero Resp
	select {
	case ch <- req:
	case <-r.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case v := <-resp:
		return v, nil
	case <-r.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
