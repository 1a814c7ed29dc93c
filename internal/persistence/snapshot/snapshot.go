package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
	"github.com/vsaulue/Gustave-sub000/internal/sim/world"
)

const Version = 1

var ErrMismatch = errors.New("snapshot does not match world")

type Header struct {
	Version   int        `json:"version"`
	Seq       uint64     `json:"seq"`
	BlockSize [3]float64 `json:"block_size"`
	Gravity   [3]float64 `json:"gravity"`
	Blocks    int        `json:"blocks"`
}

type SnapshotV1 struct {
	Header Header    `json:"header"`
	Blocks []BlockV1 `json:"blocks"`
}

type BlockV1 struct {
	Pos        [3]int64 `json:"pos"`
	Mass       float64  `json:"mass"`
	Compress   float64  `json:"compression"`
	Shear      float64  `json:"shear"`
	Tensile    float64  `json:"tensile"`
	Foundation bool     `json:"foundation,omitempty"`
}

// Export captures every block of w. Structures are not stored: they are
// rebuilt by Import.
func Export(w *world.World) SnapshotV1 {
	return FromBlocks(w.Config(), w.Seq(), w.Blocks())
}

func FromBlocks(cfg world.Config, seq uint64, blocks []scene.Block) SnapshotV1 {
	snap := SnapshotV1{
		Header: Header{
			Version: Version,
			Seq:     seq,
			BlockSize: [3]float64{
				float64(cfg.BlockSize.X), float64(cfg.BlockSize.Y), float64(cfg.BlockSize.Z),
			},
			Gravity: cfg.Solver.G.Array(),
			Blocks:  len(blocks),
		},
		Blocks: make([]BlockV1, 0, len(blocks)),
	}
	for _, b := range blocks {
		snap.Blocks = append(snap.Blocks, BlockV1{
			Pos:        b.Index.ToArray(),
			Mass:       float64(b.Mass),
			Compress:   float64(b.MaxStress.Compression),
			Shear:      float64(b.MaxStress.Shear),
			Tensile:    float64(b.MaxStress.Tensile),
			Foundation: b.IsFoundation,
		})
	}
	return snap
}

// Transaction rebuilds the blocks as a single transaction.
func (s SnapshotV1) Transaction() (*scene.Transaction, error) {
	tx := scene.NewTransaction()
	for _, b := range s.Blocks {
		err := tx.AddBlock(scene.BlockInfo{
			Index: grid.FromArray(b.Pos),
			Mass:  units.Mass(b.Mass),
			MaxStress: model.PressureStress{
				Compression: units.Pressure(b.Compress),
				Shear:       units.Pressure(b.Shear),
				Tensile:     units.Pressure(b.Tensile),
			},
			IsFoundation: b.Foundation,
		})
		if err != nil {
			return nil, fmt.Errorf("snapshot: %w", err)
		}
	}
	return tx, nil
}

// Import replays snap into w, which must share its block size. The replay is
// numbered after snap's sequence, so snapshots saved later sort after snap.
func Import(w *world.World, snap SnapshotV1) (scene.TransactionResult, error) {
	if snap.Header.Version != Version {
		return scene.TransactionResult{}, fmt.Errorf("snapshot version %d: %w", snap.Header.Version, ErrMismatch)
	}
	bs := w.Config().BlockSize
	if snap.Header.BlockSize != [3]float64{float64(bs.X), float64(bs.Y), float64(bs.Z)} {
		return scene.TransactionResult{}, fmt.Errorf("block size %v: %w", snap.Header.BlockSize, ErrMismatch)
	}
	tx, err := snap.Transaction()
	if err != nil {
		return scene.TransactionResult{}, err
	}
	return w.Replay(tx, snap.Header.Seq)
}

func WriteSnapshot(path string, snap SnapshotV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return enc.Close()
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	if _, err := ReadHeader(br); err != nil {
		return snap, err
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

// ReadHeader parses the JSON line preceding the gob payload.
func ReadHeader(br *bufio.Reader) (Header, error) {
	var h Header
	line, err := br.ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}

// ReadSnapshotHeader decodes only the header line of the snapshot at path.
func ReadSnapshotHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Header{}, err
	}
	defer dec.Close()
	return ReadHeader(bufio.NewReader(dec))
}

// WorldConfig returns base with the block size and gravity recorded in h.
func (h Header) WorldConfig(base world.Config) world.Config {
	base.BlockSize = scene.BlockSize{
		X: units.Length(h.BlockSize[0]),
		Y: units.Length(h.BlockSize[1]),
		Z: units.Length(h.BlockSize[2]),
	}
	base.Solver.G = units.FromArray(h.Gravity)
	return base
}
