package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vsaulue/Gustave-sub000/internal/persistence/snapshot"
)

const snapSuffix = ".snap.zst"

type Meta struct {
	Label     string `json:"label"`
	Seq       uint64 `json:"seq"`
	Blocks    int    `json:"blocks"`
	Snapshot  string `json:"snapshot"`
	CreatedAt string `json:"created_at"`
}

// SnapshotPath is where Save puts the snapshot taken at seq.
func SnapshotPath(dataDir string, seq uint64) string {
	return filepath.Join(dataDir, "snapshots", fmt.Sprintf("%d%s", seq, snapSuffix))
}

// Save writes snap under `dataDir/snapshots/`, named after its sequence number.
func Save(dataDir string, snap snapshot.SnapshotV1) (string, error) {
	path := SnapshotPath(dataDir, snap.Header.Seq)
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return "", err
	}
	return path, nil
}

// Latest returns the saved snapshot with the highest sequence number, or ""
// when there is none.
func Latest(dataDir string) string {
	dir := filepath.Join(dataDir, "snapshots")
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestSeq uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, snapSuffix) {
			continue
		}
		seq, err := strconv.ParseUint(strings.TrimSuffix(name, snapSuffix), 10, 64)
		if err != nil {
			continue
		}
		if best == "" || seq > bestSeq {
			bestSeq = seq
			best = filepath.Join(dir, name)
		}
	}
	return best
}

// Archive copies a saved snapshot into `dataDir/archives/<label>/` next to a
// meta.json describing it.
func Archive(dataDir, label, snapshotPath string, snap snapshot.SnapshotV1) (string, error) {
	if label == "" || strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return "", fmt.Errorf("archive: bad label %q", label)
	}
	archiveDir := filepath.Join(dataDir, "archives", label)
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", err
	}

	meta := Meta{
		Label:     label,
		Seq:       snap.Header.Seq,
		Blocks:    len(snap.Blocks),
		Snapshot:  filepath.Base(dst),
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
