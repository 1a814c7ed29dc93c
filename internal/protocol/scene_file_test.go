package protocol

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

const bridgeScene = `{
  "block_size": [1, 1, 1],
  "gravity": [0, -10, 0],
  "materials": {
    "concrete": {"mass": 3000, "max_stress": {"compression": 20e6, "shear": 14e6, "tensile": 2e6}}
  },
  "blocks": [
    {"pos": [0, 0, 0], "material": "concrete", "foundation": true},
    {"pos": [0, 1, 0], "material": "concrete"},
    {"pos": [1, 1, 0], "material": "concrete"}
  ]
}`

func TestParseSceneFile(t *testing.T) {
	f, err := ParseSceneFile([]byte(bridgeScene))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Size() != (scene.BlockSize{X: 1, Y: 1, Z: 1}) {
		t.Fatalf("block size: %+v", f.Size())
	}
	if g := f.GravityOr(units.Vec(0, -1, 0)); g != units.Vec(0, -10, 0) {
		t.Fatalf("gravity: %+v", g)
	}
	tx, err := f.Transaction()
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	added := tx.Added()
	if len(added) != 3 || !added[0].IsFoundation || added[1].Index != grid.Idx(0, 1, 0) || added[2].Mass != 3000 {
		t.Fatalf("unexpected blocks %+v", added)
	}
}

func TestParseSceneFile_SchemaErrors(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"missing blocks":   `{"block_size":[1,1,1],"materials":{"a":{"mass":1,"max_stress":{"compression":1,"shear":1,"tensile":1}}}}`,
		"zero block size":  `{"block_size":[1,0,1],"materials":{"a":{"mass":1,"max_stress":{"compression":1,"shear":1,"tensile":1}}},"blocks":[]}`,
		"negative stress":  `{"block_size":[1,1,1],"materials":{"a":{"mass":1,"max_stress":{"compression":-1,"shear":1,"tensile":1}}},"blocks":[]}`,
		"fractional pos":   `{"block_size":[1,1,1],"materials":{"a":{"mass":1,"max_stress":{"compression":1,"shear":1,"tensile":1}}},"blocks":[{"pos":[0.5,0,0],"material":"a"}]}`,
		"unknown property": `{"block_size":[1,1,1],"materials":{"a":{"mass":1,"max_stress":{"compression":1,"shear":1,"tensile":1}}},"blocks":[],"extra":1}`,
	}
	for name, doc := range cases {
		if _, err := ParseSceneFile([]byte(doc)); !errors.Is(err, ErrInvalidScene) {
			t.Fatalf("%s: expected ErrInvalidScene, got %v", name, err)
		}
	}
}

func TestSceneFile_UnknownMaterialAndDuplicates(t *testing.T) {
	f, err := ParseSceneFile([]byte(`{"block_size":[1,1,1],"materials":{"a":{"mass":1,"max_stress":{"compression":1,"shear":1,"tensile":1}}},"blocks":[{"pos":[0,0,0],"material":"b"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := f.Transaction(); !errors.Is(err, ErrUnknownMaterial) {
		t.Fatalf("expected ErrUnknownMaterial, got %v", err)
	}

	f.Blocks = []SceneBlock{{Pos: [3]int64{0, 0, 0}, Material: "a"}, {Pos: [3]int64{0, 0, 0}, Material: "a"}}
	if _, err := f.Transaction(); !errors.Is(err, scene.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestSceneFileFromBlocks_RoundTrip(t *testing.T) {
	f, err := ParseSceneFile([]byte(bridgeScene))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tx, _ := f.Transaction()
	sc, err := scene.New(f.Size())
	if err != nil {
		t.Fatalf("scene: %v", err)
	}
	if _, err := sc.Modify(tx); err != nil {
		t.Fatalf("modify: %v", err)
	}

	out := SceneFileFromBlocks(sc.BlockSize(), units.Vec(0, -10, 0), sc.Blocks())
	if len(out.Materials) != 1 || len(out.Blocks) != 3 {
		t.Fatalf("unexpected export %+v", out)
	}
	path := filepath.Join(t.TempDir(), "scene.json")
	b, err := out.MarshalIndent()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := LoadSceneFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(back.Blocks) != 3 || back.Blocks[0].Material != "m0" || !back.Blocks[0].Foundation {
		t.Fatalf("unexpected reload %+v", back)
	}
}

func TestEditMsg_Transaction(t *testing.T) {
	m := EditMsg{
		ReqID:  "r9",
		Remove: [][3]int64{{1, 1, 1}},
		Add: []BlockSpec{
			{Pos: [3]int64{2, 2, 2}, Mass: 0},
		},
	}
	if _, err := m.Transaction(); !errors.Is(err, scene.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
	m.Add = nil
	tx, err := m.Transaction()
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if len(tx.Removed()) != 1 || tx.Removed()[0] != grid.Idx(1, 1, 1) {
		t.Fatalf("unexpected removals %v", tx.Removed())
	}
}
