package protocol

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/vsaulue/Gustave-sub000/internal/sim/grid"
	"github.com/vsaulue/Gustave-sub000/internal/sim/model"
	"github.com/vsaulue/Gustave-sub000/internal/sim/scene"
	"github.com/vsaulue/Gustave-sub000/internal/sim/units"
)

//go:embed schemas/scene.schema.json
var sceneSchemaJSON string

var sceneSchema = jsonschema.MustCompileString("scene.schema.json", sceneSchemaJSON)

var (
	ErrInvalidScene    = errors.New("invalid scene file")
	ErrUnknownMaterial = errors.New("unknown material")
)

// SceneFile is the JSON description of a whole scene.
type SceneFile struct {
	BlockSize [3]float64          `json:"block_size"`
	Gravity   *[3]float64         `json:"gravity,omitempty"`
	Materials map[string]Material `json:"materials"`
	Blocks    []SceneBlock        `json:"blocks"`
}

type Material struct {
	Mass      float64              `json:"mass"`
	MaxStress model.PressureStress `json:"max_stress"`
}

type SceneBlock struct {
	Pos        [3]int64 `json:"pos"`
	Material   string   `json:"material"`
	Foundation bool     `json:"foundation,omitempty"`
}

// ParseSceneFile validates b against the scene schema, then decodes it.
func ParseSceneFile(b []byte) (SceneFile, error) {
	var f SceneFile
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if err := sceneSchema.Validate(raw); err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}
	return f, nil
}

func LoadSceneFile(path string) (SceneFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return SceneFile{}, err
	}
	f, err := ParseSceneFile(b)
	if err != nil {
		return f, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f SceneFile) Size() scene.BlockSize {
	return scene.BlockSize{
		X: units.Length(f.BlockSize[0]),
		Y: units.Length(f.BlockSize[1]),
		Z: units.Length(f.BlockSize[2]),
	}
}

// GravityOr returns the file's gravity, or def when the file has none.
func (f SceneFile) GravityOr(def units.Vector3) units.Vector3 {
	if f.Gravity == nil {
		return def
	}
	return units.FromArray(*f.Gravity)
}

// Transaction adds every block of the file.
func (f SceneFile) Transaction() (*scene.Transaction, error) {
	tx := scene.NewTransaction()
	for _, b := range f.Blocks {
		m, ok := f.Materials[b.Material]
		if !ok {
			return nil, fmt.Errorf("block %v: %w %q", b.Pos, ErrUnknownMaterial, b.Material)
		}
		err := tx.AddBlock(scene.BlockInfo{
			Index:        grid.FromArray(b.Pos),
			Mass:         units.Mass(m.Mass),
			MaxStress:    m.MaxStress,
			IsFoundation: b.Foundation,
		})
		if err != nil {
			return nil, err
		}
	}
	return tx, nil
}

// SceneFileFromBlocks names one material per distinct (mass, stress) pair,
// in block order: m0, m1, ...
func SceneFileFromBlocks(size scene.BlockSize, g units.Vector3, blocks []scene.Block) SceneFile {
	type key struct {
		mass   units.Mass
		stress model.PressureStress
	}
	gv := g.Array()
	f := SceneFile{
		BlockSize: [3]float64{float64(size.X), float64(size.Y), float64(size.Z)},
		Gravity:   &gv,
		Materials: map[string]Material{},
		Blocks:    make([]SceneBlock, 0, len(blocks)),
	}
	names := map[key]string{}
	for _, b := range blocks {
		k := key{b.Mass, b.MaxStress}
		name, ok := names[k]
		if !ok {
			name = fmt.Sprintf("m%d", len(names))
			names[k] = name
			f.Materials[name] = Material{Mass: float64(b.Mass), MaxStress: b.MaxStress}
		}
		f.Blocks = append(f.Blocks, SceneBlock{Pos: b.Index.ToArray(), Material: name, Foundation: b.IsFoundation})
	}
	return f
}

func (f SceneFile) MarshalIndent() ([]byte, error) { return json.MarshalIndent(f, "", "  ") }
