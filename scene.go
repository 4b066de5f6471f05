package donuts

import (
	"fmt"

	"github.com/gekko3d/donuts/render/core"
)

// SceneDef defines the initial state of the demo scene.
type SceneDef struct {
	Text      TextDef
	Donuts    DonutsDef
	MatcapKey string
}

// TextDef defines the centred 3D text mesh.
type TextDef struct {
	Content string
	Options core.TextOptions
}

// DonutsDef defines the torus shared by every instance and how many of them
// to spawn.
type DonutsDef struct {
	Torus core.TorusOptions
	Count int
}

func SceneFromConfig(cfg Config) SceneDef {
	return SceneDef{
		Text: TextDef{
			Content: cfg.Text.Content,
			Options: cfg.TextOptions(),
		},
		Donuts: DonutsDef{
			Torus: cfg.TorusOptions(),
			Count: cfg.Instances.Initial,
		},
		MatcapKey: cfg.Assets.MatcapKeys[0],
	}
}

// Scene is what LoadScene spawned.
type Scene struct {
	Material *MatcapMaterial
	Text     EntityId
	TextMesh AssetId
	Torus    AssetId
}

// LoadScene builds the meshes, the shared material, the text entity and
// fills the pool. Assets must be loaded.
func LoadScene(cmd *Commands, assets *AssetServer, graph *SceneGraph, pool *InstancePool, def SceneDef) (*Scene, error) {
	material, err := NewMatcapMaterial(assets, def.MatcapKey)
	if err != nil {
		return nil, err
	}

	f := assets.Font()
	if f == nil {
		return nil, fmt.Errorf("font: %w", ErrAssetNotFound)
	}
	text, err := core.NewTextGeometry(f, def.Text.Content, def.Text.Options)
	if err != nil {
		return nil, fmt.Errorf("building text: %w", err)
	}
	text.Center()

	torus, err := core.NewTorusGeometry(def.Donuts.Torus)
	if err != nil {
		return nil, fmt.Errorf("building torus: %w", err)
	}

	scene := &Scene{
		Material: material,
		TextMesh: assets.AddMesh("text", text),
		Torus:    assets.AddMesh("torus", torus),
	}
	scene.Text = spawnMesh(cmd, scene.TextMesh, material)
	graph.Attach(scene.Text)

	if err := pool.InitialFill(cmd, def.Donuts.Count, scene.Torus, material); err != nil {
		return nil, err
	}
	return scene, nil
}

func spawnMesh(cmd *Commands, mesh AssetId, material *MatcapMaterial) EntityId {
	tr := IdentityTransform()
	return cmd.AddEntity(
		&tr,
		&LocalTransformComponent{Rotation: tr.Rotation, Scale: tr.Scale},
		&MeshComponent{Mesh: mesh},
		&MaterialComponent{Material: material},
	)
}
