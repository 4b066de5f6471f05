package donuts

import (
	"fmt"
)

// MatcapMaterial is shared by pointer between every mesh drawn with it, so
// swapping its texture changes all of them at once.
type MatcapMaterial struct {
	Key     string
	Texture AssetId
}

// NewMatcapMaterial resolves key through the asset server.
func NewMatcapMaterial(assets *AssetServer, key string) (*MatcapMaterial, error) {
	m := &MatcapMaterial{}
	if err := m.SetMatcap(assets, key); err != nil {
		return nil, err
	}
	return m, nil
}

// SetMatcap points the material at another matcap. On error the material is
// left unchanged.
func (m *MatcapMaterial) SetMatcap(assets *AssetServer, key string) error {
	id, err := assets.Matcap(key)
	if err != nil {
		return fmt.Errorf("setting matcap: %w", err)
	}
	m.Key = key
	m.Texture = id
	return nil
}

// MeshComponent references geometry registered in the AssetServer.
type MeshComponent struct {
	Mesh AssetId
}

type MaterialComponent struct {
	Material *MatcapMaterial
}
