package donuts

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gekko3d/donuts/render/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMatcaps(t *testing.T, dir string, keys ...string) {
	t.Helper()
	for i, key := range keys {
		img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				img.Set(x, y, color.NRGBA{R: uint8(i * 40), G: 128, B: 255, A: 255})
			}
		}
		f, err := os.Create(filepath.Join(dir, key+".png"))
		require.NoError(t, err)
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
	}
}

func waitLoad(t *testing.T, load *AssetLoad) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := load.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}

func TestAssetServer_Matcaps(t *testing.T) {
	server := NewAssetServer()
	id := server.AddMatcap("2", image.NewRGBA(image.Rect(0, 0, 2, 2)))
	server.AddMatcap("1", image.NewRGBA(image.Rect(0, 0, 2, 2)))

	got, err := server.Matcap("2")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = server.Matcap("6")
	assert.ErrorIs(t, err, ErrAssetNotFound)

	assert.Equal(t, []string{"1", "2"}, server.MatcapKeys())

	tex, err := server.Texture(id)
	require.NoError(t, err)
	assert.Equal(t, "matcap:2", tex.Name)
}

func TestAssetServer_Meshes(t *testing.T) {
	server := NewAssetServer()
	g, err := core.NewTorusGeometry(core.TorusOptions{Radius: 1, Tube: 0.5, RadialSegments: 3, TubularSegments: 3})
	require.NoError(t, err)

	a := server.AddMesh("torus", g)
	b := server.AddMesh("torus", g)
	assert.NotEqual(t, a, b, "ids are unique per registration")

	mesh, err := server.Mesh(a)
	require.NoError(t, err)
	assert.Same(t, g, mesh.Geometry)

	_, err = server.Mesh("missing")
	assert.ErrorIs(t, err, ErrAssetNotFound)
	_, err = server.Texture("missing")
	assert.ErrorIs(t, err, ErrAssetNotFound)
}

func TestToRGBA_RebasesBounds(t *testing.T) {
	src := image.NewNRGBA(image.Rect(5, 5, 9, 7))
	src.Set(5, 5, color.NRGBA{R: 255, A: 255})

	rgba := toRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 4, 2), rgba.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, rgba.RGBAAt(0, 0))

	same := image.NewRGBA(image.Rect(0, 0, 1, 1))
	assert.Same(t, same, toRGBA(same))
}

func TestAssetServer_LoadTexture(t *testing.T) {
	dir := t.TempDir()
	writeMatcaps(t, dir, "m")

	server := NewAssetServer()
	id, err := server.LoadTexture(filepath.Join(dir, "m.png"))
	require.NoError(t, err)

	tex, err := server.Texture(id)
	require.NoError(t, err)
	assert.Equal(t, "m.png", tex.Name)
	assert.Equal(t, 8, tex.Image.Bounds().Dx())

	_, err = server.LoadTexture(filepath.Join(dir, "missing.png"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAssetServer_LoadAsync(t *testing.T) {
	dir := t.TempDir()
	keys := []string{"1", "2", "3", "4", "5"}
	writeMatcaps(t, dir, keys...)

	server := NewAssetServer()
	load := server.LoadAsync(context.Background(), AssetManifest{TextureDir: dir, MatcapKeys: keys})
	require.NoError(t, waitLoad(t, load))

	assert.True(t, load.Ready())
	assert.NoError(t, load.Err())
	assert.Equal(t, keys, server.MatcapKeys())
	assert.NotNil(t, server.Font(), "bundled font is used without a font path")

	for _, key := range keys {
		id, err := server.Matcap(key)
		require.NoError(t, err)
		tex, err := server.Texture(id)
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 8, 8), tex.Image.Bounds())
	}
}

func TestAssetServer_LoadAsyncFailurePublishesNothing(t *testing.T) {
	dir := t.TempDir()
	writeMatcaps(t, dir, "1", "2")

	server := NewAssetServer()
	load := server.LoadAsync(context.Background(), AssetManifest{TextureDir: dir, MatcapKeys: []string{"1", "2", "3"}})
	err := waitLoad(t, load)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `matcap "3"`)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, server.MatcapKeys())
	assert.Nil(t, server.Font())
}

func TestAssetServer_LoadAsyncBadFont(t *testing.T) {
	dir := t.TempDir()
	writeMatcaps(t, dir, "1")
	fontPath := filepath.Join(dir, "broken.ttf")
	require.NoError(t, os.WriteFile(fontPath, []byte("not a font"), 0o644))

	server := NewAssetServer()
	load := server.LoadAsync(context.Background(), AssetManifest{TextureDir: dir, MatcapKeys: []string{"1"}, FontPath: fontPath})
	assert.Error(t, waitLoad(t, load))
	assert.Empty(t, server.MatcapKeys())
}

func TestAssetServer_LoadAsyncCancelled(t *testing.T) {
	dir := t.TempDir()
	writeMatcaps(t, dir, "1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := NewAssetServer()
	load := server.LoadAsync(ctx, AssetManifest{TextureDir: dir, MatcapKeys: []string{"1"}})
	<-load.Done()
	assert.ErrorIs(t, load.Err(), context.Canceled)
	assert.Empty(t, server.MatcapKeys())
}

func TestManifestFromConfig(t *testing.T) {
	cfg := DefaultConfig().Assets
	m := ManifestFromConfig(cfg)
	assert.Equal(t, cfg.TextureDir, m.TextureDir)
	assert.Equal(t, cfg.MatcapKeys, m.MatcapKeys)

	m.MatcapKeys[0] = "changed"
	assert.Equal(t, "1", cfg.MatcapKeys[0])
}

func TestAssetServer_MatcapKeysNumericOrder(t *testing.T) {
	server := NewAssetServer()
	for _, key := range []string{"10", "2", "1", "b", "a"} {
		server.AddMatcap(key, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	}
	assert.Equal(t, []string{"1", "2", "a", "b", "10"}, server.MatcapKeys())
}
