package donuts

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gekko3d/donuts/render/core"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

var ErrAssetNotFound = errors.New("asset not found")

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

// TextureAsset is a decoded image in tightly packed RGBA8 rows.
type TextureAsset struct {
	Name  string
	Image *image.RGBA
}

type MeshAsset struct {
	Name     string
	Geometry *core.Geometry
}

// AssetServer holds textures, meshes and the font. Matcap textures are
// registered under fixed keys; everything else is looked up by AssetId.
type AssetServer struct {
	mu       sync.RWMutex
	meshes   map[AssetId]MeshAsset
	textures map[AssetId]TextureAsset
	matcaps  map[string]AssetId
	font     *opentype.Font
}

func NewAssetServer() *AssetServer {
	return &AssetServer{
		meshes:   make(map[AssetId]MeshAsset),
		textures: make(map[AssetId]TextureAsset),
		matcaps:  make(map[string]AssetId),
	}
}

type AssetServerModule struct{}

func (AssetServerModule) Install(app *App, cmd *Commands) {
	cmd.AddResources(NewAssetServer())
}

func (server *AssetServer) AddMesh(name string, g *core.Geometry) AssetId {
	id := makeAssetId()
	server.mu.Lock()
	server.meshes[id] = MeshAsset{Name: name, Geometry: g}
	server.mu.Unlock()
	return id
}

func (server *AssetServer) Mesh(id AssetId) (MeshAsset, error) {
	server.mu.RLock()
	defer server.mu.RUnlock()
	m, ok := server.meshes[id]
	if !ok {
		return MeshAsset{}, fmt.Errorf("mesh %s: %w", id, ErrAssetNotFound)
	}
	return m, nil
}

func (server *AssetServer) AddTexture(name string, img image.Image) AssetId {
	id := makeAssetId()
	server.mu.Lock()
	server.textures[id] = TextureAsset{Name: name, Image: toRGBA(img)}
	server.mu.Unlock()
	return id
}

func (server *AssetServer) Texture(id AssetId) (TextureAsset, error) {
	server.mu.RLock()
	defer server.mu.RUnlock()
	t, ok := server.textures[id]
	if !ok {
		return TextureAsset{}, fmt.Errorf("texture %s: %w", id, ErrAssetNotFound)
	}
	return t, nil
}

// LoadTexture decodes a PNG or WebP file.
func (server *AssetServer) LoadTexture(path string) (AssetId, error) {
	img, err := decodeImage(path)
	if err != nil {
		return "", err
	}
	return server.AddTexture(filepath.Base(path), img), nil
}

// AddMatcap registers a texture under a matcap key.
func (server *AssetServer) AddMatcap(key string, img image.Image) AssetId {
	id := server.AddTexture("matcap:"+key, img)
	server.mu.Lock()
	server.matcaps[key] = id
	server.mu.Unlock()
	return id
}

// Matcap resolves a matcap key to its texture.
func (server *AssetServer) Matcap(key string) (AssetId, error) {
	server.mu.RLock()
	defer server.mu.RUnlock()
	id, ok := server.matcaps[key]
	if !ok {
		return "", fmt.Errorf("matcap %q: %w", key, ErrAssetNotFound)
	}
	return id, nil
}

// MatcapKeys returns the registered keys, shorter keys first, so numeric
// keys sort by value ("2" before "10").
func (server *AssetServer) MatcapKeys() []string {
	server.mu.RLock()
	keys := make([]string, 0, len(server.matcaps))
	for k := range server.matcaps {
		keys = append(keys, k)
	}
	server.mu.RUnlock()
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
	})
	return keys
}

func (server *AssetServer) SetFont(f *opentype.Font) {
	server.mu.Lock()
	server.font = f
	server.mu.Unlock()
}

// Font returns the loaded font, or nil before loading finished.
func (server *AssetServer) Font() *opentype.Font {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return server.font
}

func decodeImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening texture: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decoding texture %s: %w", path, err)
	}
	return img, nil
}

// toRGBA returns img as an RGBA image whose bounds start at the origin.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// matcapPath prefers <dir>/<key>.png and falls back to a WebP file.
func matcapPath(dir, key string) string {
	png := filepath.Join(dir, key+".png")
	if fileExists(png) {
		return png
	}
	if webp := filepath.Join(dir, key+".webp"); fileExists(webp) {
		return webp
	}
	return png
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func loadFont(path string) (*opentype.Font, error) {
	data := goregular.TTF
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("reading font: %w", err)
		}
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %q: %w", path, err)
	}
	return f, nil
}

// AssetManifest lists what LoadAsync fetches.
type AssetManifest struct {
	TextureDir string
	MatcapKeys []string
	FontPath   string
}

func ManifestFromConfig(cfg AssetsConfig) AssetManifest {
	return AssetManifest{
		TextureDir: cfg.TextureDir,
		MatcapKeys: slices.Clone(cfg.MatcapKeys),
		FontPath:   cfg.FontPath,
	}
}

// AssetLoad is the completion signal of an asynchronous load.
type AssetLoad struct {
	done chan struct{}
	err  error
}

// Done is closed once every asset was loaded or one of them failed.
func (l *AssetLoad) Done() <-chan struct{} {
	return l.done
}

// Err is valid after Done is closed.
func (l *AssetLoad) Err() error {
	<-l.done
	return l.err
}

// Ready reports completion without blocking.
func (l *AssetLoad) Ready() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *AssetLoad) Wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadAsync decodes every matcap and the font concurrently. Assets are
// published to the server before Done closes; on failure nothing is
// published.
func (server *AssetServer) LoadAsync(ctx context.Context, manifest AssetManifest) *AssetLoad {
	load := &AssetLoad{done: make(chan struct{})}

	go func() {
		defer close(load.done)

		g, gctx := errgroup.WithContext(ctx)
		images := make([]image.Image, len(manifest.MatcapKeys))
		for i, key := range manifest.MatcapKeys {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				img, err := decodeImage(matcapPath(manifest.TextureDir, key))
				if err != nil {
					return fmt.Errorf("matcap %q: %w", key, err)
				}
				images[i] = img
				return nil
			})
		}

		var f *opentype.Font
		g.Go(func() error {
			var err error
			f, err = loadFont(manifest.FontPath)
			return err
		})

		if err := g.Wait(); err != nil {
			load.err = err
			return
		}
		for i, key := range manifest.MatcapKeys {
			server.AddMatcap(key, images[i])
		}
		server.SetFont(f)
	}()

	return load
}
