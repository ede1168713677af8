// Package mapimage renders the map layers around the vehicle from image
// tiles in the asset folder.
//
// Tiles are PNG files named "<ix>_<iy>.png". Tile (ix, iy) covers the world
// square [ix*TileSize, (ix+1)*TileSize) x [iy*TileSize, (iy+1)*TileSize), with
// image row 0 on the northern edge. Darker pixels are more occupied.
package mapimage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/banshee-data/drive-visualizer/internal/fsutil"
	"github.com/banshee-data/drive-visualizer/internal/marker"
	"github.com/banshee-data/drive-visualizer/internal/monitoring"
	"github.com/banshee-data/drive-visualizer/internal/msgs"
	"github.com/banshee-data/drive-visualizer/internal/security"
)

var logf = monitoring.Prefixed("MapImage")

// Config controls tile geometry and the rendered grid.
type Config struct {
	TileSize          float64 `yaml:"tile_size"`          // metres per tile edge
	TilePixels        int     `yaml:"tile_pixels"`        // canonical raster edge
	Resolution        float64 `yaml:"resolution"`         // metres per grid cell
	Width             int     `yaml:"width"`              // grid cells east-west
	Height            int     `yaml:"height"`             // grid cells north-south
	CacheTiles        int     `yaml:"cache_tiles"`        // decoded tiles kept in memory
	OccupiedThreshold int8    `yaml:"occupied_threshold"` // point cloud cut-off, 0..100
}

// DefaultConfig returns 100 m tiles rendered into a 100 m x 100 m grid at
// 0.5 m.
func DefaultConfig() Config {
	return Config{
		TileSize:          100,
		TilePixels:        256,
		Resolution:        0.5,
		Width:             200,
		Height:            200,
		CacheTiles:        64,
		OccupiedThreshold: 50,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.TileSize <= 0:
		return fmt.Errorf("tile_size must be positive, got %v", c.TileSize)
	case c.TilePixels <= 0:
		return fmt.Errorf("tile_pixels must be positive, got %d", c.TilePixels)
	case c.Resolution <= 0:
		return fmt.Errorf("resolution must be positive, got %v", c.Resolution)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("grid size must be positive, got %dx%d", c.Width, c.Height)
	case c.CacheTiles <= 0:
		return fmt.Errorf("cache_tiles must be positive, got %d", c.CacheTiles)
	case c.OccupiedThreshold < 0 || c.OccupiedThreshold > 100:
		return fmt.Errorf("occupied_threshold must be within 0..100, got %d", c.OccupiedThreshold)
	}
	return nil
}

// TileKey identifies a tile by its grid index.
type TileKey struct {
	IX, IY int
}

// Name returns the tile's file name.
func (k TileKey) Name() string {
	return fmt.Sprintf("%d_%d.png", k.IX, k.IY)
}

// ParseTileName parses "<ix>_<iy>.png".
func ParseTileName(name string) (TileKey, bool) {
	stem, ok := strings.CutSuffix(filepath.Base(name), ".png")
	if !ok || len(stem) < 3 {
		return TileKey{}, false
	}
	// Split on the separator that follows the first number so "-1_-2"
	// parses.
	i := strings.Index(stem[1:], "_")
	if i < 0 {
		return TileKey{}, false
	}
	ix, err1 := strconv.Atoi(stem[:i+1])
	iy, err2 := strconv.Atoi(stem[i+2:])
	if err1 != nil || err2 != nil {
		return TileKey{}, false
	}
	return TileKey{IX: ix, IY: iy}, true
}

// Generator implements visualizer.MapRenderer over an asset folder.
type Generator struct {
	root string
	fsys fsutil.FileSystem
	cfg  Config

	mu    sync.Mutex
	cache map[TileKey]*image.Gray // nil value: tile absent or unreadable
	order []TileKey
}

// New returns a generator for the tiles under root.
func New(root string, fsys fsutil.FileSystem, cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	if !fsutil.IsDir(fsys, root) {
		return nil, fmt.Errorf("asset folder %q is not a directory", root)
	}
	return &Generator{
		root:  root,
		fsys:  fsys,
		cfg:   cfg,
		cache: make(map[TileKey]*image.Gray),
	}, nil
}

// Tiles lists the tiles present in the asset folder.
func (g *Generator) Tiles() ([]TileKey, error) {
	names, err := g.fsys.Glob(filepath.Join(g.root, "*_*.png"))
	if err != nil {
		return nil, err
	}
	var keys []TileKey
	for _, n := range names {
		if k, ok := ParseTileName(n); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// tile returns the decoded tile, or nil when it does not exist. Decode
// failures are logged once and the tile is treated as absent.
func (g *Generator) tile(k TileKey) (*image.Gray, error) {
	if img, ok := g.cache[k]; ok {
		return img, nil
	}

	path, err := security.ResolveWithin(g.root, k.Name())
	if err != nil {
		return nil, err
	}
	data, err := g.fsys.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		g.store(k, nil)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read tile %s: %w", k.Name(), err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logf("Ignoring tile %s: %v", k.Name(), err)
		g.store(k, nil)
		return nil, nil
	}
	dst := image.NewGray(image.Rect(0, 0, g.cfg.TilePixels, g.cfg.TilePixels))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	g.store(k, dst)
	return dst, nil
}

func (g *Generator) store(k TileKey, img *image.Gray) {
	if len(g.order) >= g.cfg.CacheTiles {
		delete(g.cache, g.order[0])
		g.order = g.order[1:]
	}
	g.cache[k] = img
	g.order = append(g.order, k)
}

// sample returns the occupancy 0..100 at a world position, or -1 where no
// tile exists.
func (g *Generator) sample(x, y float64) (int8, error) {
	ts := g.cfg.TileSize
	k := TileKey{IX: int(math.Floor(x / ts)), IY: int(math.Floor(y / ts))}
	img, err := g.tile(k)
	if err != nil || img == nil {
		return -1, err
	}
	n := g.cfg.TilePixels
	u := (x - float64(k.IX)*ts) / ts
	v := (y - float64(k.IY)*ts) / ts
	px := min(int(u*float64(n)), n-1)
	py := min(int((1-v)*float64(n)), n-1)
	darkness := 255 - int(img.GrayAt(px, py).Y)
	return int8((darkness*100 + 127) / 255), nil
}

// grid samples the cells around s. Cell (0, 0) is the south-west corner.
func (g *Generator) grid(s msgs.VehicleState) (data []int8, originX, originY float64, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	res := g.cfg.Resolution
	originX = s.X - float64(g.cfg.Width)*res/2
	originY = s.Y - float64(g.cfg.Height)*res/2
	data = make([]int8, g.cfg.Width*g.cfg.Height)
	for row := 0; row < g.cfg.Height; row++ {
		wy := originY + (float64(row)+0.5)*res
		for col := 0; col < g.cfg.Width; col++ {
			wx := originX + (float64(col)+0.5)*res
			v, err := g.sample(wx, wy)
			if err != nil {
				return nil, 0, 0, err
			}
			data[row*g.cfg.Width+col] = v
		}
	}
	return data, originX, originY, nil
}

// OccupancyGrid renders the grid centred on the vehicle, expressed relative
// to offset.
func (g *Generator) OccupancyGrid(offset r2.Vec, s msgs.VehicleState) (marker.OccupancyGrid, error) {
	data, ox, oy, err := g.grid(s)
	if err != nil {
		return marker.OccupancyGrid{}, err
	}
	return marker.OccupancyGrid{
		FrameID:    marker.FrameVisualizationOffset,
		Resolution: g.cfg.Resolution,
		Width:      g.cfg.Width,
		Height:     g.cfg.Height,
		Origin: marker.Pose{
			Position:    marker.Point{X: ox - offset.X, Y: oy - offset.Y},
			Orientation: marker.Identity(),
		},
		Data: data,
	}, nil
}

// PointCloud returns the centre of every cell at or above the occupied
// threshold, expressed relative to offset. Intensity is occupancy / 100.
func (g *Generator) PointCloud(offset r2.Vec, s msgs.VehicleState) (marker.PointCloud, error) {
	data, ox, oy, err := g.grid(s)
	if err != nil {
		return marker.PointCloud{}, err
	}
	cloud := marker.PointCloud{FrameID: marker.FrameVisualizationOffset}
	res := g.cfg.Resolution
	for i, v := range data {
		if v < g.cfg.OccupiedThreshold {
			continue
		}
		col, row := i%g.cfg.Width, i/g.cfg.Width
		cloud.Points = append(cloud.Points, marker.Point{
			X: ox + (float64(col)+0.5)*res - offset.X,
			Y: oy + (float64(row)+0.5)*res - offset.Y,
		})
		cloud.Intensity = append(cloud.Intensity, float32(v)/100)
	}
	return cloud, nil
}
