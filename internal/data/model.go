package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RoomModel is an immutable floor plan shared by every room that uses it.
type RoomModel struct {
	Name    string
	SizeX   int
	SizeY   int
	DoorX   int
	DoorY   int
	DoorDir int

	heights []float64 // flat array [x * SizeY + y]
	void    []bool
}

type roomModelEntry struct {
	Name      string `yaml:"name"`
	DoorX     int    `yaml:"door_x"`
	DoorY     int    `yaml:"door_y"`
	DoorDir   int    `yaml:"door_dir"`
	Heightmap string `yaml:"heightmap"`
}

type roomModelFile struct {
	Models []roomModelEntry `yaml:"models"`
}

// ModelTable holds all room models keyed by name.
type ModelTable struct {
	models map[string]*RoomModel
}

// LoadModelTable loads room models from a YAML file.
func LoadModelTable(path string) (*ModelTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read room models %s: %w", path, err)
	}
	return ParseModelTable(raw)
}

// ParseModelTable parses a room model YAML document.
func ParseModelTable(raw []byte) (*ModelTable, error) {
	var file roomModelFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse room models: %w", err)
	}
	t := &ModelTable{models: make(map[string]*RoomModel, len(file.Models))}
	for _, e := range file.Models {
		m, err := ParseHeightmap(e.Name, e.Heightmap, e.DoorX, e.DoorY, e.DoorDir)
		if err != nil {
			return nil, err
		}
		t.models[e.Name] = m
	}
	return t, nil
}

// Get returns the model by name, or nil.
func (t *ModelTable) Get(name string) *RoomModel {
	return t.models[name]
}

func (t *ModelTable) Count() int {
	return len(t.models)
}

// ParseHeightmap builds a model from a heightmap string. Rows are separated
// by newlines (or '\r'); each character is one tile: '0'-'9' and 'a'-'z' are
// heights 0-35, 'x' is void.
func ParseHeightmap(name, heightmap string, doorX, doorY, doorDir int) (*RoomModel, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(heightmap), "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	var rows []string
	for _, row := range strings.Split(normalized, "\n") {
		row = strings.TrimSpace(row)
		if row != "" {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("model %q: empty heightmap", name)
	}

	sizeX := len(rows[0])
	sizeY := len(rows)
	m := &RoomModel{
		Name:    name,
		SizeX:   sizeX,
		SizeY:   sizeY,
		DoorX:   doorX,
		DoorY:   doorY,
		DoorDir: doorDir,
		heights: make([]float64, sizeX*sizeY),
		void:    make([]bool, sizeX*sizeY),
	}
	for y, row := range rows {
		if len(row) != sizeX {
			return nil, fmt.Errorf("model %q: row %d has %d tiles, want %d", name, y, len(row), sizeX)
		}
		for x := 0; x < sizeX; x++ {
			idx := x*sizeY + y
			c := row[x]
			switch {
			case c == 'x' || c == 'X':
				m.void[idx] = true
			case c >= '0' && c <= '9':
				m.heights[idx] = float64(c - '0')
			case c >= 'a' && c <= 'z':
				m.heights[idx] = float64(c-'a') + 10
			default:
				return nil, fmt.Errorf("model %q: bad tile %q at %d,%d", name, c, x, y)
			}
		}
	}
	if !m.InBounds(doorX, doorY) || m.IsVoid(doorX, doorY) {
		return nil, fmt.Errorf("model %q: door %d,%d is not a floor tile", name, doorX, doorY)
	}
	return m, nil
}

func (m *RoomModel) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.SizeX && y < m.SizeY
}

// IsVoid reports whether the tile has no floor. Out of bounds counts as void.
func (m *RoomModel) IsVoid(x, y int) bool {
	if !m.InBounds(x, y) {
		return true
	}
	return m.void[x*m.SizeY+y]
}

// BaseHeight returns the floor height of a tile, 0 when out of bounds.
func (m *RoomModel) BaseHeight(x, y int) float64 {
	if !m.InBounds(x, y) {
		return 0
	}
	return m.heights[x*m.SizeY+y]
}

// DoorZ returns the floor height at the door tile.
func (m *RoomModel) DoorZ() float64 {
	return m.BaseHeight(m.DoorX, m.DoorY)
}

// Heightmap renders the model back to its row form, used by the room
// entry composer.
func (m *RoomModel) Heightmap() string {
	var b strings.Builder
	for y := 0; y < m.SizeY; y++ {
		for x := 0; x < m.SizeX; x++ {
			idx := x*m.SizeY + y
			switch {
			case m.void[idx]:
				b.WriteByte('x')
			case m.heights[idx] < 10:
				b.WriteByte(byte('0' + int(m.heights[idx])))
			default:
				b.WriteByte(byte('a' + int(m.heights[idx]) - 10))
			}
		}
		b.WriteByte('\r')
	}
	return b.String()
}
