package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Interaction types understood by the room engine.
const (
	InteractionDefault = "default"
	InteractionGate    = "gate"
	InteractionRoller  = "roller"
	InteractionDice    = "dice"
	InteractionVending = "vendingmachine"
	InteractionBed     = "bed"
	InteractionChair   = "chair"
)

// FurniKind distinguishes floor items from wall items.
type FurniKind string

const (
	FurniFloor FurniKind = "s"
	FurniWall  FurniKind = "i"
)

// FurniDef is a furniture template.
type FurniDef struct {
	ID               int       `yaml:"id"`
	Name             string    `yaml:"name"`
	Kind             FurniKind `yaml:"type"`
	Width            int       `yaml:"width"`
	Length           int       `yaml:"length"`
	StackHeight      float64   `yaml:"stack_height"`
	CanStack         bool      `yaml:"can_stack"`
	CanSit           bool      `yaml:"can_sit"`
	CanLay           bool      `yaml:"can_lay"`
	IsWalkable       bool      `yaml:"is_walkable"`
	AllowTrade       bool      `yaml:"allow_trade"`
	RequiresRights   bool      `yaml:"requires_rights"`
	Interaction      string    `yaml:"interaction_type"`
	InteractionModes int       `yaml:"interaction_modes"`
	VendingIDs       []int     `yaml:"vending_ids"`
}

func (d *FurniDef) IsFloor() bool { return d.Kind != FurniWall }

// IsRoller reports whether the template moves things standing on it.
func (d *FurniDef) IsRoller() bool { return d.Interaction == InteractionRoller }

type furniFile struct {
	Furniture []FurniDef `yaml:"furniture"`
}

// FurniTable provides furniture template lookups by id.
type FurniTable struct {
	defs map[int]*FurniDef
}

// LoadFurniTable loads furniture templates from a YAML file.
func LoadFurniTable(path string) (*FurniTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read furniture %s: %w", path, err)
	}
	return ParseFurniTable(raw)
}

func ParseFurniTable(raw []byte) (*FurniTable, error) {
	var file furniFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse furniture: %w", err)
	}
	t := &FurniTable{defs: make(map[int]*FurniDef, len(file.Furniture))}
	for i := range file.Furniture {
		d := file.Furniture[i]
		if d.Kind == "" {
			d.Kind = FurniFloor
		}
		if d.Width <= 0 {
			d.Width = 1
		}
		if d.Length <= 0 {
			d.Length = 1
		}
		if d.Interaction == "" {
			d.Interaction = InteractionDefault
		}
		if d.InteractionModes <= 0 {
			d.InteractionModes = 1
		}
		if _, dup := t.defs[d.ID]; dup {
			return nil, fmt.Errorf("furniture %d defined twice", d.ID)
		}
		t.defs[d.ID] = &d
	}
	return t, nil
}

// NewFurniTable builds a table from in-memory definitions.
func NewFurniTable(defs ...*FurniDef) *FurniTable {
	t := &FurniTable{defs: make(map[int]*FurniDef, len(defs))}
	for _, d := range defs {
		t.defs[d.ID] = d
	}
	return t
}

func (t *FurniTable) Get(id int) *FurniDef {
	return t.defs[id]
}

func (t *FurniTable) Count() int {
	return len(t.defs)
}
