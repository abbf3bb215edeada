// sqlconv converts legacy hotel MySQL dump files to the YAML data files
// the server loads at boot.
//
// Usage:
//
//	go run ./cmd/sqlconv <command> [-sqldir path] [-outdir path]
//
// Commands: models, furni, all
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML output structs
// ---------------------------------------------------------------------------

type modelListYAML struct {
	Models []modelEntryYAML `yaml:"models"`
}

type modelEntryYAML struct {
	Name      string `yaml:"name"`
	DoorX     int    `yaml:"door_x"`
	DoorY     int    `yaml:"door_y"`
	DoorDir   int    `yaml:"door_dir"`
	Heightmap string `yaml:"heightmap"`
}

type furniListYAML struct {
	Furniture []furniEntryYAML `yaml:"furniture"`
}

type furniEntryYAML struct {
	ID               int     `yaml:"id"`
	Name             string  `yaml:"name"`
	Type             string  `yaml:"type"`
	Width            int     `yaml:"width"`
	Length           int     `yaml:"length"`
	StackHeight      float64 `yaml:"stack_height"`
	CanStack         bool    `yaml:"can_stack"`
	CanSit           bool    `yaml:"can_sit"`
	CanLay           bool    `yaml:"can_lay"`
	IsWalkable       bool    `yaml:"is_walkable"`
	AllowTrade       bool    `yaml:"allow_trade"`
	RequiresRights   bool    `yaml:"requires_rights"`
	InteractionType  string  `yaml:"interaction_type"`
	InteractionModes int     `yaml:"interaction_modes"`
	VendingIDs       []int   `yaml:"vending_ids,omitempty"`
}

// ---------------------------------------------------------------------------
// SQL parsing helpers
// ---------------------------------------------------------------------------

// parseValues extracts column values from a single INSERT INTO ... VALUES (...) line.
func parseValues(line string) []string {
	upper := strings.ToUpper(line)
	idx := strings.Index(upper, "VALUES")
	if idx == -1 {
		return nil
	}
	rest := line[idx+6:]
	start := strings.IndexByte(rest, '(')
	if start == -1 {
		return nil
	}
	end := strings.LastIndexByte(rest, ')')
	if end == -1 || end <= start {
		return nil
	}
	inner := rest[start+1 : end]

	var values []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(inner); i++ {
		ch := inner[i]
		if inQuote {
			switch {
			case ch == '\\' && i+1 < len(inner):
				i++
				cur.WriteByte(unescape(inner[i]))
			case ch == '\'' && i+1 < len(inner) && inner[i+1] == '\'':
				cur.WriteByte('\'')
				i++
			case ch == '\'':
				inQuote = false
			default:
				cur.WriteByte(ch)
			}
			continue
		}
		switch ch {
		case '\'':
			inQuote = true
		case ',':
			values = append(values, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	values = append(values, strings.TrimSpace(cur.String()))

	for i, v := range values {
		if strings.EqualFold(v, "null") {
			values[i] = ""
		}
	}
	return values
}

// unescape maps a MySQL backslash escape to its byte.
func unescape(c byte) byte {
	switch c {
	case 'r':
		return '\r'
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case '0':
		return 0
	}
	return c
}

// parseAllInserts reads a SQL file and returns all parsed INSERT rows.
func parseAllInserts(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	var rows [][]string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToUpper(line), "INSERT INTO") {
			continue
		}
		if vals := parseValues(line); vals != nil {
			rows = append(rows, vals)
		}
	}
	return rows, nil
}

func parseInt(s string) int {
	if s == "" {
		return 0
	}
	v, _ := strconv.Atoi(s)
	return v
}

func parseFloat64(s string) float64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseBool01(s string) bool { return s != "" && s != "0" }

func parseIntList(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, parseInt(part))
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// YAML writer
// ---------------------------------------------------------------------------

func writeYAML(path string, data any, comment string) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if comment != "" {
		fmt.Fprintln(f, comment)
		fmt.Fprintln(f)
	}
	_, err = f.Write(out)
	return err
}

// ---------------------------------------------------------------------------
// Converters
// ---------------------------------------------------------------------------

// room_models columns: name, door_x, door_y, door_dir, heightmap.
// Heightmap rows are separated by \r in the dump.
func modelsFromRows(rows [][]string) []modelEntryYAML {
	var out []modelEntryYAML
	for _, r := range rows {
		if len(r) < 5 || r[0] == "" {
			continue
		}
		hm := strings.ReplaceAll(r[4], "\r\n", "\n")
		hm = strings.ReplaceAll(hm, "\r", "\n")
		hm = strings.Trim(hm, "\n")
		out = append(out, modelEntryYAML{
			Name:      r[0],
			DoorX:     parseInt(r[1]),
			DoorY:     parseInt(r[2]),
			DoorDir:   parseInt(r[3]),
			Heightmap: hm + "\n",
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func convertModels(sqlDir, outDir string) error {
	rows, err := parseAllInserts(filepath.Join(sqlDir, "room_models.sql"))
	if err != nil {
		return err
	}
	models := modelsFromRows(rows)
	fmt.Printf("  models: %d entries\n", len(models))
	return writeYAML(filepath.Join(outDir, "room_models.yaml"),
		modelListYAML{Models: models},
		"# Room floor plans - converted from room_models.sql")
}

// items_base columns: id, item_name, type, width, length, stack_height,
// allow_stack, allow_sit, allow_lay, allow_walk, allow_trade,
// requires_rights, interaction_type, interaction_modes_count, vending_ids.
func furniFromRows(rows [][]string) []furniEntryYAML {
	var out []furniEntryYAML
	for _, r := range rows {
		if len(r) < 15 {
			continue
		}
		e := furniEntryYAML{
			ID:               parseInt(r[0]),
			Name:             r[1],
			Type:             strings.ToLower(r[2]),
			Width:            max(parseInt(r[3]), 1),
			Length:           max(parseInt(r[4]), 1),
			StackHeight:      parseFloat64(r[5]),
			CanStack:         parseBool01(r[6]),
			CanSit:           parseBool01(r[7]),
			CanLay:           parseBool01(r[8]),
			IsWalkable:       parseBool01(r[9]),
			AllowTrade:       parseBool01(r[10]),
			RequiresRights:   parseBool01(r[11]),
			InteractionType:  r[12],
			InteractionModes: max(parseInt(r[13]), 1),
			VendingIDs:       parseIntList(r[14]),
		}
		if e.ID <= 0 || (e.Type != "s" && e.Type != "i") {
			continue
		}
		if e.InteractionType == "" {
			e.InteractionType = "default"
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func convertFurni(sqlDir, outDir string) error {
	rows, err := parseAllInserts(filepath.Join(sqlDir, "items_base.sql"))
	if err != nil {
		return err
	}
	furni := furniFromRows(rows)
	fmt.Printf("  furni: %d entries\n", len(furni))
	return writeYAML(filepath.Join(outDir, "furniture.yaml"),
		furniListYAML{Furniture: furni},
		"# Furniture templates - converted from items_base.sql")
}

// ---------------------------------------------------------------------------
// main
// ---------------------------------------------------------------------------

func printUsage() {
	fmt.Println("Usage: sqlconv <command> [-sqldir path] [-outdir path]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  models    Convert room_models.sql -> room_models.yaml")
	fmt.Println("  furni     Convert items_base.sql -> furniture.yaml")
	fmt.Println("  all       Run all conversions")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	sqlDir := fs.String("sqldir", filepath.Join("..", "legacy", "sql"), "SQL source directory")
	outDir := fs.String("outdir", filepath.Join("data", "yaml"), "YAML output directory")
	_ = fs.Parse(os.Args[2:])

	converters := map[string]func(string, string) error{
		"models": convertModels,
		"furni":  convertFurni,
	}
	allOrder := []string{"models", "furni"}

	if cmd == "all" {
		fmt.Println("Converting all SQL -> YAML...")
		for _, name := range allOrder {
			if err := converters[name](*sqlDir, *outDir); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR [%s]: %v\n", name, err)
				os.Exit(1)
			}
		}
		fmt.Println("Done!")
		return
	}

	fn, ok := converters[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err := fn(*sqlDir, *outDir); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Done!")
}
