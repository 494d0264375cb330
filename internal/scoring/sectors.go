package scoring

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSectorMultiplier applies to sectors missing from the table
const DefaultSectorMultiplier = 1.0

// SectorTable maps an industry sector to its risk multiplier
// ⭐ SSOT: sector multipliers are read only through this type
// The zero value behaves as an empty table (every sector → 1.0).
type SectorTable struct {
	version     string
	multipliers map[string]float64
}

// sectorFile is the YAML layout of a sector table
type sectorFile struct {
	Version string        `yaml:"version"`
	Sectors []sectorEntry `yaml:"sectors"`
}

type sectorEntry struct {
	Name       string  `yaml:"name"`
	Multiplier float64 `yaml:"multiplier"`
}

// DefaultSectorTable returns the built-in multipliers
func DefaultSectorTable() SectorTable {
	return NewSectorTable("builtin-1", map[string]float64{
		"Teknoloji": 0.8,
		"Gıda":      0.9,
		"Tekstil":   1.1,
		"İnşaat":    1.3,
		"Otomotiv":  1.2,
		"Enerji":    1.4,
		"Turizm":    1.5,
		"Havacılık": 1.6,
	})
}

// NewSectorTable builds a table from a copy of multipliers
func NewSectorTable(version string, multipliers map[string]float64) SectorTable {
	m := make(map[string]float64, len(multipliers))
	for k, v := range multipliers {
		m[k] = v
	}
	return SectorTable{version: version, multipliers: m}
}

// Multiplier returns the sector multiplier, DefaultSectorMultiplier if absent or unusable
func (t SectorTable) Multiplier(sector string) float64 {
	if m, ok := t.multipliers[sector]; ok && validMultiplier(m) {
		return m
	}
	return DefaultSectorMultiplier
}

// validMultiplier rejects values the formulas cannot stay bounded with
func validMultiplier(m float64) bool {
	return m > 0 && !math.IsNaN(m) && !math.IsInf(m, 0)
}

// Version returns the table version label
func (t SectorTable) Version() string {
	return t.version
}

// Sectors returns the known sector names, sorted
func (t SectorTable) Sectors() []string {
	names := make([]string, 0, len(t.multipliers))
	for name := range t.multipliers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hash returns a SHA-256 over the sorted (sector, multiplier) pairs
func (t SectorTable) Hash() string {
	h := sha256.New()
	for _, name := range t.Sectors() {
		h.Write([]byte(strconv.Quote(name)))
		h.Write([]byte{'='})
		h.Write([]byte(strconv.FormatFloat(t.multipliers[name], 'g', -1, 64)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LoadSectorTable reads a YAML sector table
// Unknown fields fail the load so a typo never silently falls back to 1.0.
func LoadSectorTable(path string) (SectorTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SectorTable{}, fmt.Errorf("read sector table: %w", err)
	}
	return ParseSectorTable(data)
}

// ParseSectorTable decodes and validates a YAML sector table
func ParseSectorTable(data []byte) (SectorTable, error) {
	var file sectorFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return SectorTable{}, fmt.Errorf("decode sector table: %w", err)
	}

	if file.Version == "" {
		return SectorTable{}, fmt.Errorf("sector table: version is required")
	}

	multipliers := make(map[string]float64, len(file.Sectors))
	for i, s := range file.Sectors {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return SectorTable{}, fmt.Errorf("sector table: sectors[%d].name is required", i)
		}
		if !validMultiplier(s.Multiplier) {
			return SectorTable{}, fmt.Errorf("sector table: %s multiplier must be a finite number > 0", name)
		}
		if _, dup := multipliers[name]; dup {
			return SectorTable{}, fmt.Errorf("sector table: duplicate sector %s", name)
		}
		multipliers[name] = s.Multiplier
	}

	return SectorTable{version: file.Version, multipliers: multipliers}, nil
}
