package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/tactics/internal/game/grid"
)

// Effectiveness maps attacker origin → defender origin → damage multiplier.
// Missing pairs are neutral (1.0).
type Effectiveness map[string]map[string]float64

// Lookup returns the multiplier for attacker origin a against defender origin d.
//
// Postcondition: Returns 1.0 for unknown pairs; never returns a negative value.
func (e Effectiveness) Lookup(a, d string) float64 {
	if row, ok := e[a]; ok {
		if m, ok := row[d]; ok && m >= 0 {
			return m
		}
	}
	return 1.0
}

// Registry holds every definition table keyed by name.
// It is read-only after loading.
type Registry struct {
	attacks       map[string]*AttackDef
	weapons       map[string]*WeaponDef
	passives      map[string]*PassiveDef
	statuses      map[string]*StatusDef
	terrains      map[string]*grid.Terrain
	effectiveness Effectiveness
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		attacks:       make(map[string]*AttackDef),
		weapons:       make(map[string]*WeaponDef),
		passives:      make(map[string]*PassiveDef),
		statuses:      make(map[string]*StatusDef),
		terrains:      make(map[string]*grid.Terrain),
		effectiveness: make(Effectiveness),
	}
}

// AddAttack validates def and registers it, overwriting any attack with the same name.
func (r *Registry) AddAttack(def *AttackDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.attacks[def.Name] = def
	return nil
}

// AddWeapon validates def and registers it.
func (r *Registry) AddWeapon(def *WeaponDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.weapons[def.Name] = def
	return nil
}

// AddPassive validates def and registers it.
func (r *Registry) AddPassive(def *PassiveDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.passives[def.Name] = def
	return nil
}

// AddStatus validates def and registers it.
func (r *Registry) AddStatus(def *StatusDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	r.statuses[def.Name] = def
	return nil
}

// AddTerrain registers t.
func (r *Registry) AddTerrain(t *grid.Terrain) error {
	if t.Name == "" {
		return errors.New("terrain: name must not be empty")
	}
	r.terrains[t.Name] = t
	return nil
}

// SetEffectiveness records the multiplier for attacker origin a against defender origin d.
func (r *Registry) SetEffectiveness(a, d string, m float64) {
	if r.effectiveness[a] == nil {
		r.effectiveness[a] = make(map[string]float64)
	}
	r.effectiveness[a][d] = m
}

// Attack returns the attack named name, or (nil, false).
func (r *Registry) Attack(name string) (*AttackDef, bool) {
	d, ok := r.attacks[name]
	return d, ok
}

// Weapon returns the weapon named name, or (nil, false).
func (r *Registry) Weapon(name string) (*WeaponDef, bool) {
	d, ok := r.weapons[name]
	return d, ok
}

// Passive returns the passive named name, or (nil, false).
func (r *Registry) Passive(name string) (*PassiveDef, bool) {
	d, ok := r.passives[name]
	return d, ok
}

// Status returns the status named name, or (nil, false).
func (r *Registry) Status(name string) (*StatusDef, bool) {
	d, ok := r.statuses[name]
	return d, ok
}

// Terrain returns the terrain named name, or (nil, false).
func (r *Registry) Terrain(name string) (*grid.Terrain, bool) {
	t, ok := r.terrains[name]
	return t, ok
}

// Effectiveness returns the origin effectiveness table.
func (r *Registry) Effectiveness() Effectiveness { return r.effectiveness }

// Counts reports how many definitions of each table are loaded, keyed by table name.
func (r *Registry) Counts() map[string]int {
	return map[string]int{
		"attacks":  len(r.attacks),
		"weapons":  len(r.weapons),
		"passives": len(r.passives),
		"statuses": len(r.statuses),
		"terrains": len(r.terrains),
	}
}

// file is the on-disk layout of one ruleset YAML document.
type file struct {
	Attacks       []*AttackDef                  `yaml:"attacks"`
	Weapons       []*WeaponDef                  `yaml:"weapons"`
	Passives      []*PassiveDef                 `yaml:"passives"`
	Statuses      []*StatusDef                  `yaml:"statuses"`
	Terrains      []*grid.Terrain               `yaml:"terrains"`
	Effectiveness map[string]map[string]float64 `yaml:"effectiveness"`
}

// Load merges one YAML document into r. Unknown keys are rejected.
//
// Postcondition: on error, r may hold the definitions that preceded the failing one.
func (r *Registry) Load(data []byte) error {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing ruleset: %w", err)
	}
	for _, d := range f.Attacks {
		if err := r.AddAttack(d); err != nil {
			return err
		}
	}
	for _, d := range f.Weapons {
		if err := r.AddWeapon(d); err != nil {
			return err
		}
	}
	for _, d := range f.Passives {
		if err := r.AddPassive(d); err != nil {
			return err
		}
	}
	for _, d := range f.Statuses {
		if err := r.AddStatus(d); err != nil {
			return err
		}
	}
	for _, t := range f.Terrains {
		if err := r.AddTerrain(t); err != nil {
			return err
		}
	}
	atk := make([]string, 0, len(f.Effectiveness))
	for a := range f.Effectiveness {
		atk = append(atk, a)
	}
	sort.Strings(atk)
	for _, a := range atk {
		for d, m := range f.Effectiveness[a] {
			if m < 0 {
				return fmt.Errorf("effectiveness %s→%s must be >= 0, got %v", a, d, m)
			}
			r.SetEffectiveness(a, d, m)
		}
	}
	return nil
}

// LoadDirectory reads every *.yaml file in dir in lexicographic order and
// merges them into a new Registry.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error naming the failing file.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		if err := reg.Load(data); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return reg, nil
}
