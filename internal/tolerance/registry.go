package tolerance

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"

	apperrors "asvco2cli/internal/errors"
	"asvco2cli/pkg/contracts/domain"
)

type tableKey struct {
	revision Revision
	calcType domain.CalcType
	stat     domain.Statistic
}

// Registry holds tolerance tables keyed by (revision, calc type, statistic).
type Registry struct {
	mu        sync.RWMutex
	tables    map[tableKey]Table
	revisions map[Revision]RevisionInfo
}

// NewRegistry returns a registry holding the built-in revisions.
func NewRegistry() *Registry {
	r := &Registry{
		tables:    make(map[tableKey]Table),
		revisions: make(map[Revision]RevisionInfo),
	}
	registerBuiltins(r)
	return r
}

func (r *Registry) set(rev Revision, calcType domain.CalcType, stat domain.Statistic, t Table) {
	r.tables[tableKey{rev, calcType, stat}] = t
}

func (r *Registry) describe(info RevisionInfo) {
	r.revisions[info.Name] = info
}

// Table returns the table for the key, or a NOT_FOUND error.
func (r *Registry) Table(rev Revision, calcType domain.CalcType, stat domain.Statistic) (Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.revisions[rev]; !ok {
		return Table{}, apperrors.NewNotFoundError(fmt.Sprintf("tolerance revision %q", rev))
	}
	t, ok := r.tables[tableKey{rev, calcType, stat}]
	if !ok {
		return Table{}, apperrors.NewNotFoundError(
			fmt.Sprintf("tolerance table %s/%s/%s", rev, calcType, stat))
	}
	return t, nil
}

// Revision returns the description of rev.
func (r *Registry) Revision(rev Revision) (RevisionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.revisions[rev]
	return info, ok
}

// Revisions lists registered revisions ordered by effective date, then name.
func (r *Registry) Revisions() []RevisionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]RevisionInfo, 0, len(r.revisions))
	for _, info := range r.revisions {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Effective != out[j].Effective {
			return out[i].Effective < out[j].Effective
		}
		return out[i].Name < out[j].Name
	})
	return out
}

type revisionFile struct {
	Revisions []struct {
		Name        string `yaml:"name"`
		Effective   string `yaml:"effective"`
		Description string `yaml:"description"`
		Tables      []struct {
			CalcType    string       `yaml:"calc_type"`
			Statistic   string       `yaml:"statistic"`
			Breakpoints []Breakpoint `yaml:"breakpoints"`
		} `yaml:"tables"`
	} `yaml:"revisions"`
}

// LoadRevisionYAML registers additional revisions from a YAML document. Built-in
// revisions cannot be replaced. Nothing is registered if any table is invalid.
//
//	revisions:
//	  - name: lab-2023
//	    effective: "2023-01-15"
//	    tables:
//	      - calc_type: Tcorr
//	        statistic: mean
//	        breakpoints:
//	          - {concentration: 0, limit: 1}
//	          - {concentration: 2575, limit: 14}
func (r *Registry) LoadRevisionYAML(in io.Reader) ([]Revision, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("read tolerance revisions: %w", err)
	}
	var doc revisionFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewConfigError("parse tolerance revisions", err)
	}

	staged := make(map[tableKey]Table)
	infos := make([]RevisionInfo, 0, len(doc.Revisions))
	seen := make(map[Revision]bool, len(doc.Revisions))
	for _, rev := range doc.Revisions {
		name := Revision(rev.Name)
		if name == "" {
			return nil, apperrors.NewConfigError("tolerance revision without a name", nil)
		}
		if seen[name] {
			return nil, apperrors.NewConfigError(fmt.Sprintf("tolerance revision %q listed twice", name), nil)
		}
		seen[name] = true
		info := RevisionInfo{Name: name, Effective: rev.Effective, Description: rev.Description}
		for _, tbl := range rev.Tables {
			calcType := domain.CalcType(tbl.CalcType)
			stat := domain.Statistic(tbl.Statistic)
			if !calcType.IsValid() || !stat.IsValid() {
				return nil, apperrors.NewConfigError(
					fmt.Sprintf("revision %q: unknown table key %s/%s", name, tbl.CalcType, tbl.Statistic), nil)
			}
			t, err := NewTable(tbl.Breakpoints)
			if err != nil {
				return nil, apperrors.NewConfigError(
					fmt.Sprintf("revision %q table %s/%s", name, calcType, stat), err)
			}
			staged[tableKey{name, calcType, stat}] = t
			if stat == domain.StatMax {
				info.Grouped = true
			}
		}
		infos = append(infos, info)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, info := range infos {
		if _, exists := r.revisions[info.Name]; exists {
			return nil, apperrors.NewConfigError(fmt.Sprintf("tolerance revision %q already registered", info.Name), nil)
		}
	}
	names := make([]Revision, 0, len(infos))
	for _, info := range infos {
		r.revisions[info.Name] = info
		names = append(names, info.Name)
	}
	for k, t := range staged {
		r.tables[k] = t
	}
	return names, nil
}
