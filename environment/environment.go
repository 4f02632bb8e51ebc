// Package environment holds the threaded global-constants struct of
// spec.md §9 ("Global constants... model as an explicit environment
// struct threaded through the simulator"), styled on config/config.go's
// yaml-tagged struct but scoped to just the physical constants of the
// engine — file loading itself stays an external
// collaborator's concern (spec.md §1).
package environment

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Environment carries the physical constants referenced throughout
// the engine. Moves hold a pointer to it and read T, CP and P on every
// acceptance check, so SetTemperature etc. take effect on the next
// proposal. EnergyTerms do not read it: they receive lb, T and the
// dielectric constant by value at construction, and later changes
// here do not reach them.
type Environment struct {
	// T is the thermal energy scale (k_B*T in the same units as the
	// energy terms), used directly in the Metropolis exponent.
	T float64 `yaml:"temperature"`
	// D is the relative dielectric constant.
	D float64 `yaml:"dielectric"`
	// LB is the Bjerrum length (see GLOSSARY).
	LB float64 `yaml:"bjerrum_length"`
	// CP is the chemical potential used by grand-canonical moves.
	CP float64 `yaml:"chemical_potential"`
	// P is the pressure used by volume moves.
	P float64 `yaml:"pressure"`
}

// SetTemperature updates T.
func (e *Environment) SetTemperature(t float64) { e.T = t }

// SetChemicalPotential updates CP.
func (e *Environment) SetChemicalPotential(cp float64) { e.CP = cp }

// SetPressure updates P.
func (e *Environment) SetPressure(p float64) { e.P = p }

// Parse decodes an Environment from YAML bytes. This is a parsing
// primitive over an already-produced buffer, not the file-loading/CLI
// orchestration spec.md places out of scope (see SPEC_FULL.md §1.1).
func Parse(b []byte) (*Environment, error) {
	var e Environment
	if err := yaml.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("environment: parsing: %w", err)
	}
	return &e, nil
}
