package environment

import "testing"

func TestParse(t *testing.T) {
	e, err := Parse([]byte("temperature: 300\ndielectric: 78.5\nbjerrum_length: 0.71\nchemical_potential: -16\npressure: 1\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.T != 300 || e.D != 78.5 || e.LB != 0.71 || e.CP != -16 || e.P != 1 {
		t.Fatalf("unexpected parsed environment: %+v", e)
	}
}

func TestParseMalformedSurfacesError(t *testing.T) {
	_, err := Parse([]byte("temperature: [this is not a number}"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestSetters(t *testing.T) {
	e := &Environment{}
	e.SetTemperature(350)
	e.SetChemicalPotential(-10)
	e.SetPressure(2)

	if e.T != 350 || e.CP != -10 || e.P != 2 {
		t.Fatalf("unexpected environment after setters: %+v", e)
	}
}
