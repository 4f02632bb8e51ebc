package particle

import "fmt"

func indexMismatchError(pos, index int, name string) error {
	return fmt.Errorf("particle %q: index %d does not match position %d", name, index, pos)
}

func countClosureError(cTot, aTot, pTot int) error {
	return fmt.Errorf("particle set: cTot(%d)+aTot(%d) != pTot(%d)", cTot, aTot, pTot)
}
