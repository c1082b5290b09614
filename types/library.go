package types

// Library is the on-disk shape of a characterization library file: shared
// settings plus a named set of cells. Cell names come from the map keys.
type Library struct {
	Settings Settings         `yaml:"settings"`
	Cells    map[string]*Cell `yaml:"cells"`
}
