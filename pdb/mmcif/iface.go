package mmcif

import (
	"strings"

	"github.com/andrew-torda/lobec/pdb/cmmn"
)

// Structure hands the atoms over as a cmmn.Structure. If id is empty,
// we use _entry.id from the file.
func (md *MmcifData) Structure(id, assembly string) *cmmn.Structure {
	if id == "" {
		id = md.Data["_entry.id"]
	}
	return &cmmn.Structure{
		ID:       strings.ToUpper(id),
		Assembly: assembly,
		Atoms:    md.Atoms,
	}
}
