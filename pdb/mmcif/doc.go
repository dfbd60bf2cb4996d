// Package mmcif reads a file in mmcif/cif format and writes the
// coordinate part back out.
//
// Reading mmcif files is interesting because they are big, but we
// want little from them apart from the atoms.
// If one looks at the format there are some features that make it
// simpler.
//  1. The first character on the line is decisive. If it is a data item
//     it has to be a "_". A loop starts with loop_.
//  2. The PDB promises that they will restrict themselves to a certain
//     style. In the atom_site table they nearly always use the same
//     columns in the same order, so we check for that first and only
//     search for column names if it fails.
//
// The atom_site table is read by a second goroutine. The scanner
// collects lines in slices from a sync.Pool and sends them down a
// channel; atomSite() splits them and builds the atoms.
//
// Notes about the mmcif format...
// A question mark, ?, means a missing value.
// A dot, ., means not appropriate or deliberately left out.
// Chains are read from _atom_site.auth_asym_id and residue numbers from
// auth_seq_id, falling back to the label_ columns if the auth_ ones
// are missing. These are the names people use in papers and in the
// RCSB custom reports.
package mmcif
