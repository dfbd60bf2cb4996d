/*
Lobec superposes the C-terminal lobe of protein kinases onto a reference
kinase and sorts the results by RMSD.

Usage:

	lobec superpose -m report.csv [flags]
	lobec fetch -m report.csv [flags]
	lobec windows file [chain]

The manifest is a custom report from the RCSB with the columns
"PDB ID", "Assembly ID" and "Auth Asym ID". Rows missing any of these
are skipped.

superpose loads each structure (from the cache directory or the PDB),
finds the window of the chain that matches the reference C-lobe, moves
the structure onto the reference and writes

	superposition_results.csv   PDB_ID,Chain,N_CA_aligned,RMSD,Status
	aligned/{ID}_aligned.cif    the moved structure

Status is EXCELLENT (rmsd < 2), GOOD (up to 2.5), MODERATE (up to 4),
HIGH_RMSD or ERROR.

The default reference is 4WB8 assembly 1, chain A, residues 127 to 350.
If the target chain has fewer than 20 C-alpha atoms there, other
windows are scored by rmsd minus one hundredth per aligned atom.
--strategy sequence puts a window found by aligning the two sequences
in front of the numeric guesses.

Settings can come from a yaml file (--settings), from environment
variables like LOBEC_ALIGN_CUTOFF, or from flags.

fetch only fills the cache. windows prints the C-alpha counts of each
candidate window for one structure file.
*/
package main
