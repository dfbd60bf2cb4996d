package pdb

// Export some internal functions for testing

var IdFromPath = idFromPath
var Stem = stem
