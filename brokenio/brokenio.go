// Package brokenio wraps an io.ReadCloser so that reads fail in
// controlled ways. We use it to check that structure files which are
// cut short, empty or damaged in transit give an error and not a
// half-read structure.
//
// Typical use: you have a reader for a file, a gzip stream or an http
// body. Write
//
//	rdr = brokenio.NewReader(rdr)
//
// and set one of the failure modes. Everything else works as before.
// A failure on the first read returns no data and io.EOF, which is what
// one sees with a zero length file.
package brokenio

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
)

// ErrInjected is returned by reads we decided should break.
var ErrInjected = errors.New("brokenio: injected read error")

// BrknRdrClsr is modelled on the Readers in the standard library, but
// with variables controlling the frequency of errors. The probabilities
// are fractions, so 0.05 means failure in 5% of reads.
type BrknRdrClsr struct {
	rdrOrig      io.ReadCloser
	rnd          *rand.Rand
	probZeroFile float32 // Probability of returning a zero length file
	probFail     float32 // Probability that a read is damaged
	fracFail     float32 // How much of a damaged read is wiped out
	failAfter    int     // Fail once this many bytes have gone through. <0 means never
	nCalled      int
	nByte        int
	verbose      bool
}

// SetVerbose sets the verbosity flag. If true, Close prints out the
// amount of data read.
func (r *BrknRdrClsr) SetVerbose(newV bool) { r.verbose = newV }

// SetFracFail sets the fraction of a damaged read which is trashed.
func (r *BrknRdrClsr) SetFracFail(frac float32) { r.fracFail = frac }

// SetProbZeroFile sets the rate at which we simply return 0 bytes on the
// first read. It must be a value from 0 to 1. We do not check.
func (r *BrknRdrClsr) SetProbZeroFile(prob float32) { r.probZeroFile = prob }

// SetProbFail sets the probability of a damaged read, from 0 to 1.
func (r *BrknRdrClsr) SetProbFail(prob float32) { r.probFail = prob }

// SetFailAfter makes every read fail with ErrInjected once n bytes have
// been delivered. A read that would cross the limit is cut short.
func (r *BrknRdrClsr) SetFailAfter(n int) { r.failAfter = n }

// SetSeed makes the random failures repeatable.
func (r *BrknRdrClsr) SetSeed(seed int64) { r.rnd = rand.New(rand.NewSource(seed)) }

// NewReader returns a new Reader wrapped around the old one. By default
// nothing breaks.
func NewReader(rIn io.ReadCloser) *BrknRdrClsr {
	return &BrknRdrClsr{
		rdrOrig:   rIn,
		rnd:       rand.New(rand.NewSource(1)),
		fracFail:  0.5,
		failAfter: -1,
	}
}

// trashSlice wipes out the second part of a slice.
// The amount to wipe out is given by a fraction, so 0.3
// will wipe out the last 30 % of a slice
func trashSlice(p []byte, frac float32) (int, error) {
	nkeep := int(float32(len(p)) * (1. - frac))
	if nkeep == len(p) {
		return nkeep, nil
	}
	err := fmt.Errorf("%w: wiped out last %d of %d", ErrInjected, len(p)-nkeep, len(p))
	clear(p[nkeep:])
	return nkeep, err
}

// Read wraps the original reader and sums up the amount of data that
// has gone through.
func (r *BrknRdrClsr) Read(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.nCalled == 0 && r.probZeroFile > 0 && r.rnd.Float32() < r.probZeroFile {
		return 0, io.EOF
	}
	if r.failAfter >= 0 {
		left := r.failAfter - r.nByte
		if left <= 0 {
			return 0, ErrInjected
		}
		if len(p) > left {
			p = p[:left]
		}
	}
	n, err = r.rdrOrig.Read(p)
	r.nCalled++
	r.nByte += n
	if r.probFail > 0 && r.fracFail > 0 && r.rnd.Float32() < r.probFail {
		return trashSlice(p[:n], r.fracFail)
	}
	return n, err
}

// Close wraps the original Close method.
func (r *BrknRdrClsr) Close() error {
	if r.verbose {
		fmt.Println("Closing", r.nCalled, "calls and", r.nByte, "bytes")
	}
	return r.rdrOrig.Close()
}
