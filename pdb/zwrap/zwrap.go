// Package zwrap takes a reader and, if the data is gzipped, wraps it
// so that Read gives the decompressed stream and Close closes the
// decompressor followed by the underlying source.
// Files in the cache and on the mirrors may or may not be compressed,
// so we look at the first two bytes rather than trusting the name.
package zwrap

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
)

var gzMagic = []byte{0x1f, 0x8b}

// FpGzip is what we return. Read comes from the decompressor if there
// is one, otherwise from the source.
type FpGzip struct {
	fp   io.ReadCloser
	rdr  io.Reader
	zrdr *gzip.Reader
}

// Close closes the decompressor, then the underlying backing readCloser.
// It should work if the source is a file or an http stream.
func (fc *FpGzip) Close() error {
	var errs []error
	if fc.zrdr != nil {
		errs = append(errs, fc.zrdr.Close())
	}
	if fc.fp != nil {
		errs = append(errs, fc.fp.Close())
	}
	return errors.Join(errs...)
}

// Read makes sure we read from the compressed stream and
// not the underlying file stream.
func (fc *FpGzip) Read(p []byte) (int, error) {
	if fc.zrdr != nil {
		return fc.zrdr.Read(p)
	}
	return fc.rdr.Read(p)
}

// Compressed says whether we are decompressing.
func (fc *FpGzip) Compressed() bool { return fc.zrdr != nil }

// Wrap takes a source which must be gzipped. Use WrapMaybe if you do
// not know.
func Wrap(fp io.ReadCloser) (*FpGzip, error) {
	zrdr, err := gzip.NewReader(fp)
	if err != nil {
		return nil, err
	}
	return &FpGzip{fp: fp, rdr: fp, zrdr: zrdr}, nil
}

// IsGzip says whether b starts with the gzip magic number.
func IsGzip(b []byte) bool {
	return bytes.HasPrefix(b, gzMagic)
}

// WrapMaybe peeks at the start of the stream and only decompresses if
// it finds the gzip magic number. The source does not have to seek, so
// it works on http bodies.
func WrapMaybe(fp io.ReadCloser) (*FpGzip, error) {
	br := bufio.NewReader(fp)
	head, err := br.Peek(len(gzMagic))
	if err != nil && err != io.EOF { // a short file is simply not gzipped
		return nil, err
	}
	out := &FpGzip{fp: fp, rdr: br}
	if IsGzip(head) {
		if out.zrdr, err = gzip.NewReader(br); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FromBytes is WrapMaybe for data that is already in memory, such as a
// mapped file.
func FromBytes(b []byte) (io.Reader, error) {
	if !IsGzip(b) {
		return bytes.NewReader(b), nil
	}
	return gzip.NewReader(bytes.NewReader(b))
}
