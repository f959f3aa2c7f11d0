// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Stream decodes the binary searchlight definition stream: first a
// length-prefixed list of int32 global location identifiers -- the lookup
// table of analyzed locations, positionally aligned with the activity
// matrix columns -- then repeated records of (count, center-index,
// count-many member-indices), all little-endian int32, until end of
// stream.  End of stream is an explicit io.EOF from Next at a record
// boundary; any partial record is a fatal decode error.
type Stream struct {
	r      io.Reader
	seq    int
	Lookup []int32 `desc:"global volume location identifiers of analyzed locations, indexed by record center / member indices"`
}

// Record is one searchlight definition.  Center and Members index the
// stream's lookup table and the activity matrix columns.  Records are
// transient: they exist only while their searchlight is processed.
type Record struct {
	Seq     int   `desc:"position in stream enumeration order"`
	Center  int   `desc:"lookup index of the center location"`
	Members []int `desc:"lookup indices of the member locations"`
}

// OpenStream reads the lookup table header from r and returns a Stream
// ready for Next.
func OpenStream(r io.Reader) (*Stream, error) {
	st := &Stream{r: r}
	n, err := st.readInt32()
	if err != nil {
		return nil, fmt.Errorf("decode.OpenStream: reading lookup table length: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("decode.OpenStream: negative lookup table length %d", n)
	}
	st.Lookup = make([]int32, n)
	if err := binary.Read(st.r, binary.LittleEndian, st.Lookup); err != nil {
		return nil, fmt.Errorf("decode.OpenStream: reading lookup table: %w", err)
	}
	return st, nil
}

func (st *Stream) readInt32() (int32, error) {
	var v int32
	err := binary.Read(st.r, binary.LittleEndian, &v)
	return v, err
}

// Next returns the next searchlight record, io.EOF at a clean end of
// stream, or a fatal error for a truncated or malformed record.
func (st *Stream) Next() (*Record, error) {
	cnt, err := st.readInt32()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("decode.Stream: record %d: reading member count: %w", st.seq, err)
	}
	if cnt < 0 {
		return nil, fmt.Errorf("decode.Stream: record %d: negative member count %d", st.seq, cnt)
	}
	ctr, err := st.readInt32()
	if err != nil {
		return nil, fmt.Errorf("decode.Stream: record %d: truncated at center index: %w", st.seq, noEOF(err))
	}
	if int(ctr) < 0 || int(ctr) >= len(st.Lookup) {
		return nil, fmt.Errorf("decode.Stream: record %d: center index %d outside lookup table [0, %d)", st.seq, ctr, len(st.Lookup))
	}
	mems := make([]int32, cnt)
	if err := binary.Read(st.r, binary.LittleEndian, mems); err != nil {
		return nil, fmt.Errorf("decode.Stream: record %d: truncated member list: %w", st.seq, noEOF(err))
	}
	rec := &Record{Seq: st.seq, Center: int(ctr), Members: make([]int, cnt)}
	for i, m := range mems {
		if int(m) < 0 || int(m) >= len(st.Lookup) {
			return nil, fmt.Errorf("decode.Stream: record %d: member index %d outside lookup table [0, %d)", st.seq, m, len(st.Lookup))
		}
		rec.Members[i] = int(m)
	}
	st.seq++
	return rec, nil
}

// noEOF maps a bare io.EOF mid-record to io.ErrUnexpectedEOF, so a
// truncated stream never masquerades as a clean end.
func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// All decodes every remaining record up front, for parallel dispatch where
// interleaved single-reader decoding does not apply.
func (st *Stream) All() ([]*Record, error) {
	var recs []*Record
	for {
		rec, err := st.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}

// CenterID returns the global volume location identifier of the record's
// center.
func (st *Stream) CenterID(rec *Record) int {
	return int(st.Lookup[rec.Center])
}
