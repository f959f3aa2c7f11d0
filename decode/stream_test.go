// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package decode

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

// writeStream encodes a lookup table and records in the wire format.
func writeStream(lookup []int32, recs [][]int32) *bytes.Buffer {
	buf := &bytes.Buffer{}
	binary.Write(buf, binary.LittleEndian, int32(len(lookup)))
	binary.Write(buf, binary.LittleEndian, lookup)
	for _, rec := range recs {
		// rec[0] is the center, rest are members
		binary.Write(buf, binary.LittleEndian, int32(len(rec)-1))
		binary.Write(buf, binary.LittleEndian, rec)
	}
	return buf
}

func TestStreamDecode(t *testing.T) {
	buf := writeStream([]int32{7, 3, 11, 5}, [][]int32{
		{0, 0, 1, 2},
		{3, 3, 2},
	})
	st, err := OpenStream(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Lookup) != 4 || st.Lookup[2] != 11 {
		t.Fatalf("lookup = %v", st.Lookup)
	}
	r0, err := st.Next()
	if err != nil {
		t.Fatal(err)
	}
	if r0.Seq != 0 || r0.Center != 0 || len(r0.Members) != 3 || r0.Members[2] != 2 {
		t.Errorf("rec 0 = %+v", r0)
	}
	if st.CenterID(r0) != 7 {
		t.Errorf("center id = %v, want 7", st.CenterID(r0))
	}
	r1, err := st.Next()
	if err != nil {
		t.Fatal(err)
	}
	if r1.Seq != 1 || r1.Center != 3 || len(r1.Members) != 2 {
		t.Errorf("rec 1 = %+v", r1)
	}
	if _, err := st.Next(); err != io.EOF {
		t.Errorf("end of stream err = %v, want io.EOF", err)
	}
}

func TestStreamAll(t *testing.T) {
	buf := writeStream([]int32{1, 2}, [][]int32{{0, 0}, {1, 1, 0}})
	st, err := OpenStream(buf)
	if err != nil {
		t.Fatal(err)
	}
	recs, err := st.All()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1].Seq != 1 {
		t.Errorf("recs = %+v", recs)
	}
}

func TestStreamTruncated(t *testing.T) {
	buf := writeStream([]int32{1, 2, 3}, [][]int32{{0, 0, 1}})
	full := buf.Bytes()
	// cut mid-record: drop the last member int32
	st, err := OpenStream(bytes.NewReader(full[:len(full)-4]))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Next(); err == nil || err == io.EOF {
		t.Errorf("truncated record err = %v, want fatal error", err)
	}
}

func TestStreamBadIndex(t *testing.T) {
	buf := writeStream([]int32{1, 2}, [][]int32{{0, 9}})
	st, err := OpenStream(buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Next(); err == nil {
		t.Errorf("member index outside lookup should error")
	}
	buf2 := writeStream([]int32{1, 2}, [][]int32{{5, 0}})
	st2, err := OpenStream(buf2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st2.Next(); err == nil {
		t.Errorf("center index outside lookup should error")
	}
}

func TestStreamEmptyHeader(t *testing.T) {
	if _, err := OpenStream(bytes.NewReader(nil)); err == nil {
		t.Errorf("empty stream should fail to open")
	}
}
