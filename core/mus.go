// Copyright 2025 Relaydesk
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Durable encoding format versions. Every serialized Record and Cursor
// starts with its format version byte; Unmarshal rejects versions it
// does not understand instead of guessing at field layout.
const (
	recordFormatVersion byte = 1
	cursorFormatVersion byte = 1
)

// Hand-written MUS serializers for the durable representation. Vectors
// are stored as fixed-width little-endian float32 so the decoder is a
// fixed-format parser, never a generic evaluation mechanism. Timestamps
// are stored as Unix microseconds.
var (
	IDMUS     = idMUS{}
	RecordMUS = recordMUS{}
	CursorMUS = cursorMUS{}

	vectorMUS   = ord.NewSliceSer[float32](raw.Float32)
	metadataMUS = ord.NewMapSer[string, string](ord.String, ord.String)
	seenIDsMUS  = ord.NewSliceSer[string](ord.String)
)

var (
	_ mus.Serializer[ID]     = IDMUS
	_ mus.Serializer[Record] = RecordMUS
	_ mus.Serializer[Cursor] = CursorMUS
)

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type recordMUS struct{}

func (recordMUS) Marshal(r Record, bs []byte) (n int) {
	n = raw.Byte.Marshal(recordFormatVersion, bs)
	n += IDMUS.Marshal(r.Id, bs[n:])
	n += ord.String.Marshal(r.SourceID, bs[n:])
	n += ord.String.Marshal(r.Text, bs[n:])
	n += varint.Int64.Marshal(r.Timestamp.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(r.IngestedAt.UnixMicro(), bs[n:])
	n += metadataMUS.Marshal(r.Metadata, bs[n:])
	n += vectorMUS.Marshal(r.Vector, bs[n:])
	return n
}

func (recordMUS) Unmarshal(bs []byte) (r Record, n int, err error) {
	version, n, err := raw.Byte.Unmarshal(bs)
	if err != nil {
		return
	}
	if version != recordFormatVersion {
		err = fmt.Errorf("%w: record version %d", ErrUnsupportedFormat, version)
		return
	}
	var n1 int
	if r.Id, n1, err = IDMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.SourceID, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	r.Timestamp = time.UnixMicro(micros).UTC()
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	r.IngestedAt = time.UnixMicro(micros).UTC()
	if r.Metadata, n1, err = metadataMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	if r.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return r, n + n1, err
	}
	n += n1
	return r, n, nil
}

func (recordMUS) Size(r Record) (size int) {
	size = raw.Byte.Size(recordFormatVersion)
	size += IDMUS.Size(r.Id)
	size += ord.String.Size(r.SourceID)
	size += ord.String.Size(r.Text)
	size += varint.Int64.Size(r.Timestamp.UnixMicro())
	size += varint.Int64.Size(r.IngestedAt.UnixMicro())
	size += metadataMUS.Size(r.Metadata)
	size += vectorMUS.Size(r.Vector)
	return size
}

func (s recordMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}

type cursorMUS struct{}

func (cursorMUS) Marshal(c Cursor, bs []byte) (n int) {
	n = raw.Byte.Marshal(cursorFormatVersion, bs)
	n += varint.Int64.Marshal(c.LastTimestamp.UnixMicro(), bs[n:])
	n += seenIDsMUS.Marshal(c.SeenIDs, bs[n:])
	n += varint.Int64.Marshal(c.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (cursorMUS) Unmarshal(bs []byte) (c Cursor, n int, err error) {
	version, n, err := raw.Byte.Unmarshal(bs)
	if err != nil {
		return
	}
	if version != cursorFormatVersion {
		err = fmt.Errorf("%w: cursor version %d", ErrUnsupportedFormat, version)
		return
	}
	var (
		n1     int
		micros int64
	)
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	c.LastTimestamp = time.UnixMicro(micros).UTC()
	if c.SeenIDs, n1, err = seenIDsMUS.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return c, n + n1, err
	}
	n += n1
	c.UpdatedAt = time.UnixMicro(micros).UTC()
	return c, n, nil
}

func (cursorMUS) Size(c Cursor) (size int) {
	size = raw.Byte.Size(cursorFormatVersion)
	size += varint.Int64.Size(c.LastTimestamp.UnixMicro())
	size += seenIDsMUS.Size(c.SeenIDs)
	size += varint.Int64.Size(c.UpdatedAt.UnixMicro())
	return size
}

func (s cursorMUS) Skip(bs []byte) (int, error) {
	_, n, err := s.Unmarshal(bs)
	return n, err
}
