// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sessionstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// magic is the 4-byte sentinel at the start of every `.agcx`/`.ckpt`
// container (spec §6).
var magic = [4]byte{'A', 'G', 'C', 'X'}

const headerSize = 4 + 4 + 8 // magic + version(u32 LE) + length(u64 LE)

// encodeContainer serializes data with gob, compresses it at level,
// and frames it with the magic/version/length header. It returns the
// full container bytes plus the uncompressed and compressed sizes
// (the caller uses these for Metadata.CompressionRatio).
func encodeContainer(data Data, level zstd.EncoderLevel) (container []byte, rawSize, compressedSize int64, err error) {
	var raw bytes.Buffer
	if err := gob.NewEncoder(&raw).Encode(data); err != nil {
		return nil, 0, 0, &SerializationError{Msg: "encode payload", Cause: err}
	}
	rawSize = int64(raw.Len())

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, 0, 0, &CompressionError{Msg: "new encoder", Cause: err}
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw.Bytes(), nil)
	compressedSize = int64(len(compressed))

	out := make([]byte, 0, headerSize+len(compressed))
	out = append(out, magic[:]...)
	var versionBuf [4]byte
	binary.LittleEndian.PutUint32(versionBuf[:], FormatVersion)
	out = append(out, versionBuf[:]...)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(compressed)))
	out = append(out, lenBuf[:]...)
	out = append(out, compressed...)

	return out, rawSize, compressedSize, nil
}

// migrations maps a (from, to) format-version pair to a payload
// transform applied after decoding. A version mismatch is migrated only
// when an exact plan for that pair is registered here; every other
// mismatch surfaces as IncompatibleVersionError. The gob payload itself
// is self-describing, so old payloads decode into the current Data
// shape before the transform runs.
var migrations = map[[2]uint32]func(Data) (Data, error){}

// decodeContainer parses and validates the header, decompresses the
// payload, and gob-decodes it into a Data. It rejects a magic mismatch
// with InvalidFormatError; a version mismatch is either migrated (when
// a plan exists) or rejected with IncompatibleVersionError before the
// payload is used.
func decodeContainer(container []byte) (Data, error) {
	if len(container) < headerSize {
		return Data{}, &InvalidFormatError{Why: "truncated header"}
	}
	if !bytes.Equal(container[:4], magic[:]) {
		return Data{}, &InvalidFormatError{Why: "bad magic"}
	}
	version := binary.LittleEndian.Uint32(container[4:8])
	var migrate func(Data) (Data, error)
	if version != FormatVersion {
		var ok bool
		migrate, ok = migrations[[2]uint32{version, FormatVersion}]
		if !ok {
			return Data{}, &IncompatibleVersionError{Expected: FormatVersion, Actual: version}
		}
	}
	length := binary.LittleEndian.Uint64(container[8:16])
	payload := container[16:]
	if uint64(len(payload)) != length {
		return Data{}, &InvalidFormatError{Why: fmt.Sprintf("payload length mismatch: header says %d, got %d", length, len(payload))}
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return Data{}, &CompressionError{Msg: "new decoder", Cause: err}
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return Data{}, &CompressionError{Msg: "decompress", Cause: err}
	}

	var data Data
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&data); err != nil {
		return Data{}, &SerializationError{Msg: "decode payload", Cause: err}
	}
	if migrate != nil {
		migrated, err := migrate(data)
		if err != nil {
			return Data{}, &InvalidFormatError{Why: fmt.Sprintf("migration from version %d failed: %v", version, err)}
		}
		migrated.Metadata.FormatVersion = FormatVersion
		return migrated, nil
	}
	return data, nil
}

// readHeader checks just the magic of r and returns the header's version
// and payload length without reading the (possibly large) payload; the
// version is not compared against FormatVersion. Used by index rebuild
// to cheaply skip unrelated files.
func readHeader(r io.Reader) (version uint32, length uint64, err error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, &InvalidFormatError{Why: "truncated header"}
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		return 0, 0, &InvalidFormatError{Why: "bad magic"}
	}
	version = binary.LittleEndian.Uint32(hdr[4:8])
	length = binary.LittleEndian.Uint64(hdr[8:16])
	return version, length, nil
}
