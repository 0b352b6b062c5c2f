// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package layout describes fixed-offset fields of on-disk structures.
//
// Each format declares its own table of fields with explicit width and
// byte order, there is no "native" byte order.
package layout

import (
	"encoding/binary"
	"fmt"
)

// Field is a single field of an on-disk structure.
type Field struct {
	// Order is nil for raw byte arrays.
	Order binary.ByteOrder

	Offset int
	Width  int
}

// LE declares a little-endian integer field.
func LE(offset, width int) Field {
	return Field{Order: binary.LittleEndian, Offset: offset, Width: width}
}

// BE declares a big-endian integer field.
func BE(offset, width int) Field {
	return Field{Order: binary.BigEndian, Offset: offset, Width: width}
}

// Raw declares a byte array field.
func Raw(offset, width int) Field {
	return Field{Offset: offset, Width: width}
}

// BothEndian declares an ISO9660 both-endian field: the value is stored
// little-endian first, then big-endian, each copy width/2 bytes.
//
// Only the little-endian copy is read.
func BothEndian(offset, width int) Field {
	return Field{Order: binary.LittleEndian, Offset: offset, Width: width / 2}
}

// End returns the offset just past the field.
func (f Field) End() int {
	return f.Offset + f.Width
}

// WithOrder returns a copy of the field with a different byte order.
func (f Field) WithOrder(order binary.ByteOrder) Field {
	f.Order = order

	return f
}

// Bytes returns the raw contents of the field.
func (f Field) Bytes(buf []byte) []byte {
	return buf[f.Offset:f.End()]
}

// Put copies v into the field, v is truncated or zero-padded to the field width.
func (f Field) Put(buf, v []byte) {
	dst := buf[f.Offset:f.End()]

	clear(dst)
	copy(dst, v)
}

// Uint8 reads a single byte field.
func (f Field) Uint8(buf []byte) uint8 {
	f.check(1)

	return buf[f.Offset]
}

// Uint16 reads a 16-bit field.
func (f Field) Uint16(buf []byte) uint16 {
	f.check(2)

	return f.Order.Uint16(buf[f.Offset:f.End()])
}

// Uint32 reads a 32-bit field.
func (f Field) Uint32(buf []byte) uint32 {
	f.check(4)

	return f.Order.Uint32(buf[f.Offset:f.End()])
}

// Uint64 reads a 64-bit field.
func (f Field) Uint64(buf []byte) uint64 {
	f.check(8)

	return f.Order.Uint64(buf[f.Offset:f.End()])
}

// PutUint8 writes a single byte field.
func (f Field) PutUint8(buf []byte, v uint8) {
	f.check(1)

	buf[f.Offset] = v
}

// PutUint16 writes a 16-bit field.
func (f Field) PutUint16(buf []byte, v uint16) {
	f.check(2)

	f.Order.PutUint16(buf[f.Offset:f.End()], v)
}

// PutUint32 writes a 32-bit field.
func (f Field) PutUint32(buf []byte, v uint32) {
	f.check(4)

	f.Order.PutUint32(buf[f.Offset:f.End()], v)
}

// PutUint64 writes a 64-bit field.
func (f Field) PutUint64(buf []byte, v uint64) {
	f.check(8)

	f.Order.PutUint64(buf[f.Offset:f.End()], v)
}

// PutBothEndian32 writes both copies of an ISO9660 both-endian 32-bit field.
func (f Field) PutBothEndian32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf[f.Offset:], v)
	binary.BigEndian.PutUint32(buf[f.Offset+4:], v)
}

// PutBothEndian16 writes both copies of an ISO9660 both-endian 16-bit field.
func (f Field) PutBothEndian16(buf []byte, v uint16) {
	binary.LittleEndian.PutUint16(buf[f.Offset:], v)
	binary.BigEndian.PutUint16(buf[f.Offset+2:], v)
}

// check panics on programming errors in field tables.
func (f Field) check(width int) {
	if f.Width != width || (width > 1 && f.Order == nil) {
		panic(fmt.Sprintf("layout: field at %d is %d bytes wide (order %v), accessed as %d", f.Offset, f.Width, f.Order, width))
	}
}
