// Package frame decodes Atom dosimeter notification frames.
//
// # Frame Layout
//
// Every notification is exactly 13 bytes, little-endian:
//
//	offset  size  field
//	0       1     status flags (reserved, ignored)
//	1       4     float32 cumulative dose (mSv)
//	5       4     float32 dose rate (µSv/h)
//	9       2     uint16 counts in the last 2 seconds
//	11      1     uint8 battery percentage
//	12      1     int8 temperature (°C, two's complement)
//
// The device reports counts per interval, not a running total. The decoder
// keeps a Counter so each Sample carries the total since the session began.
// A Decoder is created per connection, which resets the total.
package frame
