// Package raster defines the in-memory pixel container shared by the codec and
// the analysis packages.
//
// A Buffer owns one contiguous byte slice. Its layout is fully described by the
// Kind, Width, Height, Channels and MaxValue fields:
//
//   - KindBinary: 1 bit per pixel, rows padded to a whole byte, MSB first.
//     A set bit is white (foreground), a clear bit is black. This is the inverse
//     of the canonical Netpbm PBM convention.
//   - KindGray: one channel, 1 or 2 bytes per sample.
//   - KindRGB: three interleaved channels, 1 or 2 bytes per sample.
//
// Two-byte samples are stored big-endian, matching the Netpbm wire format.
//
// # Masks
//
// The analysis packages work on 8-bit masks: Gray buffers where 0xFF marks a
// foreground pixel. Unpack and Pack convert between masks and Binary buffers.
//
// # Ownership
//
// Buffers never share backing storage. Every operation in this module that
// returns a Buffer returns a fresh one; use Clone when an explicit copy is needed.
package raster
