// Package netpbm reads and writes binary Netpbm images (P4, P5, P6).
//
// # Header Grammar
//
// Every file starts with a two byte magic number followed by decimal ASCII
// tokens: width and height, plus a max value for P5 and P6. Runs of whitespace
// and '#' comments (to end of line) may appear before every token. Exactly one
// whitespace byte separates the last token from the pixel data.
//
// # Pixel Layout
//
// P4 rows are packed 8 pixels per byte, most significant bit first, and every
// row starts on a byte boundary (ceil(width/8) bytes per row). On encode, the
// unused low-order bits of each row's final byte are written as 0.
//
// This package uses bit 1 for white and bit 0 for black. That is the INVERSE of
// the canonical Netpbm definition. Files written here decode back to the same
// pixels, but other tools will show them with black and white swapped.
//
// P5 and P6 store one or two bytes per sample depending on the max value, with
// two-byte samples big-endian.
//
// P7 (PAM) and the plain-text forms P1 to P3 are not supported and are
// rejected as raster.ErrInvalidFormat.
//
// # Registration
//
// Importing this package registers the three formats with the standard image
// package, so image.Decode and image.DecodeConfig accept Netpbm streams.
package netpbm
