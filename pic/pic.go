/*
Package pic implements a decoder for the PIC images used by the Fighters
Anthology family of flight simulators.

A PIC file starts with a 42 byte header describing the image dimensions and
four regions within the same file; the pixel data, an optional embedded
palette, a table of spans and a table of row heads. Each span covers a run of
columns on a single row and points at the first of its palette indices in the
pixel data. Indices below the size of the embedded palette use that palette,
anything else uses the shared system palette. Pixels not covered by any span
are left transparent.

All integers are little-endian. The last record in the span table is a
terminator and is never decoded. Only format 1 files are handled.
*/
package pic

const (
	// FormatSpans is the only supported format discriminator
	FormatSpans = 1

	headerSize = 42
	spanSize   = 10
)
