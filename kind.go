package inkframe

import (
	"mime"
	"path"
	"strings"
)

// ArtifactKind selects the committed filename and the renderer for a download.
type ArtifactKind int

const (
	// KindCompressedDithered is a JPEG the server has already dithered for the panel.
	KindCompressedDithered ArtifactKind = iota + 1
	// KindCompressedStandard is a plain JPEG; the client dithers it.
	KindCompressedStandard
	// KindRawPacked is a 64-byte header followed by 4-bit packed palette indices.
	KindRawPacked
)

// kindTable is ordered most specific first: ".dithered.jpg" also ends in ".jpg".
var kindTable = []struct {
	suffix string
	kind   ArtifactKind
}{
	{".dithered.jpg", KindCompressedDithered},
	{".jpg", KindCompressedStandard},
	{".bin", KindRawPacked},
}

// ResolveKind maps a filename hint to a supported kind. The second result is
// false for anything the table does not list.
func ResolveKind(hint string) (ArtifactKind, bool) {
	for _, e := range kindTable {
		if strings.HasSuffix(hint, e.suffix) {
			return e.kind, true
		}
	}
	return 0, false
}

// Suffix returns the filename suffix that identifies the kind.
func (k ArtifactKind) Suffix() string {
	for _, e := range kindTable {
		if e.kind == k {
			return e.suffix
		}
	}
	return ""
}

// Filename is the fixed destination name the kind is committed under.
func (k ArtifactKind) Filename() string {
	if s := k.Suffix(); s != "" {
		return "latest" + s
	}
	return ""
}

// Dithered reports whether the server already dithered the artifact.
func (k ArtifactKind) Dithered() bool { return k == KindCompressedDithered }

func (k ArtifactKind) String() string {
	switch k {
	case KindCompressedDithered:
		return "compressed-dithered"
	case KindCompressedStandard:
		return "compressed"
	case KindRawPacked:
		return "raw-packed"
	default:
		return "unknown"
	}
}

// DispositionFilename extracts the filename a Content-Disposition header
// announces. Headers that do not parse are returned with quotes trimmed so the
// suffix still decides.
func DispositionFilename(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return path.Base(name)
		}
	}
	return strings.Trim(header, `"' `)
}
