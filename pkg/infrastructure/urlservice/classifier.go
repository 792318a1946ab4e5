package urlservice

import (
	"strings"

	"github.com/WangYihang/index-crawler/pkg/domain/entity"
)

// DefaultDenylist lists extensions that are never worth a second look
// unless they are explicitly targeted
var DefaultDenylist = []string{
	// media
	"mp4", "mkv", "avi", "mov", "wmv", "flv", "webm", "mp3", "flac", "wav", "ogg", "m4a",
	"jpg", "jpeg", "png", "gif", "bmp", "webp", "svg", "ico",
	// documents
	"pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "nfo", "md", "rtf", "epub",
	// other archive kinds
	"7z", "rar", "tar", "gz", "bz2", "xz", "zst", "tgz",
	// disk images
	"iso", "img", "bin", "cue", "chd", "dmg", "vhd", "vmdk",
	// checksums and metadata
	"sha1", "md5", "sfv", "torrent", "xml", "dat", "json",
}

// ParseExtensions splits a comma separated extension list.
// Entries are trimmed, lowercased and stripped of leading dots; empties are dropped.
func ParseExtensions(list string) []string {
	seen := make(map[string]bool)
	var exts []string
	for _, raw := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimLeft(strings.TrimSpace(raw), "."))
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}
	return exts
}

// Classify classifies url against the target extensions.
// Target extensions are checked first, then the trailing slash.
func Classify(url string, extensions []string) entity.LinkKind {
	if hasExtension(strings.ToLower(url), extensions) {
		return entity.TargetFile
	}
	if strings.HasSuffix(url, "/") {
		return entity.Directory
	}
	return entity.Ignored
}

func hasExtension(lower string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(lower, "."+ext) {
			return true
		}
	}
	return false
}

// Classifier implements service.LinkClassifier
type Classifier struct {
	extensions []string
	denylist   []string
}

// NewClassifier creates a classifier.
// Targeted extensions are removed from the denylist.
func NewClassifier(extensions []string, denylist []string) *Classifier {
	targeted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		targeted[ext] = true
	}

	var deny []string
	for _, ext := range denylist {
		ext = strings.ToLower(strings.TrimLeft(ext, "."))
		if ext != "" && !targeted[ext] {
			deny = append(deny, ext)
		}
	}

	return &Classifier{
		extensions: extensions,
		denylist:   deny,
	}
}

// Classify implements service.LinkClassifier
func (c *Classifier) Classify(url string) entity.LinkKind {
	return Classify(url, c.extensions)
}

// IsDenied implements service.LinkClassifier.
// Directories and target files are never denied.
func (c *Classifier) IsDenied(url string) bool {
	if c.Classify(url) != entity.Ignored {
		return false
	}
	return hasExtension(strings.ToLower(url), c.denylist)
}

// Extensions returns the target extensions
func (c *Classifier) Extensions() []string {
	return c.extensions
}
