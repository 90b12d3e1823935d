package database

import "strings"

// JoinPath joins path segments with "/"
func JoinPath(segments ...string) string {
	return strings.Join(segments, "/")
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// IsDocumentPath reports whether path addresses a document (collection/id pairs)
func IsDocumentPath(path string) bool {
	if path == "" {
		return false
	}
	segments := splitPath(path)
	for _, s := range segments {
		if s == "" {
			return false
		}
	}
	return len(segments)%2 == 0
}

// ParentPath returns the collection path that holds the document at path
func ParentPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return ""
	}
	return path[:i]
}

// DocumentID returns the last segment of a document path
func DocumentID(path string) string {
	return path[strings.LastIndex(path, "/")+1:]
}

// CollectionName returns the name of the collection a document lives in,
// e.g. "streams" for "colleges/GEC/degrees/btech/streams/cse".
func CollectionName(path string) string {
	return DocumentID(ParentPath(path))
}
