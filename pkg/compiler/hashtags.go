package compiler

import "golang.org/x/exp/slices"

// Attribute names accepted after '#'.
const (
	TagNoRet     = "noret"
	TagInline    = "inline"
	TagExtern    = "extern"
	TagStatic    = "static"
	TagUnion     = "union"
	TagNoHelpers = "nohelpers"
)

// DeclKind selects the hashtag vocabulary of a declaration.
type DeclKind int

const (
	DeclFun DeclKind = iota
	DeclRec
	DeclDef
	DeclTag
	DeclTagRec
)

func (k DeclKind) String() string {
	switch k {
	case DeclFun:
		return "fun"
	case DeclRec:
		return "rec"
	case DeclDef:
		return "def"
	case DeclTag:
		return "tag"
	case DeclTagRec:
		return "tag rec"
	}
	return "unknown"
}

// hashtagVocabulary is the closed attribute set per declaration kind.
var hashtagVocabulary = map[DeclKind][]string{
	DeclFun:    {TagNoRet, TagInline, TagExtern, TagStatic},
	DeclRec:    {TagUnion, TagStatic},
	DeclDef:    {TagStatic},
	DeclTag:    {TagStatic, TagNoHelpers},
	DeclTagRec: {TagStatic},
}

// AllowedHashtags returns the attributes valid for kind.
func AllowedHashtags(kind DeclKind) []string {
	return slices.Clone(hashtagVocabulary[kind])
}

func hashtagAllowed(kind DeclKind, tag string) bool {
	return slices.Contains(hashtagVocabulary[kind], tag)
}

func hasTag(tags []string, tag string) bool {
	return slices.Contains(tags, tag)
}
