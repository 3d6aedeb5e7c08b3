package tsdoc

// TagKind is the syntactic role of a tag.
type TagKind int

const (
	// BlockTag starts a new section that runs until the next block tag.
	BlockTag TagKind = iota
	// ModifierTag is a flag with no content, such as @internal.
	ModifierTag
)

// Standard block tags.
const (
	TagDeprecated     = "@deprecated"
	TagRemarks        = "@remarks"
	TagExample        = "@example"
	TagReturns        = "@returns"
	TagParam          = "@param"
	TagTypeParam      = "@typeParam"
	TagThrows         = "@throws"
	TagSee            = "@see"
	TagDefaultValue   = "@defaultValue"
	TagPrivateRemarks = "@privateRemarks"
)

// standardTags lists the tags with a known role. Tags missing from it are
// kept as plain text in the section they appear in.
var standardTags = map[string]TagKind{
	TagDeprecated:     BlockTag,
	TagRemarks:        BlockTag,
	TagExample:        BlockTag,
	TagReturns:        BlockTag,
	TagParam:          BlockTag,
	TagTypeParam:      BlockTag,
	TagThrows:         BlockTag,
	TagSee:            BlockTag,
	TagDefaultValue:   BlockTag,
	TagPrivateRemarks: BlockTag,

	"@alpha":                ModifierTag,
	"@beta":                 ModifierTag,
	"@eventProperty":        ModifierTag,
	"@experimental":         ModifierTag,
	"@internal":             ModifierTag,
	"@override":             ModifierTag,
	"@packageDocumentation": ModifierTag,
	"@public":               ModifierTag,
	"@readonly":             ModifierTag,
	"@sealed":               ModifierTag,
	"@virtual":              ModifierTag,
}

// LookupTag reports the role of a tag name (including its "@").
func LookupTag(name string) (TagKind, bool) {
	kind, ok := standardTags[name]
	return kind, ok
}
