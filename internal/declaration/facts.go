package declaration

// StaticFieldFact is a `static readonly` field of a class.
type StaticFieldFact struct {
	ClassName    string `yaml:"class"`
	FieldName    string `yaml:"field"`
	IsDeprecated bool   `yaml:"deprecated"`

	// FieldValue is the initializer text, or the type annotation when the
	// field has no initializer (as in .d.ts files).
	FieldValue string `yaml:"value,omitempty"`
	// Summary is the summary section of the field's doc comment.
	Summary string `yaml:"summary,omitempty"`
}

// EnumMemberFact is a string-valued member of an enum.
type EnumMemberFact struct {
	EnumName     string `yaml:"enum"`
	MemberName   string `yaml:"member"`
	MemberValue  string `yaml:"value"`
	IsDeprecated bool   `yaml:"deprecated"`

	Summary string `yaml:"summary,omitempty"`
}

// mergeFacts keeps the first occurrence of every key in document order and
// ORs the deprecation flag of later duplicates into it. merge is called with
// the kept fact and the duplicate.
func mergeFacts[F any](facts []F, key func(F) string, merge func(kept *F, dup F)) []F {
	index := make(map[string]int, len(facts))
	merged := make([]F, 0, len(facts))
	for _, fact := range facts {
		k := key(fact)
		if i, ok := index[k]; ok {
			merge(&merged[i], fact)
			continue
		}
		index[k] = len(merged)
		merged = append(merged, fact)
	}
	return merged
}

func mergeStaticField(kept *StaticFieldFact, dup StaticFieldFact) {
	kept.IsDeprecated = kept.IsDeprecated || dup.IsDeprecated
	if kept.FieldValue == "" {
		kept.FieldValue = dup.FieldValue
	}
	if kept.Summary == "" {
		kept.Summary = dup.Summary
	}
}

func mergeEnumMember(kept *EnumMemberFact, dup EnumMemberFact) {
	kept.IsDeprecated = kept.IsDeprecated || dup.IsDeprecated
	if kept.Summary == "" {
		kept.Summary = dup.Summary
	}
}
