package runner

// Action is the change required to bring a declaration in line with the
// live service.
type Action string

const (
	ActionAdd                 Action = "ADD"
	ActionAddDeprecated       Action = "ADD_DEPRECATED"
	ActionUpdateDeprecated    Action = "UPDATE_DEPRECATED"
	ActionUpdateNotDeprecated Action = "UPDATE_NOT_DEPRECATED"
	ActionRemove              Action = "REMOVE"
)

// Actions lists every action in report order.
var Actions = []Action{
	ActionAdd,
	ActionAddDeprecated,
	ActionUpdateDeprecated,
	ActionUpdateNotDeprecated,
	ActionRemove,
}

// Results holds the reconciled versions per action. Each bucket keeps the
// order in which its versions were found.
type Results[T any] struct {
	Add                 []DeprecableVersion[T]
	AddDeprecated       []DeprecableVersion[T]
	UpdateDeprecated    []DeprecableVersion[T]
	UpdateNotDeprecated []DeprecableVersion[T]
	Remove              []DeprecableVersion[T]
}

// Bucket returns the versions reconciled to action.
func (r Results[T]) Bucket(action Action) []DeprecableVersion[T] {
	switch action {
	case ActionAdd:
		return r.Add
	case ActionAddDeprecated:
		return r.AddDeprecated
	case ActionUpdateDeprecated:
		return r.UpdateDeprecated
	case ActionUpdateNotDeprecated:
		return r.UpdateNotDeprecated
	case ActionRemove:
		return r.Remove
	default:
		return nil
	}
}

// Len returns the number of versions across every bucket.
func (r Results[T]) Len() int {
	return len(r.Add) + len(r.AddDeprecated) + len(r.UpdateDeprecated) + len(r.UpdateNotDeprecated) + len(r.Remove)
}

// Reconcile compares the declared versions with the live ones.
//
// A declared version with no live counterpart is removed unless it is
// already deprecated. A declared version whose live counterpart has a
// different deprecation status is updated, using the live version. A live
// version with no declared counterpart is added, as deprecated when the live
// service says so. Versions present on both sides with the same status are
// left out.
func Reconcile[T any](declared, live []DeprecableVersion[T], identity func(declared, live T) bool) Results[T] {
	var results Results[T]

	for _, d := range declared {
		l, ok := find(live, func(l T) bool { return identity(d.Version, l) })
		switch {
		case !ok:
			if !d.IsDeprecated {
				results.Remove = append(results.Remove, d)
			}
		case d.IsDeprecated != l.IsDeprecated:
			if l.IsDeprecated {
				results.UpdateDeprecated = append(results.UpdateDeprecated, l)
			} else {
				results.UpdateNotDeprecated = append(results.UpdateNotDeprecated, l)
			}
		}
	}

	for _, l := range live {
		if _, ok := find(declared, func(d T) bool { return identity(d, l.Version) }); ok {
			continue
		}
		if l.IsDeprecated {
			results.AddDeprecated = append(results.AddDeprecated, l)
		} else {
			results.Add = append(results.Add, l)
		}
	}

	return results
}

func find[T any](versions []DeprecableVersion[T], match func(T) bool) (DeprecableVersion[T], bool) {
	for _, v := range versions {
		if match(v.Version) {
			return v, true
		}
	}
	return DeprecableVersion[T]{}, false
}
