package extract

import (
	"fmt"
	"sort"
	"strings"
)

// violationClass orders violation messages by the check that produced them.
// The class is the primary sort key of the aggregated report; within a
// class, messages sort by the declaring member's canonical string form.
type violationClass int

const (
	classMarker violationClass = iota
	classField
	classMethod
	classPath
	classManagedType
)

// violation is one structural problem found during classification.
type violation struct {
	class   violationClass
	member  string
	message string
}

// violationList accumulates violations across the whole definition scan.
type violationList struct {
	items []violation
}

func (l *violationList) add(class violationClass, member, format string, args ...any) {
	l.items = append(l.items, violation{
		class:   class,
		member:  member,
		message: fmt.Sprintf(format, args...),
	})
}

func (l *violationList) empty() bool {
	return len(l.items) == 0
}

// messages returns every violation message sorted by the stable key
// (message class, then member string form, then the message itself), so
// repeated runs over the same definition produce byte-identical output.
func (l *violationList) messages() []string {
	sorted := make([]violation, len(l.items))
	copy(sorted, l.items)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].class != sorted[j].class {
			return sorted[i].class < sorted[j].class
		}
		if sorted[i].member != sorted[j].member {
			return sorted[i].member < sorted[j].member
		}
		return sorted[i].message < sorted[j].message
	})
	out := make([]string, len(sorted))
	for i, v := range sorted {
		out[i] = v.message
	}
	return out
}

// InvalidRuleSourceError is the aggregated declaration error for one
// definition: a header naming the definition followed by every violation,
// one bullet per problem.
type InvalidRuleSourceError struct {
	// Definition names the offending rule source.
	Definition string
	// Problems holds every violation message in the deterministic order.
	Problems []string
}

func (e *InvalidRuleSourceError) Error() string {
	return fmt.Sprintf("%s is not a valid rule source:\n- %s",
		e.Definition, strings.Join(e.Problems, "\n- "))
}
