package release

import "fmt"

// ValueKind tags the variant held by a Value.
type ValueKind string

const (
	KindString     ValueKind = "string"
	KindInt        ValueKind = "int"
	KindSemver     ValueKind = "semver"
	KindStringList ValueKind = "string_list"
	KindBlob       ValueKind = "blob"
)

// SemverTriple is the major.minor.patch representation the store uses for
// versions; pre-release/build metadata travels alongside it as a string
// value under a separate key rather than inside the triple.
type SemverTriple struct {
	Major int
	Minor int
	Patch int
}

func (s SemverTriple) String() string {
	return fmt.Sprintf("%d.%d.%d", s.Major, s.Minor, s.Patch)
}

// Value is the tagged-union payload type the state store holds under every
// key. Exactly one of the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind       ValueKind
	String     string
	Int        int
	Semver     SemverTriple
	StringList []string
	Blob       interface{}
}

func StringValue(s string) Value           { return Value{Kind: KindString, String: s} }
func IntValue(i int) Value                 { return Value{Kind: KindInt, Int: i} }
func SemverValue(v SemverTriple) Value     { return Value{Kind: KindSemver, Semver: v} }
func StringListValue(ss []string) Value    { return Value{Kind: KindStringList, StringList: ss} }
func BlobValue(v interface{}) Value        { return Value{Kind: KindBlob, Blob: v} }

// RollbackOp is a reversible side effect a plugin registered while running a
// step, in a dry run or a real run. The store keeps recorded ops as Blob
// values and the runner unwinds them in LIFO order on cancellation, on a
// fatal step failure, and at the end of every dry run.
type RollbackOp interface {
	Revert() error
}
