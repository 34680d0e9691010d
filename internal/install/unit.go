package install

// Kind identifies which batch a unit belongs to.
type Kind int

const (
	KindDriver Kind = iota
	KindFramework
	KindApp
)

func (k Kind) String() string {
	switch k {
	case KindDriver:
		return "driver"
	case KindFramework:
		return "framework"
	case KindApp:
		return "app"
	default:
		return "unknown"
	}
}

// Unit is one installable artifact.
type Unit struct {
	Kind Kind
	Path string
	// License is the descriptor paired with a package, if one exists.
	License string
}

// Batch is an ordered group of units of one kind.
type Batch struct {
	Kind  Kind
	Units []Unit
}
