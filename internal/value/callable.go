package value

// Callable is implemented by every value that can appear as a call target.
type Callable interface {
	Arity() int
	Name() string
	String() string
}

// NativeHandler implements a host function. args has exactly Arity entries.
type NativeHandler func(args []Value) (Value, error)

// Native is a function implemented in Go.
type Native struct {
	FnName    string
	NumParams int
	Fn        NativeHandler
}

func (n *Native) Arity() int     { return n.NumParams }
func (n *Native) Name() string   { return n.FnName }
func (n *Native) String() string { return "<native fn>" }

// Call invokes the handler.
func (n *Native) Call(args []Value) (Value, error) {
	return n.Fn(args)
}
