package gate

import (
	"fmt"
	"reflect"
)

// Marker tags a handler argument with the kind of value it expects
type Marker string

// Binding declares a named handler argument: what marker it carries and
// what type the handler expects
type Binding struct {
	Name   string
	Marker Marker
	Type   reflect.Type
}

// Bind declares a binding. sample is a (typically nil) value of the
// expected type, e.g. (*members.Member)(nil).
func Bind(name string, marker Marker, sample interface{}) Binding {
	return Binding{Name: name, Marker: marker, Type: reflect.TypeOf(sample)}
}

func (b Binding) String() string {
	return fmt.Sprintf("%s(@%s %v)", b.Name, b.Marker, b.Type)
}

// Resolution is either Found(value) or Absent
type Resolution struct {
	value interface{}
	found bool
}

// Absent is the resolution of a value that is not available
var Absent = Resolution{}

// Found ...
func Found(value interface{}) Resolution {
	return Resolution{value: value, found: true}
}

// Value returns the resolved value and whether it was found
func (r Resolution) Value() (interface{}, bool) {
	return r.value, r.found
}

// Present ...
func (r Resolution) Present() bool {
	return r.found
}

// ArgumentResolver supplies values for handler bindings
type ArgumentResolver interface {
	Supports(b Binding) bool
	Resolve(ex *Exchange, b Binding) Resolution
}
