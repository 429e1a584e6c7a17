// Package column defines the typed values frame files carry.
//
// A Kind is the type token of a column. Its String form is the type name the
// adapter reports, and GoType is the reflect.Type readers are checked against
// when they bind. Values are encoded with Encode and decoded into a Holder,
// the per-session storage whose address the adapter hands out.
package column
