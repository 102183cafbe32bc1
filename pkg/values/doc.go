/*
Package values implements the tagged variant value system shared by the
object store and the snapshot codec.

A Var holds one of: integer, float, string, error code, object reference,
list of Vars, or the distinguished Clear/None values. The numeric kind tags
double as the on-disk type ordinals in the snapshot format, so they are
fixed for all time.

Vars have value semantics. List-producing operations (ListAppend,
SetRemove, Enlist) return fresh lists and never mutate their arguments,
which keeps aliasing out of the object store: two objects can safely share
a contents list that one of them later shrinks.

Object relationship fields (parents, children, location, contents) are
general Vars so that single-inheritance stores can keep a scalar object
reference where multiple-inheritance stores keep a list. The predicates
ObjOrListOfObjs and ListOfObjs express the structural constraints the
snapshot validator enforces on those fields.
*/
package values
