package params

import "reflect"

// typeKey is the reflect.Type of an argument/field, used to look values up
// in the resource map by type identity.
type typeKey = reflect.Type

func typeKeyOf(zero any) typeKey {
	return reflect.TypeOf(zero)
}
