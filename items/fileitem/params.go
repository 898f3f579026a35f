package fileitem

// Params is this item's resolved Params (Value), the P type parameter of
// item.Item: Dest is where the file lives, Contents is the
// literal content it should hold.
type Params struct {
	Dest     string
	Contents string
}

// Partial is Params with every field optional:
// hand-written, as Go has no params_derive macro to generate it (item.go's
// doc comment on the Item interface).
type Partial struct {
	Dest     *string
	Contents *string
}
