package schema

// GenericValue is the runtime value of a Generic-kind field: the concrete
// descriptor the writer chose, plus the payload it wrote (spec.md §4.4
// "Generic (any)"). On read with no locally matching type, Type may be a
// *TypeReader that can still decode the shape (and, in the worst case,
// produce nested GenericValue/map placeholders) even though it isn't a
// locally registered type — resolving the Open Question of what a
// generic-typed field decodes to under schema mismatch.
type GenericValue struct {
	Type  Descriptor
	Value interface{}
}

// GenericType is the Descriptor for a field whose static type is "any":
// write emits a type reference via the Mapping Stream, then the wrapped
// value via that type's own Write; read is the mirror image.
type GenericType struct {
	TypeName string
}

func (g *GenericType) Name() string { return g.TypeName }
func (g *GenericType) Kind() Kind   { return KindGeneric }

func (g *GenericType) Write(ctx Context, value interface{}) error {
	gv, ok := value.(GenericValue)
	if !ok {
		return errUnexpectedType("GenericType.Write", g.TypeName, value)
	}
	if err := ctx.WriteTypeRef(gv.Type); err != nil {
		return err
	}
	return gv.Type.Write(ctx, gv.Value)
}

func (g *GenericType) Read(ctx Context) (interface{}, error) {
	d, err := ctx.ReadTypeRef()
	if err != nil {
		return nil, err
	}
	if d == nil {
		return GenericValue{}, nil
	}
	v, err := d.Read(ctx)
	if err != nil {
		return nil, err
	}
	return GenericValue{Type: d, Value: v}, nil
}

func (g *GenericType) Equal(a, b interface{}) bool {
	ga, aok := a.(GenericValue)
	gb, bok := b.(GenericValue)
	if !aok || !bok {
		return equalFallback(a, b)
	}
	if ga.Type == nil || gb.Type == nil || ga.Type.Name() != gb.Type.Name() {
		return equalFallback(a, b)
	}
	return ga.Type.Equal(ga.Value, gb.Value)
}

func (g *GenericType) WriteDelta(ctx Context, value, reference interface{}) error {
	return DefaultWriteDelta(ctx, g, value, reference)
}

func (g *GenericType) WriteRawDelta(ctx Context, value, reference interface{}) error {
	return g.Write(ctx, value)
}

func (g *GenericType) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	return DefaultReadDelta(ctx, g, reference)
}

func (g *GenericType) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	return g.Read(ctx)
}
