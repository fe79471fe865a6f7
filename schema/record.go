package schema

// RecordField is one field of a Record type: a name, a Descriptor, and
// accessor closures operating on the opaque record value (the
// non-class-based analogue of PropertyField — records have no factory
// dispatch or ancestor chain, just a flat ordered field list, per spec.md
// §4.4 "Record (streamable)").
type RecordField struct {
	Name string
	Type Descriptor
	Get  func(value interface{}) interface{}
	Set  func(value interface{}, fieldValue interface{})
}

// RecordType is the Descriptor for streamable records: plain tuples of
// named fields with no polymorphism, grounded on the teacher's
// framework/binary/schema/struct.go Struct type.
type RecordType struct {
	TypeName string
	Fields   []RecordField
	New      func() interface{}
}

func (r *RecordType) Name() string { return r.TypeName }
func (r *RecordType) Kind() Kind   { return KindRecord }

func (r *RecordType) FieldIndex(name string) int {
	for i, f := range r.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (r *RecordType) Write(ctx Context, value interface{}) error {
	for _, f := range r.Fields {
		if err := f.Type.Write(ctx, f.Get(value)); err != nil {
			return err
		}
	}
	return nil
}

func (r *RecordType) Read(ctx Context) (interface{}, error) {
	v := r.New()
	for _, f := range r.Fields {
		fv, err := f.Type.Read(ctx)
		if err != nil {
			return nil, err
		}
		f.Set(v, fv)
	}
	return v, nil
}

func (r *RecordType) Equal(a, b interface{}) bool {
	for _, f := range r.Fields {
		if !f.Type.Equal(f.Get(a), f.Get(b)) {
			return false
		}
	}
	return true
}

func (r *RecordType) WriteDelta(ctx Context, value, reference interface{}) error {
	return DefaultWriteDelta(ctx, r, value, reference)
}

func (r *RecordType) WriteRawDelta(ctx Context, value, reference interface{}) error {
	for _, f := range r.Fields {
		if err := f.Type.WriteDelta(ctx, f.Get(value), f.Get(reference)); err != nil {
			return err
		}
	}
	return nil
}

func (r *RecordType) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	return DefaultReadDelta(ctx, r, reference)
}

func (r *RecordType) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	v := r.New()
	for _, f := range r.Fields {
		fv, err := f.Type.ReadDelta(ctx, f.Get(reference))
		if err != nil {
			return nil, err
		}
		f.Set(v, fv)
	}
	return v, nil
}
