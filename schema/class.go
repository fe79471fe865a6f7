package schema

import "reflect"

// Instance is implemented by any Go value that can be encoded as an Object
// (spec.md §3): it knows which ClassDescriptor describes its wire shape.
type Instance interface {
	ClassDescriptor() *ClassDescriptor
}

// PropertyField is one storable property of a class: a name, the
// Descriptor for its declared type, and accessor closures — the runtime
// analogue of the teacher's reflect-scanned entity.Field, but supplied by
// the registrant instead of discovered by reflection (Design Notes: trait
// objects keyed by stable type-id, not runtime reflection).
type PropertyField struct {
	Name string
	Type Descriptor
	Get  func(Instance) interface{}
	Set  func(Instance, interface{})
}

// ClassDescriptor is the Class descriptor data model of spec.md §3: a
// stable class name, its ancestor chain (root-first), and an ordered list
// of storable properties. New instances come from a zero-argument factory.
type ClassDescriptor struct {
	Name        string
	Ancestors   []string
	Properties  []PropertyField
	NewInstance func() Instance
}

// PropertyIndex returns the index of the named property, or -1.
func (c *ClassDescriptor) PropertyIndex(name string) int {
	for i, p := range c.Properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// IsSubclassOf reports whether name appears in c's ancestor chain.
func (c *ClassDescriptor) IsSubclassOf(name string) bool {
	for _, a := range c.Ancestors {
		if a == name {
			return true
		}
	}
	return false
}

// ObjectType is the Descriptor for class-based Object values (spec.md
// §4.4's "Object (class-based)"): write emits a class reference via the
// Mapping Stream, then each storable property in class order; read
// resolves the class reference to an ObjectPlan and applies it.
type ObjectType struct {
	Class *ClassDescriptor
}

func (o *ObjectType) Name() string { return o.Class.Name }
func (o *ObjectType) Kind() Kind   { return KindObject }

func (o *ObjectType) Write(ctx Context, value interface{}) error {
	inst, ok := value.(Instance)
	if !ok {
		return errUnexpectedType("ObjectType.Write", o.Class.Name, value)
	}
	if err := ctx.WriteClassRef(inst.ClassDescriptor()); err != nil {
		return err
	}
	class := inst.ClassDescriptor()
	for _, p := range class.Properties {
		if err := p.Type.Write(ctx, p.Get(inst)); err != nil {
			return err
		}
	}
	return nil
}

func (o *ObjectType) Read(ctx Context) (interface{}, error) {
	plan, err := ctx.ReadClassRef()
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, nil
	}
	return ReadObjectPlan(ctx, plan)
}

func (o *ObjectType) Equal(a, b interface{}) bool {
	ia, aok := a.(Instance)
	ib, bok := b.(Instance)
	if !aok || !bok {
		return reflect.DeepEqual(a, b)
	}
	class := ia.ClassDescriptor()
	if class.Name != ib.ClassDescriptor().Name {
		return false
	}
	for _, p := range class.Properties {
		if !p.Type.Equal(p.Get(ia), p.Get(ib)) {
			return false
		}
	}
	return true
}

func (o *ObjectType) WriteDelta(ctx Context, value, reference interface{}) error {
	return DefaultWriteDelta(ctx, o, value, reference)
}

func (o *ObjectType) WriteRawDelta(ctx Context, value, reference interface{}) error {
	inst, iok := value.(Instance)
	ref, rok := reference.(Instance)
	if !iok || !rok {
		return errUnexpectedType("ObjectType.WriteRawDelta", o.Class.Name, value)
	}
	for _, p := range inst.ClassDescriptor().Properties {
		if err := p.Type.WriteDelta(ctx, p.Get(inst), p.Get(ref)); err != nil {
			return err
		}
	}
	return nil
}

func (o *ObjectType) ReadDelta(ctx Context, reference interface{}) (interface{}, error) {
	return DefaultReadDelta(ctx, o, reference)
}

func (o *ObjectType) ReadRawDelta(ctx Context, reference interface{}) (interface{}, error) {
	ref, ok := reference.(Instance)
	if !ok {
		return nil, errUnexpectedType("ObjectType.ReadRawDelta", o.Class.Name, reference)
	}
	class := ref.ClassDescriptor()
	inst := class.NewInstance()
	for _, p := range class.Properties {
		v, err := p.Type.ReadDelta(ctx, p.Get(ref))
		if err != nil {
			return nil, err
		}
		p.Set(inst, v)
	}
	return inst, nil
}

// ReadObjectPlan decodes an Object body given a resolved ObjectPlan,
// handling both the exact fast path and the translating slow path of
// spec.md §4.6.
func ReadObjectPlan(ctx Context, plan *ObjectPlan) (interface{}, error) {
	if plan.Generic {
		return readGenericObject(ctx, plan)
	}
	if plan.Class == nil {
		return nil, errUnknownClass(plan.RemoteName())
	}
	inst := plan.Class.NewInstance()
	if plan.Exact {
		for _, p := range plan.Class.Properties {
			v, err := p.Type.Read(ctx)
			if err != nil {
				return nil, err
			}
			p.Set(inst, v)
		}
		return applyUpgrade(plan, inst), nil
	}
	for _, fr := range plan.Reader.Properties {
		v, err := fr.Reader.Read(ctx)
		if err != nil {
			return nil, err
		}
		if fr.LocalIndex >= 0 {
			plan.Class.Properties[fr.LocalIndex].Set(inst, v)
		}
	}
	return applyUpgrade(plan, inst), nil
}

// readGenericObject decodes an Object body into a name/value map instead of
// a locally typed instance, the Object counterpart to readRecord's
// no-local-match map fallback — used whenever plan.Generic is set.
func readGenericObject(ctx Context, plan *ObjectPlan) (interface{}, error) {
	result := map[string]interface{}{}
	if plan.Exact && plan.Class != nil {
		for _, p := range plan.Class.Properties {
			v, err := p.Type.Read(ctx)
			if err != nil {
				return nil, err
			}
			result[p.Name] = v
		}
		return result, nil
	}
	if plan.Reader == nil {
		return result, nil
	}
	for _, fr := range plan.Reader.Properties {
		v, err := fr.Reader.Read(ctx)
		if err != nil {
			return nil, err
		}
		result[fr.Name] = v
	}
	return result, nil
}

func applyUpgrade(plan *ObjectPlan, decoded interface{}) interface{} {
	if plan.Upgrade == nil {
		return decoded
	}
	return plan.Upgrade(decoded)
}
