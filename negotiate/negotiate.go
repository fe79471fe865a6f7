// Package negotiate implements the Schema Negotiator of spec.md §4.6
// (C6): it builds schema.Context's type-ref and class-ref operations on
// top of a mapping.Stream per concern, choosing how much self-description
// to attach to a first reference according to the session's MetadataMode,
// and — for FullMetadata — building translating schema.TypeReader /
// schema.ObjectPlan values when the remote shape doesn't exactly match a
// locally registered one. Grounded on the teacher's
// framework/binary/schema/coder.go EncodeType/DecodeType (the Compact vs.
// named-field tradeoff mirrors NoMetadata vs. Full/HashMetadata here) and
// entity.go's %z signature verb (mirrored by Signature in this package).
package negotiate

import (
	"reflect"

	"golang.org/x/crypto/blake2b"

	"github.com/pkg/errors"

	"github.com/brevity-dev/wirecodec/bitio"
	"github.com/brevity-dev/wirecodec/mapping"
	"github.com/brevity-dev/wirecodec/registry"
	"github.com/brevity-dev/wirecodec/schema"
)

// ErrUnregisteredType is returned when a value write names a type with no
// local registration at all — there is nothing to intern (spec.md's Open
// Question resolution: writing an unregistered type is rejected outright
// rather than silently degrading).
var ErrUnregisteredType = errors.New("wirecodec: type is not registered")

// Negotiator implements schema.Context over a single bit buffer, using
// one mapping.Stream for type references and one for class references.
type Negotiator struct {
	bits     *bitio.BitBuffer
	registry *registry.Registry
	mode     MetadataMode
	generics GenericsMode

	types   *mapping.Stream
	classes *mapping.Stream
	names   *mapping.Stream

	// typeSubst/classSubst map a remote type/class name to the local name
	// to resolve it against instead, applied before every registry lookup
	// on read (spec.md §6 "caller may register class-name ->
	// class-descriptor substitutions and type-name -> type-descriptor
	// substitutions, applied before registry lookup on read"). Per
	// operation rather than per session, so callers set/clear them around
	// the specific read that needs translating (e.g. a renamed type from
	// an older schema version).
	typeSubst  map[string]string
	classSubst map[string]string

	err error
}

// SetTypeSubstitution registers that remoteName should resolve against
// localName's registration instead of its own, for every read until
// cleared (pass an empty localName to remove the substitution).
func (n *Negotiator) SetTypeSubstitution(remoteName, localName string) {
	if n.typeSubst == nil {
		n.typeSubst = map[string]string{}
	}
	if localName == "" {
		delete(n.typeSubst, remoteName)
		return
	}
	n.typeSubst[remoteName] = localName
}

// SetClassSubstitution is SetTypeSubstitution for class references.
func (n *Negotiator) SetClassSubstitution(remoteName, localName string) {
	if n.classSubst == nil {
		n.classSubst = map[string]string{}
	}
	if localName == "" {
		delete(n.classSubst, remoteName)
		return
	}
	n.classSubst[remoteName] = localName
}

func (n *Negotiator) resolveTypeName(remoteName string) string {
	if local, ok := n.typeSubst[remoteName]; ok {
		return local
	}
	return remoteName
}

func (n *Negotiator) resolveClassName(remoteName string) string {
	if local, ok := n.classSubst[remoteName]; ok {
		return local
	}
	return remoteName
}

// New returns a Negotiator ready to encode or decode against reg under
// mode. types, classes and names are the mapping.Stream instances to use —
// callers share them across an entire session (not just one message) so
// that persistent-tier promotions and the growing id width survive
// message boundaries, per spec.md §4.5. names backs WriteNameRef/
// ReadNameRef (spec.md §4.9's name-handle mechanism); pass a fresh
// mapping.NewStream() if the session has no need to promote names across
// messages.
func New(bits *bitio.BitBuffer, reg *registry.Registry, mode MetadataMode, generics GenericsMode, types, classes, names *mapping.Stream) *Negotiator {
	return &Negotiator{bits: bits, registry: reg, mode: mode, generics: generics, types: types, classes: classes, names: names}
}

func (n *Negotiator) Bits() *bitio.BitBuffer { return n.bits }

func (n *Negotiator) SetError(err error) {
	if n.err == nil {
		n.err = err
	}
}

func (n *Negotiator) Error() error { return n.err }

func (n *Negotiator) fail(err error) error {
	n.SetError(err)
	return err
}

// Mode reports the negotiated metadata mode.
func (n *Negotiator) Mode() MetadataMode { return n.mode }

// Generics reports the negotiated generics mode.
func (n *Negotiator) Generics() GenericsMode { return n.generics }

// Registry returns the type/class registry this Negotiator resolves
// against.
func (n *Negotiator) Registry() *registry.Registry { return n.registry }

// hashSignature computes a BLAKE2b-128 digest of d's structural signature,
// the HashMetadata mode's compact drift detector (spec.md §4.6).
func hashSignature(d schema.Descriptor) [16]byte {
	return blake2b128([]byte(Signature(d)))
}

func blake2b128(data []byte) [16]byte {
	h, err := blake2b.New(16, nil)
	if err != nil {
		panic(err) // only fails for an invalid size/key, both fixed here
	}
	h.Write(data)
	var out [16]byte
	copy(out[:], h.Sum(nil))
	return out
}

// --- Type references ---

func (n *Negotiator) WriteTypeRef(d schema.Descriptor) error {
	if d == nil {
		if _, err := n.types.WriteRef(n.bits, nil); err != nil {
			return n.fail(err)
		}
		return nil
	}
	if _, found := n.registry.LookupType(d.Name()); !found {
		if _, isClass := d.(*schema.ObjectType); !isClass {
			return n.fail(ErrUnregisteredType)
		}
	}
	isNew, err := n.types.WriteRef(n.bits, d.Name())
	if err != nil {
		return n.fail(err)
	}
	if !isNew {
		return nil
	}
	return n.writeTypeMeta(d)
}

func (n *Negotiator) writeTypeMeta(d schema.Descriptor) error {
	switch n.mode {
	case NoMetadata:
		return n.bits.WriteString(d.Name())
	case HashMetadata:
		h := hashSignature(d)
		return n.bits.WriteBytes(h[:])
	default: // FullMetadata
		return n.writeFullTypeMeta(d)
	}
}

func (n *Negotiator) writeFullTypeMeta(d schema.Descriptor) error {
	if err := n.bits.WriteBits(uint64(d.Kind()), 4); err != nil {
		return err
	}
	switch t := d.(type) {
	case *schema.SimpleType:
		return n.bits.WriteString(t.Name())
	case *schema.EnumType:
		if err := n.bits.WriteString(t.Name()); err != nil {
			return err
		}
		if err := n.bits.WriteBool(t.Flags); err != nil {
			return err
		}
		if err := n.bits.WriteUint32(uint32(len(t.Members))); err != nil {
			return err
		}
		for _, m := range t.Members {
			if err := n.bits.WriteString(m.Name); err != nil {
				return err
			}
			if err := n.bits.WriteUint64(m.Value); err != nil {
				return err
			}
		}
		return nil
	case *schema.ListType:
		if err := n.bits.WriteString(t.Name()); err != nil {
			return err
		}
		return n.WriteTypeRef(t.Elem)
	case *schema.SetType:
		if err := n.bits.WriteString(t.Name()); err != nil {
			return err
		}
		return n.WriteTypeRef(t.Elem)
	case *schema.MapType:
		if err := n.bits.WriteString(t.Name()); err != nil {
			return err
		}
		if err := n.WriteTypeRef(t.Key); err != nil {
			return err
		}
		return n.WriteTypeRef(t.Value)
	case *schema.RecordType:
		if err := n.bits.WriteString(t.Name()); err != nil {
			return err
		}
		if err := n.bits.WriteUint32(uint32(len(t.Fields))); err != nil {
			return err
		}
		for _, f := range t.Fields {
			if err := n.bits.WriteString(f.Name); err != nil {
				return err
			}
			if err := n.WriteTypeRef(f.Type); err != nil {
				return err
			}
		}
		return nil
	case *schema.ObjectType:
		return n.writeClassMeta(t.Class)
	case *schema.GenericType:
		return n.bits.WriteString(t.Name())
	default:
		return errors.Errorf("wirecodec: %T has no metadata encoding", d)
	}
}

func (n *Negotiator) ReadTypeRef() (schema.Descriptor, error) {
	id, isNew, err := n.types.ReadRef(n.bits)
	if err != nil {
		return nil, n.fail(err)
	}
	if id == 0 {
		return nil, nil
	}
	if !isNew {
		v, ok := n.types.Lookup(id)
		if !ok {
			return nil, n.fail(errors.Errorf("wirecodec: type ref %d was never bound", id))
		}
		return v.(schema.Descriptor), nil
	}
	d, err := n.readTypeMeta()
	if err != nil {
		return nil, n.fail(err)
	}
	n.types.Bind(id, d)
	return d, nil
}

func (n *Negotiator) readTypeMeta() (schema.Descriptor, error) {
	switch n.mode {
	case NoMetadata:
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		d, found := n.registry.LookupType(n.resolveTypeName(name))
		if !found {
			return nil, errors.Errorf("wirecodec: type %q not registered locally (registries out of sync)", name)
		}
		return d, nil
	case HashMetadata:
		raw, err := n.bits.ReadBytes()
		if err != nil {
			return nil, err
		}
		var got [16]byte
		copy(got[:], raw)
		return n.resolveByHash(got)
	default: // FullMetadata
		return n.readFullTypeMeta()
	}
}

func (n *Negotiator) resolveByHash(hash [16]byte) (schema.Descriptor, error) {
	for _, name := range n.registry.TypeNames() {
		d, _ := n.registry.LookupType(name)
		if hashSignature(d) == hash {
			return d, nil
		}
	}
	return nil, errors.New("wirecodec: no locally registered type matches the remote structural hash")
}

func (n *Negotiator) readFullTypeMeta() (schema.Descriptor, error) {
	rawKind, err := n.bits.ReadBits(4)
	if err != nil {
		return nil, err
	}
	remoteKind := schema.Kind(rawKind)

	switch remoteKind {
	case schema.KindSimple:
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		return n.exactOrReader(name, remoteKind, &schema.TypeReader{RemoteName: name, RemoteKind: remoteKind})
	case schema.KindEnum:
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		flags, err := n.bits.ReadBool()
		if err != nil {
			return nil, err
		}
		count, err := n.bits.ReadUint32()
		if err != nil {
			return nil, err
		}
		members := make([]schema.EnumMember, count)
		for i := range members {
			mname, err := n.bits.ReadString()
			if err != nil {
				return nil, err
			}
			mval, err := n.bits.ReadUint64()
			if err != nil {
				return nil, err
			}
			members[i] = schema.EnumMember{Name: mname, Value: mval}
		}
		return n.buildEnumReader(name, flags, members), nil
	case schema.KindList, schema.KindSet:
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		elem, err := n.ReadTypeRef()
		if err != nil {
			return nil, err
		}
		return n.buildCollectionReader(name, remoteKind, elem), nil
	case schema.KindMap:
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		key, err := n.ReadTypeRef()
		if err != nil {
			return nil, err
		}
		value, err := n.ReadTypeRef()
		if err != nil {
			return nil, err
		}
		return n.buildMapReader(name, key, value), nil
	case schema.KindRecord:
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		count, err := n.bits.ReadUint32()
		if err != nil {
			return nil, err
		}
		fieldNames := make([]string, count)
		fieldReaders := make([]*schema.TypeReader, count)
		for i := range fieldNames {
			fn, err := n.bits.ReadString()
			if err != nil {
				return nil, err
			}
			fieldNames[i] = fn
			fr, err := n.ReadTypeRef()
			if err != nil {
				return nil, err
			}
			fieldReaders[i] = asTypeReader(fr)
		}
		return n.buildRecordReader(name, fieldNames, fieldReaders), nil
	case schema.KindObject:
		plan, err := n.readClassMeta()
		if err != nil {
			return nil, err
		}
		return &objectPlanReader{plan: plan}, nil
	case schema.KindGeneric:
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		return &schema.GenericType{TypeName: name}, nil
	default:
		return nil, errors.Errorf("wirecodec: unknown remote kind %d", remoteKind)
	}
}

// exactOrReader returns the local descriptor directly if its name is
// registered, otherwise a non-exact reader wrapping fallback. It is the
// common "do we even need translation" check shared by every kind. In
// AllGenerics mode the bare-local shortcut never fires (spec.md §4.6: "in
// all-generic mode, the reader never maps to a local descriptor and always
// produces a generic read-plan") — fallback.Local is still populated when a
// match exists so KindSimple, which has no wire format independent of its
// local descriptor, can still decode.
func (n *Negotiator) exactOrReader(name string, kind schema.Kind, fallback *schema.TypeReader) (schema.Descriptor, error) {
	local, found := n.registry.LookupType(n.resolveTypeName(name))
	if !found || local.Kind() != kind {
		return fallback, nil
	}
	if n.generics == AllGenerics {
		fallback.Local = local
		return fallback, nil
	}
	return local, nil
}

func (n *Negotiator) buildEnumReader(name string, flags bool, members []schema.EnumMember) schema.Descriptor {
	local, found := n.registry.LookupType(n.resolveTypeName(name))
	localEnum, isEnum := local.(*schema.EnumType)
	if found && isEnum && sameEnumShape(localEnum, flags, members) && n.generics != AllGenerics {
		return localEnum
	}
	width := enumWidth(members)
	remap := map[uint64]uint64{}
	if found && isEnum {
		byName := map[string]uint64{}
		for _, lm := range localEnum.Members {
			byName[lm.Name] = lm.Value
		}
		for _, rm := range members {
			if lv, ok := byName[rm.Name]; ok {
				remap[rm.Value] = lv
			}
		}
	} else {
		localEnum = n.registry.MaterializeEnum(name, members, flags)
		for _, m := range members {
			remap[m.Value] = m.Value
		}
	}
	return &schema.TypeReader{
		RemoteName:        name,
		RemoteKind:        schema.KindEnum,
		Local:             localEnum,
		Exact:             false,
		EnumWidth:         width,
		EnumFlags:         flags,
		EnumRemoteToLocal: remap,
	}
}

func sameEnumShape(local *schema.EnumType, flags bool, members []schema.EnumMember) bool {
	if local.Flags != flags || len(local.Members) != len(members) {
		return false
	}
	for i, m := range members {
		if local.Members[i] != m {
			return false
		}
	}
	return true
}

func enumWidth(members []schema.EnumMember) uint {
	e := &schema.EnumType{Members: members}
	return e.Width()
}

func (n *Negotiator) buildCollectionReader(name string, kind schema.Kind, elem schema.Descriptor) schema.Descriptor {
	local, found := n.registry.LookupType(n.resolveTypeName(name))
	if found && n.generics != AllGenerics {
		switch kind {
		case schema.KindList:
			if lt, ok := local.(*schema.ListType); ok && lt.Elem.Name() == elem.Name() {
				return lt
			}
		case schema.KindSet:
			if st, ok := local.(*schema.SetType); ok && st.Elem.Name() == elem.Name() {
				return st
			}
		}
	}
	return &schema.TypeReader{RemoteName: name, RemoteKind: kind, ElemReader: asTypeReader(elem)}
}

func (n *Negotiator) buildMapReader(name string, key, value schema.Descriptor) schema.Descriptor {
	if local, found := n.registry.LookupType(n.resolveTypeName(name)); found && n.generics != AllGenerics {
		if mt, ok := local.(*schema.MapType); ok && mt.Key.Name() == key.Name() && mt.Value.Name() == value.Name() {
			return mt
		}
	}
	return &schema.TypeReader{
		RemoteName: name,
		RemoteKind: schema.KindMap,
		KeyReader:  asTypeReader(key),
		ElemReader: asTypeReader(value),
	}
}

func (n *Negotiator) buildRecordReader(name string, fieldNames []string, fieldReaders []*schema.TypeReader) schema.Descriptor {
	local, found := n.registry.LookupType(n.resolveTypeName(name))
	localRec, isRec := local.(*schema.RecordType)
	exact := found && isRec && len(localRec.Fields) == len(fieldNames)
	if exact {
		for i, fn := range fieldNames {
			if localRec.Fields[i].Name != fn || localRec.Fields[i].Type.Name() != fieldReaders[i].Name() {
				exact = false
				break
			}
		}
	}
	if exact && n.generics != AllGenerics {
		return localRec
	}
	fields := make([]schema.FieldReader, len(fieldNames))
	for i, fn := range fieldNames {
		localIdx := -1
		if isRec {
			localIdx = localRec.FieldIndex(fn)
		}
		fields[i] = schema.FieldReader{Name: fn, Reader: fieldReaders[i], LocalIndex: localIdx}
	}
	// AllGenerics never maps field values into a locally typed instance —
	// leaving localDescriptor nil forces readRecord's generic map[string]
	// fallback even when a matching local record exists.
	var localDescriptor schema.Descriptor
	if isRec && n.generics != AllGenerics {
		localDescriptor = localRec
	}
	return &schema.TypeReader{RemoteName: name, RemoteKind: schema.KindRecord, Local: localDescriptor, Fields: fields}
}

func asTypeReader(d schema.Descriptor) *schema.TypeReader {
	if tr, ok := d.(*schema.TypeReader); ok {
		return tr
	}
	return &schema.TypeReader{RemoteName: d.Name(), RemoteKind: d.Kind(), Local: d, Exact: true}
}

// --- Class references ---

func (n *Negotiator) WriteClassRef(c *schema.ClassDescriptor) error {
	if c == nil {
		if _, err := n.classes.WriteRef(n.bits, nil); err != nil {
			return n.fail(err)
		}
		return nil
	}
	isNew, err := n.classes.WriteRef(n.bits, c.Name)
	if err != nil {
		return n.fail(err)
	}
	if !isNew {
		return nil
	}
	return n.writeClassMeta(c)
}

func (n *Negotiator) writeClassMeta(c *schema.ClassDescriptor) error {
	switch n.mode {
	case NoMetadata:
		return n.bits.WriteString(c.Name)
	case HashMetadata:
		h := hashClassSignature(c)
		return n.bits.WriteBytes(h[:])
	default: // FullMetadata
		if err := n.bits.WriteString(c.Name); err != nil {
			return err
		}
		if err := n.bits.WriteUint32(uint32(len(c.Ancestors))); err != nil {
			return err
		}
		for _, a := range c.Ancestors {
			if err := n.bits.WriteString(a); err != nil {
				return err
			}
		}
		if err := n.bits.WriteUint32(uint32(len(c.Properties))); err != nil {
			return err
		}
		for _, p := range c.Properties {
			if err := n.bits.WriteString(p.Name); err != nil {
				return err
			}
			if err := n.WriteTypeRef(p.Type); err != nil {
				return err
			}
		}
		return nil
	}
}

func classSignature(c *schema.ClassDescriptor) string {
	return Signature(&schema.ObjectType{Class: c})
}

func hashClassSignature(c *schema.ClassDescriptor) [16]byte {
	return blake2b128([]byte(classSignature(c)))
}

func (n *Negotiator) ReadClassRef() (*schema.ObjectPlan, error) {
	id, isNew, err := n.classes.ReadRef(n.bits)
	if err != nil {
		return nil, n.fail(err)
	}
	if id == 0 {
		return nil, nil
	}
	if !isNew {
		v, ok := n.classes.Lookup(id)
		if !ok {
			return nil, n.fail(errors.Errorf("wirecodec: class ref %d was never bound", id))
		}
		return v.(*schema.ObjectPlan), nil
	}
	plan, err := n.readClassMeta()
	if err != nil {
		return nil, n.fail(err)
	}
	n.classes.Bind(id, plan)
	return plan, nil
}

func (n *Negotiator) readClassMeta() (*schema.ObjectPlan, error) {
	switch n.mode {
	case NoMetadata:
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		c, found := n.registry.LookupClass(n.resolveClassName(name))
		if !found {
			return nil, errors.Errorf("wirecodec: class %q not registered locally (registries out of sync)", name)
		}
		return n.withUpgrade(c.Name, &schema.ObjectPlan{Class: c, Exact: true, Generic: n.generics == AllGenerics}), nil
	case HashMetadata:
		raw, err := n.bits.ReadBytes()
		if err != nil {
			return nil, err
		}
		var got [16]byte
		copy(got[:], raw)
		for _, name := range n.registry.ClassNames() {
			c, _ := n.registry.LookupClass(name)
			if hashClassSignature(c) == got {
				return n.withUpgrade(c.Name, &schema.ObjectPlan{Class: c, Exact: true, Generic: n.generics == AllGenerics}), nil
			}
		}
		return nil, errors.New("wirecodec: no locally registered class matches the remote structural hash")
	default: // FullMetadata
		name, err := n.bits.ReadString()
		if err != nil {
			return nil, err
		}
		ancestorCount, err := n.bits.ReadUint32()
		if err != nil {
			return nil, err
		}
		ancestors := make([]string, ancestorCount)
		for i := range ancestors {
			a, err := n.bits.ReadString()
			if err != nil {
				return nil, err
			}
			ancestors[i] = a
		}
		propCount, err := n.bits.ReadUint32()
		if err != nil {
			return nil, err
		}
		propNames := make([]string, propCount)
		propReaders := make([]*schema.TypeReader, propCount)
		for i := range propNames {
			pn, err := n.bits.ReadString()
			if err != nil {
				return nil, err
			}
			propNames[i] = pn
			pr, err := n.ReadTypeRef()
			if err != nil {
				return nil, err
			}
			propReaders[i] = asTypeReader(pr)
		}
		_ = ancestors
		return n.buildObjectPlan(name, propNames, propReaders), nil
	}
}

func (n *Negotiator) buildObjectPlan(name string, propNames []string, propReaders []*schema.TypeReader) *schema.ObjectPlan {
	local, found := n.registry.LookupClass(n.resolveClassName(name))
	exact := found && len(local.Properties) == len(propNames)
	if exact {
		for i, pn := range propNames {
			if local.Properties[i].Name != pn || local.Properties[i].Type.Name() != propReaders[i].Name() {
				exact = false
				break
			}
		}
	}
	generic := n.generics == AllGenerics
	if exact && !generic {
		return n.withUpgrade(name, &schema.ObjectPlan{Class: local, Exact: true})
	}
	fields := make([]schema.FieldReader, len(propNames))
	for i, pn := range propNames {
		localIdx := -1
		if found {
			localIdx = local.PropertyIndex(pn)
		}
		fields[i] = schema.FieldReader{Name: pn, Reader: propReaders[i], LocalIndex: localIdx}
	}
	if exact {
		// Structurally exact but AllGenerics still wants a property-bag
		// decode: reuse the exact per-field order as Reader.Properties so
		// readGenericObject has something to walk.
		return &schema.ObjectPlan{Class: local, Exact: false, Generic: true, Reader: &schema.ObjectReader{RemoteClassName: name, Properties: fields}}
	}
	return n.withUpgrade(name, &schema.ObjectPlan{
		Class:   local,
		Exact:   false,
		Generic: generic,
		Reader:  &schema.ObjectReader{RemoteClassName: name, Properties: fields},
	})
}

// withUpgrade attaches name's registered upgrader, if any, to plan so a
// frozen class name still resolves to a live instance for readers (registry
// RegisterUpgrader, the teacher's binary.Frozen / UpgradeDecoder pattern).
func (n *Negotiator) withUpgrade(name string, plan *schema.ObjectPlan) *schema.ObjectPlan {
	upgrade, ok := n.registry.Upgrader(name)
	if !ok {
		return plan
	}
	plan.Upgrade = func(decoded interface{}) interface{} {
		_, obj := upgrade(decoded)
		return obj
	}
	return plan
}

// --- Name references (spec.md §4.9) ---

// WriteNameRef interns name through the names Mapping Stream, writing the
// full string on first reference and the interned id thereafter. A nil
// name writes the reserved null id — the invalid-name sentinel that
// terminates a dynamic name/value sequence (e.g. ScriptValue's Object case).
func (n *Negotiator) WriteNameRef(name *string) error {
	if name == nil {
		if _, err := n.names.WriteRef(n.bits, nil); err != nil {
			return n.fail(err)
		}
		return nil
	}
	isNew, err := n.names.WriteRef(n.bits, *name)
	if err != nil {
		return n.fail(err)
	}
	if !isNew {
		return nil
	}
	if err := n.bits.WriteString(*name); err != nil {
		return n.fail(err)
	}
	return nil
}

// ReadNameRef mirrors WriteNameRef: a nil result is the invalid-name
// sentinel.
func (n *Negotiator) ReadNameRef() (*string, error) {
	id, isNew, err := n.names.ReadRef(n.bits)
	if err != nil {
		return nil, n.fail(err)
	}
	if id == 0 {
		return nil, nil
	}
	if !isNew {
		v, ok := n.names.Lookup(id)
		if !ok {
			return nil, n.fail(errors.Errorf("wirecodec: name ref %d was never bound", id))
		}
		s := v.(string)
		return &s, nil
	}
	s, err := n.bits.ReadString()
	if err != nil {
		return nil, n.fail(err)
	}
	n.names.Bind(id, s)
	return &s, nil
}

// objectPlanReader lets a resolved ObjectPlan stand in for a Descriptor
// when an Object-kind type is encountered while decoding FullMetadata for
// some other type (e.g. nested in a Generic wrapper) rather than via the
// usual WriteClassRef/ReadClassRef path.
type objectPlanReader struct {
	plan *schema.ObjectPlan
}

func (o *objectPlanReader) Name() string { return o.plan.RemoteName() }
func (o *objectPlanReader) Kind() schema.Kind { return schema.KindObject }
func (o *objectPlanReader) Write(ctx schema.Context, value interface{}) error {
	return errors.New("wirecodec: cannot write through an object plan reader")
}
func (o *objectPlanReader) Read(ctx schema.Context) (interface{}, error) {
	return schema.ReadObjectPlan(ctx, o.plan)
}
func (o *objectPlanReader) Equal(a, b interface{}) bool { return reflect.DeepEqual(a, b) }
func (o *objectPlanReader) WriteDelta(ctx schema.Context, value, reference interface{}) error {
	return errors.New("wirecodec: cannot write-delta through an object plan reader")
}
func (o *objectPlanReader) WriteRawDelta(ctx schema.Context, value, reference interface{}) error {
	return errors.New("wirecodec: cannot write-raw-delta through an object plan reader")
}
func (o *objectPlanReader) ReadDelta(ctx schema.Context, reference interface{}) (interface{}, error) {
	return schema.DefaultReadDelta(ctx, o, reference)
}
func (o *objectPlanReader) ReadRawDelta(ctx schema.Context, reference interface{}) (interface{}, error) {
	return o.Read(ctx)
}
