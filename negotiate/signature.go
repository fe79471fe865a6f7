package negotiate

import (
	"fmt"
	"strings"

	"github.com/brevity-dev/wirecodec/schema"
)

// Signature computes a compact structural signature string for d,
// capturing everything a schema-compatibility check cares about (kind,
// name, and recursively the same for nested element/key/field/property
// types) without needing to walk the wire. It is recomputed on every call —
// there is no per-Descriptor cache or FULL-mode short-circuit here, only
// HashMetadata's digest input (hashSignature/hashClassSignature) builds on
// it. The "compact signature" idea itself is SPEC_FULL.md's supplemented
// feature; the caching it describes as a future optimization is not yet
// implemented.
func Signature(d schema.Descriptor) string {
	var b strings.Builder
	writeSignature(&b, d)
	return b.String()
}

func writeSignature(b *strings.Builder, d schema.Descriptor) {
	if d == nil {
		b.WriteString("<nil>")
		return
	}
	fmt.Fprintf(b, "%s:%s", d.Kind(), d.Name())
	switch t := d.(type) {
	case *schema.EnumType:
		fmt.Fprintf(b, "[flags=%v,w=%d", t.Flags, t.Width())
		for _, m := range t.Members {
			fmt.Fprintf(b, ",%s=%d", m.Name, m.Value)
		}
		b.WriteString("]")
	case *schema.ListType:
		b.WriteString("<")
		writeSignature(b, t.Elem)
		b.WriteString(">")
	case *schema.SetType:
		b.WriteString("<")
		writeSignature(b, t.Elem)
		b.WriteString(">")
	case *schema.MapType:
		b.WriteString("<")
		writeSignature(b, t.Key)
		b.WriteString(",")
		writeSignature(b, t.Value)
		b.WriteString(">")
	case *schema.RecordType:
		b.WriteString("{")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, "%s:", f.Name)
			writeSignature(b, f.Type)
		}
		b.WriteString("}")
	case *schema.ObjectType:
		b.WriteString("{")
		for i, p := range t.Class.Properties {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(b, "%s:", p.Name)
			writeSignature(b, p.Type)
		}
		b.WriteString("}")
	}
}
