package registry

import "github.com/brevity-dev/wirecodec/schema"

// init pre-registers the built-in primitive names identically in every
// process, per spec.md's "built-in primitive names are pre-registered
// identically in every process" — mirroring the teacher's schema package
// registering one Type per pod.ID at init time.
func init() {
	builtins := []schema.Descriptor{
		schema.NewBoolType(),
		schema.NewInt32Type(),
		schema.NewUint32Type(),
		schema.NewInt64Type(),
		schema.NewUint64Type(),
		schema.NewFloat32Type(),
		schema.NewFloat64Type(),
		schema.NewStringType(),
		schema.NewBytesType(),
		schema.NewVec3Type(),
		schema.NewVec4Type(),
		schema.NewColorType(),
		schema.NewDateTimeType(),
		schema.NewRegexType(),
	}
	for _, d := range builtins {
		if err := Global.RegisterType(d); err != nil {
			panic(err)
		}
	}
}
