package schema

import "github.com/pkg/errors"

func errUnexpectedType(op, typeName string, value interface{}) error {
	return errors.Errorf("wirecodec: %s: value %#v does not satisfy type %q", op, value, typeName)
}

func errUnknownClass(remoteName string) error {
	return errors.Errorf("wirecodec: no local class registered for remote class %q", remoteName)
}
